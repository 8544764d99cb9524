package engine

import (
	"fmt"

	"github.com/tsawler/pdfedit/document"
	"github.com/tsawler/pdfedit/source"
)

// End as a Merge index appends the merged pages.
const End = -1

// Operation is a single edit. The set of operations is closed.
type Operation interface {
	fmt.Stringer
	apply(e *Engine, d *document.Draft) error
}

// Merge inserts every page of another PDF at Index, keeping their order.
type Merge struct {
	Source *source.Buffer
	Index  int
}

func (op Merge) String() string {
	size := 0
	if op.Source != nil {
		size = op.Source.Len()
	}
	if op.Index == End {
		return fmt.Sprintf("merge(%d bytes at end)", size)
	}
	return fmt.Sprintf("merge(%d bytes at %d)", size, op.Index)
}

func (op Merge) apply(e *Engine, d *document.Draft) error {
	return e.merge(d, op)
}

// Delete removes a page.
type Delete struct {
	Page document.PageID
}

func (op Delete) String() string {
	return fmt.Sprintf("delete(page %v)", op.Page)
}

func (op Delete) apply(_ *Engine, d *document.Draft) error {
	if d.IndexOf(op.Page) < 0 {
		return fmt.Errorf("%w: %v", ErrPageNotFound, op.Page)
	}
	if len(d.Pages()) == 1 {
		return ErrLastPageDeletion
	}
	d.RemovePage(op.Page)
	return nil
}

// Reorder moves a page so that it ends at Index. Pages between the old
// and new positions shift by one. An Index past the last position is
// clamped to it; a negative Index is an error.
type Reorder struct {
	Page  document.PageID
	Index int
}

func (op Reorder) String() string {
	return fmt.Sprintf("reorder(page %v to %d)", op.Page, op.Index)
}

func (op Reorder) apply(_ *Engine, d *document.Draft) error {
	if d.IndexOf(op.Page) < 0 {
		return fmt.Errorf("%w: %v", ErrPageNotFound, op.Page)
	}
	if op.Index < 0 {
		return fmt.Errorf("%w: %d is negative", ErrIndexOutOfRange, op.Index)
	}
	return d.MovePage(op.Page, min(op.Index, len(d.Pages())-1))
}

// InsertBlank inserts an empty page at Index. A zero Size uses the
// engine's configured blank page size.
type InsertBlank struct {
	Index int
	Size  PageSize
}

func (op InsertBlank) String() string {
	if op.Size == (PageSize{}) {
		return fmt.Sprintf("insert-blank(at %d)", op.Index)
	}
	return fmt.Sprintf("insert-blank(at %d, %v)", op.Index, op.Size)
}

func (op InsertBlank) apply(e *Engine, d *document.Draft) error {
	return e.insertBlank(d, op)
}
