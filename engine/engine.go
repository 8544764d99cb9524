package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/document"
	"github.com/tsawler/pdfedit/reader"
	"github.com/tsawler/pdfedit/source"
)

// Options bounds what the engine accepts. Zero values mean no limit and,
// for BlankPageSize, A4.
type Options struct {
	MaxPages      int
	MaxSourceSize int64
	BlankPageSize PageSize
}

// Engine applies operations to snapshots. It holds no document state and
// is safe for concurrent use.
type Engine struct {
	opts Options
}

// New returns an engine with the given limits.
func New(opts Options) *Engine {
	if opts.BlankPageSize == (PageSize{}) {
		opts.BlankPageSize = A4
	}
	return &Engine{opts: opts}
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Apply runs op against doc. On success it returns the new snapshot; on
// failure it returns doc itself and the error.
func (e *Engine) Apply(doc *document.Document, op Operation) (*document.Document, error) {
	if op == nil {
		return doc, errors.New("engine: nil operation")
	}

	draft := doc.Draft()
	if err := op.apply(e, draft); err != nil {
		return doc, err
	}
	next, err := draft.Commit()
	if err != nil {
		return doc, fmt.Errorf("engine: %v produced an invalid document: %w", op, err)
	}
	return next, nil
}

func (e *Engine) checkPageLimit(current, added int) error {
	if e.opts.MaxPages > 0 && current+added > e.opts.MaxPages {
		return fmt.Errorf("%w: %d pages exceeds the limit of %d", ErrTooManyPages, current+added, e.opts.MaxPages)
	}
	return nil
}

func (e *Engine) insertBlank(d *document.Draft, op InsertBlank) error {
	size := op.Size
	if size == (PageSize{}) {
		size = e.opts.BlankPageSize
	}
	if err := size.Validate(); err != nil {
		return err
	}

	n := len(d.Pages())
	if op.Index < 0 || op.Index > n {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, op.Index, n)
	}
	if err := e.checkPageLimit(n, 1); err != nil {
		return err
	}

	num := d.Add(core.Dict{
		"Type":      core.Name("Page"),
		"MediaBox":  core.Array{core.Int(0), core.Int(0), dimension(size.Width), dimension(size.Height)},
		"Resources": core.Dict{},
	})
	_, err := d.InsertPages(op.Index, []int{num})
	return err
}

// dimension writes whole point values as integers.
func dimension(v float64) core.Object {
	if v == math.Trunc(v) {
		return core.Int(int64(v))
	}
	return core.Real(v)
}

func (e *Engine) merge(d *document.Draft, op Merge) error {
	if op.Source == nil || op.Source.Len() == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSource, source.ErrEmpty)
	}
	if e.opts.MaxSourceSize > 0 && int64(op.Source.Len()) > e.opts.MaxSourceSize {
		return fmt.Errorf("%w: %w: %d bytes exceeds %d", ErrInvalidSource, source.ErrTooLarge, op.Source.Len(), e.opts.MaxSourceSize)
	}

	n := len(d.Pages())
	index := op.Index
	if index == End {
		index = n
	}
	if index < 0 || index > n {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, op.Index, n)
	}

	src, err := reader.Load(op.Source)
	switch {
	case errors.Is(err, reader.ErrEncryptedDocument):
		return fmt.Errorf("%w: %w", ErrEncryptedSource, err)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	refs := src.Pages().Refs()
	if err := e.checkPageLimit(n, len(refs)); err != nil {
		return err
	}

	c := newCopier(src, d)
	nums := make([]int, len(refs))
	for i, ref := range refs {
		nums[i] = c.reserve(ref.Object)
	}
	c.run()

	if _, err := d.InsertPages(index, nums); err != nil {
		return err
	}
	d.RaiseVersion(src.PDFVersion())
	return nil
}
