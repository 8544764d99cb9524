package document

import (
	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/pages"
)

// Registry is the ordered, read-only view of a document's pages.
type Registry struct {
	refs []PageRef
	doc  *Document
}

// Count returns the number of pages.
func (r Registry) Count() int {
	return len(r.refs)
}

// IDs returns the page ids in document order.
func (r Registry) IDs() []PageID {
	ids := make([]PageID, len(r.refs))
	for i, ref := range r.refs {
		ids[i] = ref.ID
	}
	return ids
}

// Refs returns the page references in document order.
func (r Registry) Refs() []PageRef {
	out := make([]PageRef, len(r.refs))
	copy(out, r.refs)
	return out
}

// IndexOf returns the zero-based position of id, or -1.
func (r Registry) IndexOf(id PageID) int {
	for i, ref := range r.refs {
		if ref.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id names a page in the registry.
func (r Registry) Contains(id PageID) bool {
	return r.IndexOf(id) >= 0
}

// PageAt returns the page at index.
func (r Registry) PageAt(index int) (PageRef, bool) {
	if index < 0 || index >= len(r.refs) {
		return PageRef{}, false
	}
	return r.refs[index], true
}

// PageSize returns the media box width and height of the page, in points.
// Rotation is not applied.
func (r Registry) PageSize(id PageID) (width, height float64, ok bool) {
	i := r.IndexOf(id)
	if i < 0 {
		return 0, 0, false
	}
	obj, _ := r.doc.Object(r.refs[i].Object)
	dict, _ := obj.(core.Dict)

	box, err := pages.Box(dict.Get("MediaBox"), r.doc)
	if err != nil {
		return 0, 0, false
	}
	return box[2] - box[0], box[3] - box[1], true
}
