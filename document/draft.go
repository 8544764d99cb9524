package document

import (
	"fmt"

	"github.com/tsawler/pdfedit/core"
)

// Draft accumulates changes to a base snapshot. The base is never
// modified; Commit builds a new snapshot. A Draft is not safe for
// concurrent use and must not be used after Commit.
type Draft struct {
	base       *Document
	pages      []PageRef
	changes    map[int]core.Object
	pdfVersion Version
	nextObject int
	nextPage   PageID
}

// Object returns the object with the given number as the draft sees it.
func (d *Draft) Object(num int) (core.Object, bool) {
	if obj, ok := d.changes[num]; ok {
		return obj, true
	}
	return d.base.Object(num)
}

// Reserve allocates a fresh object number without storing an object.
func (d *Draft) Reserve() int {
	num := d.nextObject
	d.nextObject++
	return num
}

// Set stores obj under a number previously returned by Reserve or already
// present in the base.
func (d *Draft) Set(num int, obj core.Object) {
	d.changes[num] = obj
}

// Add stores obj under a fresh object number and returns that number.
func (d *Draft) Add(obj core.Object) int {
	num := d.Reserve()
	d.Set(num, obj)
	return num
}

// Pages returns the draft's current page order.
func (d *Draft) Pages() []PageRef {
	out := make([]PageRef, len(d.pages))
	copy(out, d.pages)
	return out
}

// IndexOf returns the position of id in the draft, or -1.
func (d *Draft) IndexOf(id PageID) int {
	for i, ref := range d.pages {
		if ref.ID == id {
			return i
		}
	}
	return -1
}

// InsertPages inserts the page dictionaries stored in objects at index,
// assigning each a new page id. Relative order is preserved.
func (d *Draft) InsertPages(index int, objects []int) ([]PageID, error) {
	if index < 0 || index > len(d.pages) {
		return nil, fmt.Errorf("insert index %d outside [0, %d]", index, len(d.pages))
	}

	ids := make([]PageID, len(objects))
	inserted := make([]PageRef, len(objects))
	for i, num := range objects {
		ids[i] = d.nextPage
		inserted[i] = PageRef{ID: d.nextPage, Object: num}
		d.nextPage++
	}

	out := make([]PageRef, 0, len(d.pages)+len(inserted))
	out = append(out, d.pages[:index]...)
	out = append(out, inserted...)
	out = append(out, d.pages[index:]...)
	d.pages = out
	return ids, nil
}

// RemovePage removes the page with the given id. It reports whether the
// page was present.
func (d *Draft) RemovePage(id PageID) bool {
	i := d.IndexOf(id)
	if i < 0 {
		return false
	}
	d.pages = append(d.pages[:i:i], d.pages[i+1:]...)
	return true
}

// MovePage moves the page with the given id so that it ends at index,
// counted after its removal from the old position.
func (d *Draft) MovePage(id PageID, index int) error {
	from := d.IndexOf(id)
	if from < 0 {
		return fmt.Errorf("page %v not in draft", id)
	}
	if index < 0 || index >= len(d.pages) {
		return fmt.Errorf("move index %d outside [0, %d)", index, len(d.pages))
	}

	ref := d.pages[from]
	rest := append(d.pages[:from:from], d.pages[from+1:]...)
	out := make([]PageRef, 0, len(d.pages))
	out = append(out, rest[:index]...)
	out = append(out, ref)
	out = append(out, rest[index:]...)
	d.pages = out
	return nil
}

// RaiseVersion makes the document require at least v.
func (d *Draft) RaiseVersion(v Version) {
	if d.pdfVersion.Less(v) {
		d.pdfVersion = v
	}
}

// Commit validates the draft and returns the resulting snapshot with the
// version incremented. On error the base snapshot remains the current
// state.
func (d *Draft) Commit() (*Document, error) {
	objects := make(map[int]core.Object, len(d.base.objects)+len(d.changes))
	for num, obj := range d.base.objects {
		objects[num] = obj
	}
	for num, obj := range d.changes {
		objects[num] = obj
	}

	doc := &Document{
		version:    d.base.version + 1,
		pdfVersion: d.pdfVersion,
		pages:      d.pages,
		objects:    objects,
		catalog:    d.base.catalog,
		info:       d.base.info,
		id:         d.base.id,
		nextObject: d.nextObject,
		nextPage:   d.nextPage,
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	d.pages = nil
	return doc, nil
}
