package document

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/pages"
)

// PageID identifies a page for the lifetime of an editing session.
type PageID uint64

// String returns the decimal form of the id.
func (id PageID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// PageRef ties a page identity to the object holding its dictionary.
type PageRef struct {
	ID     PageID
	Object int
}

// Document is an immutable snapshot of a PDF's page-level structure.
type Document struct {
	version    uint64
	pdfVersion Version
	pages      []PageRef
	objects    map[int]core.Object
	catalog    core.Dict
	info       core.Dict
	id         core.Array
	nextObject int
	nextPage   PageID
}

var _ pages.Resolver = (*Document)(nil)

// Contents describes a freshly loaded document.
type Contents struct {
	PDFVersion Version
	Objects    map[int]core.Object // owned by the new document
	Pages      []int               // page dictionary object numbers, in order
	Catalog    core.Dict
	Info       core.Dict
	ID         core.Array
	FirstID    PageID // first page id to assign; zero means 1
}

// New builds the initial snapshot of a loaded document. Every page must
// name a dictionary in Objects, and there must be at least one page.
func New(c Contents) (*Document, error) {
	if len(c.Pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	objects := c.Objects
	if objects == nil {
		objects = make(map[int]core.Object)
	}

	next := c.FirstID
	if next == 0 {
		next = 1
	}

	doc := &Document{
		pdfVersion: c.PDFVersion,
		objects:    objects,
		catalog:    c.Catalog,
		info:       c.Info,
		id:         c.ID,
		pages:      make([]PageRef, len(c.Pages)),
	}
	for i, num := range c.Pages {
		doc.pages[i] = PageRef{ID: next, Object: num}
		next++
	}
	doc.nextPage = next

	for num := range objects {
		if num >= doc.nextObject {
			doc.nextObject = num + 1
		}
	}
	if doc.nextObject == 0 {
		doc.nextObject = 1
	}

	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// validate checks that the registry and the object space agree.
func (d *Document) validate() error {
	if len(d.pages) == 0 {
		return fmt.Errorf("document has no pages")
	}
	seenID := make(map[PageID]bool, len(d.pages))
	seenObj := make(map[int]bool, len(d.pages))
	for i, ref := range d.pages {
		if seenID[ref.ID] {
			return fmt.Errorf("page id %v appears twice", ref.ID)
		}
		seenID[ref.ID] = true
		if seenObj[ref.Object] {
			return fmt.Errorf("object %d holds more than one page", ref.Object)
		}
		seenObj[ref.Object] = true

		obj, ok := d.objects[ref.Object]
		if !ok {
			return fmt.Errorf("page %d (id %v): object %d missing", i, ref.ID, ref.Object)
		}
		if _, ok := obj.(core.Dict); !ok {
			return fmt.Errorf("page %d (id %v): object %d is %T, not a dictionary", i, ref.ID, ref.Object, obj)
		}
	}
	return nil
}

// Version returns the snapshot version. It increases by one with every
// committed draft.
func (d *Document) Version() uint64 {
	return d.version
}

// PDFVersion returns the file format version the document needs.
func (d *Document) PDFVersion() Version {
	return d.pdfVersion
}

// NextPageID returns the id the next inserted page will receive. Loading
// a replacement document with reader.WithFirstPageID(NextPageID()) keeps
// ids unique across the session.
func (d *Document) NextPageID() PageID {
	return d.nextPage
}

// Pages returns the page registry.
func (d *Document) Pages() Registry {
	return Registry{refs: d.pages, doc: d}
}

// Object returns the object with the given number.
func (d *Document) Object(num int) (core.Object, bool) {
	obj, ok := d.objects[num]
	return obj, ok
}

// ObjectNumbers returns the numbers of all objects held, sorted.
func (d *Document) ObjectNumbers() []int {
	nums := make([]int, 0, len(d.objects))
	for num := range d.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// Catalog returns the document catalog as loaded.
func (d *Document) Catalog() core.Dict {
	return d.catalog
}

// InfoDict returns the document information dictionary, or nil.
func (d *Document) InfoDict() core.Dict {
	return d.info
}

// ID returns the trailer /ID array, or nil.
func (d *Document) ID() core.Array {
	return d.id
}

// Resolve returns the object a reference points to. References to
// objects the document does not hold resolve to null.
func (d *Document) Resolve(obj core.Object) (core.Object, error) {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj, nil
	}
	if target, ok := d.objects[ref.Number]; ok {
		return target, nil
	}
	return core.Null{}, nil
}

// Draft starts a set of changes against d.
func (d *Document) Draft() *Draft {
	refs := make([]PageRef, len(d.pages))
	copy(refs, d.pages)
	return &Draft{
		base:       d,
		pages:      refs,
		changes:    make(map[int]core.Object),
		pdfVersion: d.pdfVersion,
		nextObject: d.nextObject,
		nextPage:   d.nextPage,
	}
}
