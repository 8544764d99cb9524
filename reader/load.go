package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/document"
	"github.com/tsawler/pdfedit/pages"
	"github.com/tsawler/pdfedit/source"
)

// catalogKeys are the catalog entries that survive a load. Everything
// else in the catalog depends on page objects or document structure the
// engine rebuilds.
var catalogKeys = []string{"PageLayout", "PageMode", "Lang", "ViewerPreferences", "Metadata"}

// Option configures a load.
type Option func(*options)

type options struct {
	firstPageID document.PageID
}

// WithFirstPageID sets the id given to the first page. A session that
// replaces its document keeps ids unique by continuing from the previous
// snapshot's counter.
func WithFirstPageID(id document.PageID) Option {
	return func(o *options) {
		o.firstPageID = id
	}
}

// Load parses buf into a document snapshot. The snapshot does not alias
// buf, so the buffer may be closed once Load returns.
func Load(buf *source.Buffer, opts ...Option) (*document.Document, error) {
	return LoadBytes(buf.Bytes(), opts...)
}

// LoadReader reads at most limit bytes from r and loads them. A limit of
// zero or less means no limit.
func LoadReader(r io.Reader, limit int64, opts ...Option) (*document.Document, error) {
	buf, err := source.FromReader(r, limit)
	switch {
	case errors.Is(err, source.ErrEmpty):
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	case errors.Is(err, source.ErrTooLarge):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	defer buf.Close()
	return Load(buf, opts...)
}

// LoadBytes parses an in-memory PDF file.
func LoadBytes(data []byte, opts ...Option) (*document.Document, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, source.ErrEmpty)
	}

	r, err := NewReader(data)
	if err != nil {
		return nil, err
	}
	doc, err := r.Document(o.firstPageID)
	if err == nil || errors.Is(err, ErrUnsupportedVersion) {
		return doc, err
	}

	// Stale offsets surface only once objects are read; retry from a
	// scanned xref before giving up.
	if !r.Repaired() {
		if rr, rerr := newReader(data, true); rerr == nil {
			if doc, rerr := rr.Document(o.firstPageID); rerr == nil {
				return doc, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
}

// Document walks the page tree and collects every object the pages, the
// kept catalog entries and the information dictionary reach.
func (r *Reader) Document(firstPageID document.PageID) (*document.Document, error) {
	catalogDict, err := r.GetCatalog()
	if err != nil {
		return nil, err
	}
	version := r.version
	if s, ok := catalogDict.GetName("Version"); ok {
		if v, err := document.ParseVersion(string(s)); err == nil && version.Less(v) {
			if err := checkVersion(v); err != nil {
				return nil, err
			}
			version = v
		}
	}

	root, err := pages.Root(catalogDict, r)
	if err != nil {
		return nil, err
	}
	leaves, err := pages.Walk(root, r)
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, errors.New("page tree has no pages")
	}

	c := &collector{
		reader:  r,
		objects: make(map[int]core.Object),
		next:    r.maxObjectNumber() + 1,
	}

	order := make([]int, len(leaves))
	for i, leaf := range leaves {
		num := leaf.Ref.Number
		if _, taken := c.objects[num]; taken || num <= 0 {
			num = c.next
			c.next++
		}
		flat := leaf.Flatten()
		c.objects[num] = flat
		order[i] = num
	}
	for _, num := range order {
		c.enqueue(c.objects[num])
	}

	kept := keptCatalog(catalogDict)
	c.enqueue(kept)

	info, err := r.GetInfo()
	if err != nil {
		return nil, err
	}
	if info != nil {
		info = info.Clone()
		c.enqueue(info)
	}

	if err := c.run(); err != nil {
		return nil, err
	}

	id, _ := r.trailer.Get("ID").(core.Array)

	return document.New(document.Contents{
		PDFVersion: version,
		Objects:    c.objects,
		Pages:      order,
		Catalog:    kept,
		Info:       info,
		ID:         id,
		FirstID:    firstPageID,
	})
}

// keptCatalog copies the page-independent catalog entries. An outline
// display mode is dropped along with the outline itself.
func keptCatalog(catalog core.Dict) core.Dict {
	kept := core.Dict{}
	for _, key := range catalogKeys {
		if v, ok := catalog[key]; ok {
			kept[key] = v
		}
	}
	if mode, ok := kept.GetName("PageMode"); ok && mode == "UseOutlines" {
		delete(kept, "PageMode")
	}
	return kept
}

// collector loads objects breadth-first from a set of roots.
type collector struct {
	reader  *Reader
	objects map[int]core.Object
	queue   []int
	next    int
}

func (c *collector) enqueue(obj core.Object) {
	core.Refs(obj, func(ref core.IndirectRef) {
		c.queue = append(c.queue, ref.Number)
	})
}

func (c *collector) run() error {
	for len(c.queue) > 0 {
		num := c.queue[0]
		c.queue = c.queue[1:]
		if _, seen := c.objects[num]; seen {
			continue
		}
		obj, err := c.reader.GetObject(num)
		if err != nil {
			return err
		}
		if _, isNull := obj.(core.Null); isNull {
			continue
		}
		c.objects[num] = obj
		c.enqueue(obj)
	}
	return nil
}
