package reader

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/document"
	"github.com/tsawler/pdfedit/pages"
)

// headerWindow is how far into the file the %PDF- marker is searched for.
const headerWindow = 1024

// Reader gives access to the objects of one PDF file held in memory.
type Reader struct {
	data     []byte
	version  document.Version
	xref     *core.XRefTable
	trailer  core.Dict
	objCache map[int]core.Object
	objStms  map[int]*core.ObjectStream
	loading  map[int]bool
	repaired bool
}

var _ pages.Resolver = (*Reader)(nil)

// NewReader parses the header and cross-reference data of a PDF file. The
// reader keeps data and must not outlive it; objects it returns do not
// alias data.
func NewReader(data []byte) (*Reader, error) {
	return newReader(data, false)
}

// newReader optionally skips the xref sections and rebuilds the table by
// scanning.
func newReader(data []byte, repair bool) (*Reader, error) {
	start, version, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	// Offsets are taken relative to the header when junk precedes it.
	r := &Reader{
		data:     data[start:],
		version:  version,
		objCache: make(map[int]core.Object),
		objStms:  make(map[int]*core.ObjectStream),
		loading:  make(map[int]bool),
	}

	var table *core.XRefTable
	if !repair {
		table, err = core.NewXRefParser(r.data).ParseAll()
	}
	if repair || err != nil || !hasRoot(table) {
		table, err = rebuildXRef(r.data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
		}
		r.repaired = true
	}
	r.xref = table
	r.trailer = table.Trailer

	if r.trailer.Has("Encrypt") {
		return nil, ErrEncryptedDocument
	}
	return r, nil
}

func hasRoot(table *core.XRefTable) bool {
	_, ok := table.Trailer.GetIndirectRef("Root")
	return ok
}

var headerPattern = regexp.MustCompile(`^%PDF-(\d+\.\d+)`)

// parseHeader finds the %PDF-x.y marker and returns its offset and version.
func parseHeader(data []byte) (int, document.Version, error) {
	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	start := bytes.Index(window, []byte("%PDF-"))
	if start < 0 {
		return 0, document.Version{}, fmt.Errorf("%w: missing %%PDF- header", ErrCorruptDocument)
	}

	m := headerPattern.FindSubmatch(data[start:])
	if m == nil {
		return 0, document.Version{}, fmt.Errorf("%w: invalid PDF header", ErrCorruptDocument)
	}
	version, err := document.ParseVersion(string(m[1]))
	if err != nil {
		return 0, document.Version{}, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	if err := checkVersion(version); err != nil {
		return 0, document.Version{}, err
	}
	return start, version, nil
}

func checkVersion(v document.Version) error {
	if v.Less(document.Version{Major: 1, Minor: 0}) || document.MaxSupported.Less(v) {
		return fmt.Errorf("%w: %v", ErrUnsupportedVersion, v)
	}
	return nil
}

// Version returns the header version
func (r *Reader) Version() document.Version {
	return r.version
}

// Trailer returns the merged trailer dictionary
func (r *Reader) Trailer() core.Dict {
	return r.trailer
}

// Repaired reports whether the xref had to be rebuilt by scanning.
func (r *Reader) Repaired() bool {
	return r.repaired
}

// GetObject loads an object by its number. Objects that are free or
// absent from the xref are null.
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	if obj, ok := r.objCache[objNum]; ok {
		return obj, nil
	}
	if r.loading[objNum] {
		return nil, fmt.Errorf("object %d refers to itself while loading", objNum)
	}
	r.loading[objNum] = true
	defer delete(r.loading, objNum)

	entry, ok := r.xref.Get(objNum)
	if !ok || objNum <= 0 {
		r.objCache[objNum] = core.Null{}
		return core.Null{}, nil
	}

	var obj core.Object
	var err error
	switch entry.Kind {
	case core.EntryInUse:
		obj, err = r.parseAt(objNum, entry.Offset)
	case core.EntryCompressed:
		obj, err = r.parseCompressed(objNum, entry.Stream)
	default:
		obj = core.Null{}
	}
	if err != nil {
		return nil, err
	}

	r.objCache[objNum] = obj
	return obj, nil
}

func (r *Reader) parseAt(objNum int, offset int64) (core.Object, error) {
	if offset < 0 || offset >= int64(len(r.data)) {
		return nil, fmt.Errorf("object %d offset %d outside file", objNum, offset)
	}

	parser := core.NewParser(r.data)
	parser.SetReferenceResolver(r)
	parser.Seek(int(offset))
	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %d: %w", objNum, err)
	}
	if indObj.Ref.Number != objNum {
		return nil, fmt.Errorf("object number mismatch: expected %d, got %d", objNum, indObj.Ref.Number)
	}
	return indObj.Object, nil
}

func (r *Reader) parseCompressed(objNum, streamNum int) (core.Object, error) {
	os, ok := r.objStms[streamNum]
	if !ok {
		obj, err := r.GetObject(streamNum)
		if err != nil {
			return nil, fmt.Errorf("failed to load object stream %d: %w", streamNum, err)
		}
		stream, isStream := obj.(*core.Stream)
		if !isStream {
			return nil, fmt.Errorf("object stream %d is %T", streamNum, obj)
		}
		os, err = core.NewObjectStream(stream)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", streamNum, err)
		}
		r.objStms[streamNum] = os
	}

	obj, err := os.GetObject(objNum)
	if err != nil {
		return nil, fmt.Errorf("failed to load object %d from stream %d: %w", objNum, streamNum, err)
	}
	return obj, nil
}

// ResolveReference resolves an indirect reference
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// Resolve follows obj if it is an indirect reference.
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.ResolveReference(ref)
	}
	return obj, nil
}

// GetCatalog returns the document catalog (root object)
func (r *Reader) GetCatalog() (core.Dict, error) {
	ref, ok := r.trailer.GetIndirectRef("Root")
	if !ok {
		return nil, fmt.Errorf("trailer missing /Root reference")
	}

	obj, err := r.ResolveReference(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog: %w", err)
	}
	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is not a dictionary: %T", obj)
	}
	return catalog, nil
}

// GetInfo returns the document info dictionary, or nil when absent.
func (r *Reader) GetInfo() (core.Dict, error) {
	infoObj := r.trailer.Get("Info")
	if infoObj == nil {
		return nil, nil
	}

	obj, err := r.Resolve(infoObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve info: %w", err)
	}
	info, _ := obj.(core.Dict)
	return info, nil
}

// PageCount returns the number of leaf pages in the page tree.
func (r *Reader) PageCount() (int, error) {
	catalog, err := r.GetCatalog()
	if err != nil {
		return 0, err
	}
	root, err := pages.Root(catalog, r)
	if err != nil {
		return 0, err
	}
	leaves, err := pages.Walk(root, r)
	if err != nil {
		return 0, err
	}
	return len(leaves), nil
}

// maxObjectNumber returns the highest object number the file knows of.
func (r *Reader) maxObjectNumber() int {
	max := 0
	for num := range r.xref.Entries {
		if num > max {
			max = num
		}
	}
	if size, ok := r.trailer.GetInt("Size"); ok && int(size)-1 > max {
		max = int(size) - 1
	}
	return max
}
