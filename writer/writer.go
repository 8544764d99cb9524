package writer

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"

	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/document"
)

const (
	catalogNum = 1
	pagesNum   = 2
)

var defaultVersion = document.Version{Major: 1, Minor: 4}

// WriteTo serializes doc to w and returns the number of bytes written.
func WriteTo(w io.Writer, doc *document.Document) (int64, error) {
	data, err := Serialize(doc)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Serialize returns doc as a complete PDF file.
func Serialize(doc *document.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrSerializeFailure)
	}
	s := &serializer{
		doc:     doc,
		live:    make(map[int]bool),
		numbers: make(map[int]int),
	}
	return s.serialize()
}

// serializer assigns output numbers in emission order. objs[i] holds
// output object i+1.
type serializer struct {
	doc     *document.Document
	live    map[int]bool
	numbers map[int]int
	objs    []core.Object
	queue   []int
}

func (s *serializer) serialize() ([]byte, error) {
	refs := s.doc.Pages().Refs()
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrSerializeFailure)
	}

	s.objs = make([]core.Object, pagesNum+len(refs))
	kids := make(core.Array, len(refs))
	for i, ref := range refs {
		num := pagesNum + 1 + i
		s.live[ref.Object] = true
		s.numbers[ref.Object] = num
		kids[i] = core.IndirectRef{Number: num}
	}

	for i, ref := range refs {
		obj, ok := s.doc.Object(ref.Object)
		if !ok {
			return nil, fmt.Errorf("%w: page %v: object %d missing", ErrSerializeFailure, ref.ID, ref.Object)
		}
		dict, ok := obj.(core.Dict)
		if !ok {
			return nil, fmt.Errorf("%w: page %v: object %d is %T", ErrSerializeFailure, ref.ID, ref.Object, obj)
		}
		page := s.remap(dict).(core.Dict)
		page["Type"] = core.Name("Page")
		page["Parent"] = core.IndirectRef{Number: pagesNum}
		s.objs[pagesNum+i] = page
	}

	catalog, _ := s.remap(s.doc.Catalog()).(core.Dict)
	if mode, ok := catalog.GetName("PageMode"); ok && mode == "UseOutlines" {
		delete(catalog, "PageMode")
	}
	catalog["Type"] = core.Name("Catalog")
	catalog["Pages"] = core.IndirectRef{Number: pagesNum}
	s.objs[catalogNum-1] = catalog

	s.objs[pagesNum-1] = core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  kids,
		"Count": core.Int(len(refs)),
	}

	infoNum := 0
	if info := s.doc.InfoDict(); info != nil {
		s.objs = append(s.objs, nil)
		infoNum = len(s.objs)
		remapped := s.remap(info)
		s.objs[infoNum-1] = remapped
	}

	s.drain()
	return s.emit(infoNum)
}

// drain copies every queued object, which may queue more.
func (s *serializer) drain() {
	for len(s.queue) > 0 {
		old := s.queue[0]
		s.queue = s.queue[1:]
		obj, _ := s.doc.Object(old)
		// remap may grow s.objs, so it runs before the slot is taken.
		remapped := s.remap(obj)
		s.objs[s.numbers[old]-1] = remapped
	}
}

// number returns the output number for a referenced object, or zero when
// the reference must be written as null.
func (s *serializer) number(old int) int {
	if num, ok := s.numbers[old]; ok {
		return num
	}
	obj, ok := s.doc.Object(old)
	if !ok || s.dropped(obj) {
		return 0
	}
	s.objs = append(s.objs, nil)
	num := len(s.objs)
	s.numbers[old] = num
	s.queue = append(s.queue, old)
	return num
}

// dropped reports whether obj belongs to the old document structure. Live
// pages are numbered up front and never reach this check.
func (s *serializer) dropped(obj core.Object) bool {
	dict, ok := obj.(core.Dict)
	if !ok {
		return false
	}
	switch t, _ := dict.GetName("Type"); t {
	case "Page", "Pages", "Catalog":
		return true
	}
	return false
}

// remap copies obj with references rewritten to output numbers.
func (s *serializer) remap(obj core.Object) core.Object {
	switch v := obj.(type) {
	case core.IndirectRef:
		num := s.number(v.Number)
		if num == 0 {
			return core.Null{}
		}
		return core.IndirectRef{Number: num}
	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			out[i] = s.remap(elem)
		}
		return out
	case core.Dict:
		out := make(core.Dict, len(v))
		for _, key := range v.Keys() {
			out[key] = s.remap(v[key])
		}
		return out
	case *core.Stream:
		dict, _ := s.remap(v.Dict).(core.Dict)
		return &core.Stream{Dict: dict, Data: v.Data}
	case nil:
		return core.Null{}
	default:
		return obj
	}
}

func (s *serializer) emit(infoNum int) ([]byte, error) {
	version := s.doc.PDFVersion()
	if version == (document.Version{}) {
		version = defaultVersion
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%v\n%%\xe2\xe3\xcf\xd3\n", version)

	offsets := make([]int, len(s.objs))
	for i, obj := range s.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		if err := core.WriteObject(&buf, obj); err != nil {
			return nil, fmt.Errorf("%w: object %d: %w", ErrSerializeFailure, i+1, err)
		}
		buf.WriteString("\nendobj\n")
	}
	body := md5.Sum(buf.Bytes())

	xref := buf.Len()
	size := len(s.objs) + 1
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f\r\n", size)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}

	trailer := core.Dict{
		"Size": core.Int(size),
		"Root": core.IndirectRef{Number: catalogNum},
		"ID":   core.Array{s.firstID(body), core.String(body[:])},
	}
	if infoNum > 0 {
		trailer["Info"] = core.IndirectRef{Number: infoNum}
	}

	buf.WriteString("trailer\n")
	if err := core.WriteObject(&buf, trailer); err != nil {
		return nil, fmt.Errorf("%w: trailer: %w", ErrSerializeFailure, err)
	}
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes(), nil
}

// firstID keeps the permanent identifier of the original file, or uses
// the body hash for files that had none.
func (s *serializer) firstID(body [md5.Size]byte) core.String {
	if id := s.doc.ID(); len(id) == 2 {
		if first, ok := id[0].(core.String); ok && len(first) > 0 {
			return first
		}
	}
	return core.String(body[:])
}
