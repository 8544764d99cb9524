// Package pdftest builds small, well-formed PDF files for tests. Every
// page shows a single label in its content stream, so page identity can
// be checked after documents are loaded, edited and written back.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/document"
)

// Options selects the file layout Build produces.
type Options struct {
	// Version is the header version; "1.4" when empty.
	Version string
	// XRefStream stores non-stream objects in an object stream indexed by
	// a cross-reference stream instead of a classic table.
	XRefStream bool
	// Nested groups pages under intermediate /Pages nodes of two kids each.
	// The media box is then inherited from the intermediate nodes.
	Nested bool
	// Compress flate-encodes the page content streams.
	Compress bool
	// Encrypt adds a standard security handler dictionary to the trailer.
	Encrypt bool
	// Title is written to the information dictionary.
	Title string
	// CatalogVersion, when set, is written as the catalog /Version.
	CatalogVersion string
	// Prefix is written before the header.
	Prefix string
}

// Fixed object numbers in every generated file.
const (
	CatalogObject   = 1
	PagesObject     = 2
	ResourcesObject = 3
	FontObject      = 4
	InfoObject      = 5
)

// PageObject returns the object number of the i-th page dictionary.
func PageObject(i int) int { return 6 + 2*i }

// ContentObject returns the object number of the i-th page's content stream.
func ContentObject(i int) int { return 7 + 2*i }

// Content returns the content stream that displays label.
func Content(label string) string {
	return fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", label)
}

type object struct {
	num    int
	body   string
	stream []byte
}

// Build returns a PDF with one page per label.
func Build(labels []string, opts Options) []byte {
	version := opts.Version
	if version == "" {
		version = "1.4"
	}

	var objs []object
	add := func(num int, body string) {
		objs = append(objs, object{num: num, body: body})
	}

	catalog := "<< /Type /Catalog /Pages 2 0 R /PageLayout /SinglePage"
	if opts.CatalogVersion != "" {
		catalog += " /Version /" + opts.CatalogVersion
	}
	add(CatalogObject, catalog+" >>")
	add(ResourcesObject, "<< /Font << /F1 4 0 R >> >>")
	add(FontObject, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	add(InfoObject, fmt.Sprintf("<< /Title (%s) /Producer (pdftest) >>", opts.Title))

	next := PageObject(len(labels))
	leafParent := make([]int, len(labels))
	var rootKids []string
	if opts.Nested {
		for i := 0; i < len(labels); i += 2 {
			node := next
			next++
			var kids []string
			for j := i; j < i+2 && j < len(labels); j++ {
				kids = append(kids, ref(PageObject(j)))
				leafParent[j] = node
			}
			add(node, fmt.Sprintf("<< /Type /Pages /Parent 2 0 R /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
				strings.Join(kids, " "), len(kids)))
			rootKids = append(rootKids, ref(node))
		}
		add(PagesObject, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /Resources 3 0 R >>",
			strings.Join(rootKids, " "), len(labels)))
	} else {
		for i := range labels {
			leafParent[i] = PagesObject
			rootKids = append(rootKids, ref(PageObject(i)))
		}
		add(PagesObject, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] /Resources 3 0 R >>",
			strings.Join(rootKids, " "), len(labels)))
	}

	for i, label := range labels {
		add(PageObject(i), fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Contents %d 0 R >>", leafParent[i], ContentObject(i)))

		data := []byte(Content(label))
		dict := "<<"
		if opts.Compress {
			data = deflate(data)
			dict += " /Filter /FlateDecode"
		}
		objs = append(objs, object{num: ContentObject(i), body: dict + fmt.Sprintf(" /Length %d >>", len(data)), stream: data})
	}

	encrypt := 0
	if opts.Encrypt {
		encrypt = next
		next++
		add(encrypt, "<< /Filter /Standard /V 1 /R 2 /O <00> /U <00> /P -4 >>")
	}

	sort.Slice(objs, func(i, j int) bool { return objs[i].num < objs[j].num })

	trailer := "/Root 1 0 R /Info 5 0 R /ID [<0123456789ABCDEF0123456789ABCDEF> <0123456789ABCDEF0123456789ABCDEF>]"
	if encrypt != 0 {
		trailer += fmt.Sprintf(" /Encrypt %d 0 R", encrypt)
	}

	var buf bytes.Buffer
	buf.WriteString(opts.Prefix)
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	if opts.XRefStream {
		writeCompressed(&buf, objs, next, trailer)
	} else {
		writeClassic(&buf, objs, next, trailer)
	}
	return buf.Bytes()
}

func ref(num int) string {
	return fmt.Sprintf("%d 0 R", num)
}

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// writeClassic writes every object at top level followed by an xref table.
// Offsets are relative to the header, so a prefix does not shift them.
func writeClassic(buf *bytes.Buffer, objs []object, size int, trailer string) {
	base := bytes.Index(buf.Bytes(), []byte("%PDF-"))
	offsets := make(map[int]int, len(objs))
	for _, obj := range objs {
		offsets[obj.num] = buf.Len() - base
		writeObject(buf, obj)
	}

	xref := buf.Len() - base
	fmt.Fprintf(buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for num := 1; num < size; num++ {
		if off, ok := offsets[num]; ok {
			fmt.Fprintf(buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 00000 f \n")
		}
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", size, trailer, xref)
}

// writeCompressed packs non-stream objects into one object stream and
// indexes everything with a cross-reference stream.
func writeCompressed(buf *bytes.Buffer, objs []object, next int, trailer string) {
	base := bytes.Index(buf.Bytes(), []byte("%PDF-"))
	objstm := next
	xrefNum := next + 1
	size := next + 2

	type entry struct{ kind, f1, f2 int }
	entries := make(map[int]entry)

	var header, body bytes.Buffer
	index := 0
	for _, obj := range objs {
		if obj.stream != nil {
			continue
		}
		fmt.Fprintf(&header, "%d %d ", obj.num, body.Len())
		body.WriteString(obj.body)
		body.WriteByte('\n')
		entries[obj.num] = entry{2, objstm, index}
		index++
	}

	for _, obj := range objs {
		if obj.stream == nil {
			continue
		}
		entries[obj.num] = entry{1, buf.Len() - base, 0}
		writeObject(buf, obj)
	}

	packed := deflate(append(header.Bytes(), body.Bytes()...))
	entries[objstm] = entry{1, buf.Len() - base, 0}
	writeObject(buf, object{
		num:    objstm,
		body:   fmt.Sprintf("<< /Type /ObjStm /N %d /First %d /Filter /FlateDecode /Length %d >>", index, header.Len(), len(packed)),
		stream: packed,
	})

	xref := buf.Len() - base
	entries[xrefNum] = entry{1, xref, 0}
	var table []byte
	for num := 0; num < size; num++ {
		e, ok := entries[num]
		if !ok {
			table = append(table, 0, 0, 0, 0, 0, 0, 0)
			continue
		}
		table = append(table, byte(e.kind), byte(e.f1>>24), byte(e.f1>>16), byte(e.f1>>8), byte(e.f1), byte(e.f2>>8), byte(e.f2))
	}
	packed = deflate(table)
	writeObject(buf, object{
		num: xrefNum,
		body: fmt.Sprintf("<< /Type /XRef /Size %d /W [1 4 2] /Filter /FlateDecode /Length %d %s >>",
			size, len(packed), trailer),
		stream: packed,
	})
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", xref)
}

func writeObject(buf *bytes.Buffer, obj object) {
	fmt.Fprintf(buf, "%d 0 obj\n%s\n", obj.num, obj.body)
	if obj.stream != nil {
		buf.WriteString("stream\n")
		buf.Write(obj.stream)
		buf.WriteString("\nendstream\n")
	}
	buf.WriteString("endobj\n")
}

// Update appends an incremental update to a classic file produced by
// Build. objects maps object numbers to their new bodies; a body starting
// with "stream:" becomes a content stream holding the rest of the text.
func Update(base []byte, objects map[int]string) []byte {
	prev := lastStartXRef(base)
	size := lastSize(base)
	nums := make([]int, 0, len(objects))
	for num := range objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	var buf bytes.Buffer
	buf.Write(base)
	offsets := make(map[int]int)
	for _, num := range nums {
		offsets[num] = buf.Len()
		body := objects[num]
		if data, ok := strings.CutPrefix(body, "stream:"); ok {
			writeObject(&buf, object{num: num, body: fmt.Sprintf("<< /Length %d >>", len(data)), stream: []byte(data)})
		} else {
			writeObject(&buf, object{num: num, body: body})
		}
		if num >= size {
			size = num + 1
		}
	}

	xref := buf.Len()
	buf.WriteString("xref\n")
	for _, num := range nums {
		fmt.Fprintf(&buf, "%d 1\n%010d 00000 n \n", num, offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", size, prev, xref)
	return buf.Bytes()
}

func lastStartXRef(data []byte) int {
	idx := bytes.LastIndex(data, []byte("startxref"))
	var off int
	fmt.Sscanf(string(data[idx+len("startxref"):]), "%d", &off)
	return off
}

var sizePattern = regexp.MustCompile(`/Size (\d+)`)

func lastSize(data []byte) int {
	matches := sizePattern.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return 0
	}
	var size int
	fmt.Sscanf(string(matches[len(matches)-1][1]), "%d", &size)
	return size
}

var labelPattern = regexp.MustCompile(`\((.*?)\) Tj`)

// Labels returns the label shown by each page of doc, in order. Pages
// without content, such as inserted blank pages, have an empty label.
func Labels(doc *document.Document) ([]string, error) {
	refs := doc.Pages().Refs()
	out := make([]string, len(refs))
	for i, pageRef := range refs {
		obj, _ := doc.Object(pageRef.Object)
		dict, ok := obj.(core.Dict)
		if !ok {
			return nil, fmt.Errorf("page %d: object %d is %T", i, pageRef.Object, obj)
		}
		contents, _ := doc.Resolve(dict.Get("Contents"))
		stream, ok := contents.(*core.Stream)
		if !ok {
			continue
		}
		data, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if m := labelPattern.FindSubmatch(data); m != nil {
			out[i] = string(m[1])
		}
	}
	return out, nil
}
