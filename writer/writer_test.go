package writer

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/document"
	"github.com/tsawler/pdfedit/internal/pdftest"
	"github.com/tsawler/pdfedit/reader"
)

func load(t *testing.T, data []byte) *document.Document {
	t.Helper()
	doc, err := reader.LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	return doc
}

func serialize(t *testing.T, doc *document.Document) []byte {
	t.Helper()
	out, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	return out
}

func objectAt(t *testing.T, data []byte, num int) core.Object {
	t.Helper()
	r, err := reader.NewReader(data)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	obj, err := r.GetObject(num)
	if err != nil {
		t.Fatalf("GetObject(%d) error = %v", num, err)
	}
	return obj
}

// TestSerializeRoundTrip tests that written files load back with the same pages
func TestSerializeRoundTrip(t *testing.T) {
	labels := []string{"A", "B", "C", "D", "E"}
	tests := []struct {
		name string
		opts pdftest.Options
	}{
		{"classic", pdftest.Options{}},
		{"xref stream", pdftest.Options{XRefStream: true}},
		{"nested", pdftest.Options{Nested: true, Compress: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := serialize(t, load(t, pdftest.Build(labels, tt.opts)))

			again := load(t, out)
			got, err := pdftest.Labels(again)
			if err != nil {
				t.Fatalf("Labels() error = %v", err)
			}
			if !reflect.DeepEqual(got, labels) {
				t.Errorf("labels = %v, want %v", got, labels)
			}

			conf := model.NewDefaultConfiguration()
			count, err := api.PageCount(bytes.NewReader(out), conf)
			if err != nil {
				t.Fatalf("pdfcpu PageCount() error = %v", err)
			}
			if count != len(labels) {
				t.Errorf("pdfcpu PageCount() = %d, want %d", count, len(labels))
			}
			if err := api.Validate(bytes.NewReader(out), conf); err != nil {
				t.Errorf("pdfcpu Validate() error = %v", err)
			}
		})
	}
}

// TestSerializeLayout tests the numbering of the written objects
func TestSerializeLayout(t *testing.T) {
	out := serialize(t, load(t, pdftest.Build([]string{"A", "B"}, pdftest.Options{Nested: true})))

	if !bytes.HasPrefix(out, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")) {
		t.Errorf("header = %q", out[:16])
	}
	if !bytes.HasSuffix(out, []byte("%%EOF\n")) {
		t.Errorf("file does not end with %%%%EOF")
	}

	catalog := objectAt(t, out, 1).(core.Dict)
	if ref, _ := catalog.GetIndirectRef("Pages"); ref.Number != 2 {
		t.Errorf("catalog /Pages = %v, want 2 0 R", catalog.Get("Pages"))
	}

	root := objectAt(t, out, 2).(core.Dict)
	want := core.Array{core.IndirectRef{Number: 3}, core.IndirectRef{Number: 4}}
	if kids, _ := root.GetArray("Kids"); !reflect.DeepEqual(kids, want) {
		t.Errorf("root /Kids = %v, want %v", kids, want)
	}
	if count, _ := root.GetInt("Count"); count != 2 {
		t.Errorf("root /Count = %d, want 2", count)
	}

	page := objectAt(t, out, 3).(core.Dict)
	if ref, _ := page.GetIndirectRef("Parent"); ref.Number != 2 {
		t.Errorf("page /Parent = %v, want 2 0 R", page.Get("Parent"))
	}
	if !page.Has("MediaBox") {
		t.Error("page lost its inherited /MediaBox")
	}
}

// pagedDoc builds a two page document whose first page links to the second.
func pagedDoc(t *testing.T) *document.Document {
	t.Helper()
	box := core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)}
	doc, err := document.New(document.Contents{
		PDFVersion: document.Version{Major: 1, Minor: 6},
		Objects: map[int]core.Object{
			10: core.Dict{
				"Type":     core.Name("Page"),
				"MediaBox": box,
				"Annots":   core.Array{core.IndirectRef{Number: 20}},
				"Contents": core.IndirectRef{Number: 99},
			},
			11: core.Dict{"Type": core.Name("Page"), "MediaBox": box},
			20: core.Dict{
				"Type":    core.Name("Annot"),
				"Subtype": core.Name("Link"),
				"P":       core.IndirectRef{Number: 10},
				"Dest":    core.Array{core.IndirectRef{Number: 11}, core.Name("Fit")},
			},
			30: core.Dict{"Type": core.Name("Catalog")},
		},
		Pages: []int{10, 11},
		Catalog: core.Dict{
			"Lang":     core.String("en-US"),
			"PageMode": core.Name("UseOutlines"),
		},
		Info: core.Dict{"Title": core.String("Linked")},
		ID:   core.Array{core.String("first-id-bytes!!"), core.String("second-id-bytes!")},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return doc
}

// TestSerializeReferences tests how references to dropped objects are written
func TestSerializeReferences(t *testing.T) {
	doc := pagedDoc(t)
	draft := doc.Draft()
	draft.RemovePage(doc.Pages().IDs()[1])
	doc, err := draft.Commit()
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	out := serialize(t, doc)
	r, err := reader.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	// catalog, root, page, annotation, info
	if size, _ := r.Trailer().GetInt("Size"); size != 6 {
		t.Errorf("trailer /Size = %d, want 6", size)
	}

	page, _ := r.GetObject(3)
	// null dictionary values read back as absent
	if !bytes.Contains(out, []byte("/Contents null")) {
		t.Error("missing contents not written as null")
	}
	if page.(core.Dict).Has("Contents") {
		t.Errorf("reloaded /Contents = %v, want absent", page.(core.Dict).Get("Contents"))
	}

	annots, _ := page.(core.Dict).GetArray("Annots")
	annot, _ := r.Resolve(annots[0])
	dict := annot.(core.Dict)
	if ref, _ := dict.GetIndirectRef("P"); ref.Number != 3 {
		t.Errorf("annotation /P = %v, want 3 0 R", dict.Get("P"))
	}
	dest, _ := dict.GetArray("Dest")
	if _, ok := dest[0].(core.Null); !ok {
		t.Errorf("destination to deleted page = %v, want null", dest[0])
	}
}

// TestSerializeTrailer tests the catalog, info and ID written
func TestSerializeTrailer(t *testing.T) {
	out := serialize(t, pagedDoc(t))
	r, err := reader.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if got := r.Version(); got != (document.Version{Major: 1, Minor: 6}) {
		t.Errorf("Version() = %v, want 1.6", got)
	}

	catalog, err := r.GetCatalog()
	if err != nil {
		t.Fatalf("GetCatalog() error = %v", err)
	}
	if lang, _ := catalog.GetString("Lang"); lang != "en-US" {
		t.Errorf("catalog /Lang = %q", lang)
	}
	if catalog.Has("PageMode") {
		t.Error("catalog kept /PageMode /UseOutlines")
	}

	info, err := r.GetInfo()
	if err != nil || info == nil {
		t.Fatalf("GetInfo() = %v, %v", info, err)
	}
	if title, _ := info.GetString("Title"); title != "Linked" {
		t.Errorf("info /Title = %q", title)
	}

	id, _ := r.Trailer().GetArray("ID")
	if len(id) != 2 {
		t.Fatalf("trailer /ID = %v", id)
	}
	if first, _ := id[0].(core.String); first != "first-id-bytes!!" {
		t.Errorf("first ID = %q, want the original", first)
	}
	if second, _ := id[1].(core.String); len(second) != 16 || second == "second-id-bytes!" {
		t.Errorf("second ID = %q, want a fresh 16 byte hash", second)
	}
}

// TestSerializeWithoutID tests that a file without /ID gets one
func TestSerializeWithoutID(t *testing.T) {
	doc, err := document.New(document.Contents{
		Objects: map[int]core.Object{1: core.Dict{"Type": core.Name("Page")}},
		Pages:   []int{1},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out := serialize(t, doc)
	if !bytes.HasPrefix(out, []byte("%PDF-1.4")) {
		t.Errorf("header = %q, want the default version", out[:8])
	}
	r, err := reader.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	id, _ := r.Trailer().GetArray("ID")
	if len(id) != 2 || id[0] != id[1] {
		t.Errorf("trailer /ID = %v, want two equal hashes", id)
	}
	if r.Trailer().Has("Info") {
		t.Error("trailer has /Info for a document without one")
	}
}

// TestSerializeDeterministic tests that equal snapshots serialize identically
func TestSerializeDeterministic(t *testing.T) {
	doc := load(t, pdftest.Build([]string{"A", "B", "C"}, pdftest.Options{}))
	first := serialize(t, doc)
	second := serialize(t, doc)
	if !bytes.Equal(first, second) {
		t.Error("two serializations of one snapshot differ")
	}
}

// TestWriteTo tests the io.Writer form
func TestWriteTo(t *testing.T) {
	doc := load(t, pdftest.Build([]string{"A"}, pdftest.Options{}))

	var buf bytes.Buffer
	n, err := WriteTo(&buf, doc)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() = %d, wrote %d", n, buf.Len())
	}
	if !bytes.Equal(buf.Bytes(), serialize(t, doc)) {
		t.Error("WriteTo() output differs from Serialize()")
	}

	if _, err := Serialize(nil); !errors.Is(err, ErrSerializeFailure) {
		t.Errorf("Serialize(nil) error = %v, want ErrSerializeFailure", err)
	}
}
