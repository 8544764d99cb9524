package reader

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/document"
	"github.com/tsawler/pdfedit/internal/pdftest"
	"github.com/tsawler/pdfedit/source"
)

func mustLabels(t *testing.T, doc *document.Document) []string {
	t.Helper()
	labels, err := pdftest.Labels(doc)
	if err != nil {
		t.Fatalf("Labels() error = %v", err)
	}
	return labels
}

// TestLoadLayouts tests loading the file layouts the builder produces
func TestLoadLayouts(t *testing.T) {
	labels := []string{"A", "B", "C"}
	tests := []struct {
		name string
		opts pdftest.Options
	}{
		{"classic", pdftest.Options{}},
		{"xref stream", pdftest.Options{XRefStream: true}},
		{"nested", pdftest.Options{Nested: true}},
		{"compressed content", pdftest.Options{Compress: true}},
		{"everything", pdftest.Options{XRefStream: true, Nested: true, Compress: true}},
		{"leading garbage", pdftest.Options{Prefix: "garbage before header\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := LoadBytes(pdftest.Build(labels, tt.opts))
			if err != nil {
				t.Fatalf("LoadBytes() error = %v", err)
			}
			if got := mustLabels(t, doc); !reflect.DeepEqual(got, labels) {
				t.Errorf("labels = %v, want %v", got, labels)
			}
			if doc.Version() != 0 {
				t.Errorf("Version() = %d, want 0", doc.Version())
			}
			if got := doc.PDFVersion(); got != (document.Version{Major: 1, Minor: 4}) {
				t.Errorf("PDFVersion() = %v, want 1.4", got)
			}
		})
	}
}

// TestLoadFlattensPages tests that inherited attributes move onto each page
func TestLoadFlattensPages(t *testing.T) {
	doc, err := LoadBytes(pdftest.Build([]string{"A", "B", "C"}, pdftest.Options{Nested: true}))
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}

	for i, ref := range doc.Pages().Refs() {
		obj, _ := doc.Object(ref.Object)
		dict := obj.(core.Dict)
		if dict.Has("Parent") {
			t.Errorf("page %d still has /Parent", i)
		}
		if !dict.Has("MediaBox") || !dict.Has("Resources") {
			t.Errorf("page %d = %v, want inherited MediaBox and Resources", i, dict)
		}
		if name, _ := dict.GetName("Type"); name != "Page" {
			t.Errorf("page %d /Type = %v", i, name)
		}
		w, h, ok := doc.Pages().PageSize(ref.ID)
		if !ok || w != 612 || h != 792 {
			t.Errorf("PageSize(%v) = %v, %v, %v", ref.ID, w, h, ok)
		}
	}

	// Intermediate nodes are not carried into the snapshot.
	for _, num := range doc.ObjectNumbers() {
		obj, _ := doc.Object(num)
		if dict, ok := obj.(core.Dict); ok {
			if name, _ := dict.GetName("Type"); name == "Pages" {
				t.Errorf("object %d is a /Pages node", num)
			}
		}
	}
}

// TestLoadMetadata tests the catalog, info and ID carried by a snapshot
func TestLoadMetadata(t *testing.T) {
	doc, err := LoadBytes(pdftest.Build([]string{"A"}, pdftest.Options{Title: "Report"}))
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}

	if got := doc.Info().Title; got != "Report" {
		t.Errorf("Info().Title = %q, want Report", got)
	}
	catalog := doc.Catalog()
	if layout, _ := catalog.GetName("PageLayout"); layout != "SinglePage" {
		t.Errorf("catalog PageLayout = %q", layout)
	}
	if catalog.Has("Pages") || catalog.Has("Type") {
		t.Errorf("catalog = %v, want page-independent entries only", catalog)
	}
	if len(doc.ID()) != 2 {
		t.Errorf("ID() = %v, want two elements", doc.ID())
	}
}

// TestKeptCatalog tests filtering of catalog entries
func TestKeptCatalog(t *testing.T) {
	catalog := core.Dict{
		"Type":       core.Name("Catalog"),
		"Pages":      core.IndirectRef{Number: 2},
		"Outlines":   core.IndirectRef{Number: 9},
		"PageMode":   core.Name("UseOutlines"),
		"Lang":       core.String("en"),
		"PageLayout": core.Name("TwoColumnLeft"),
	}
	got := keptCatalog(catalog)
	want := core.Dict{"Lang": core.String("en"), "PageLayout": core.Name("TwoColumnLeft")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keptCatalog() = %v, want %v", got, want)
	}

	got = keptCatalog(core.Dict{"PageMode": core.Name("UseThumbs")})
	if mode, _ := got.GetName("PageMode"); mode != "UseThumbs" {
		t.Errorf("PageMode = %q, want UseThumbs", mode)
	}
}

// TestLoadIncrementalUpdate tests that newer revisions win
func TestLoadIncrementalUpdate(t *testing.T) {
	base := pdftest.Build([]string{"A", "B", "C"}, pdftest.Options{})

	t.Run("replaced content", func(t *testing.T) {
		data := pdftest.Update(base, map[int]string{
			pdftest.ContentObject(1): "stream:" + pdftest.Content("B2"),
		})
		doc, err := LoadBytes(data)
		if err != nil {
			t.Fatalf("LoadBytes() error = %v", err)
		}
		if got, want := mustLabels(t, doc), []string{"A", "B2", "C"}; !reflect.DeepEqual(got, want) {
			t.Errorf("labels = %v, want %v", got, want)
		}
	})

	t.Run("reordered kids", func(t *testing.T) {
		data := pdftest.Update(base, map[int]string{
			pdftest.PagesObject: "<< /Type /Pages /Kids [10 0 R 6 0 R] /Count 2 /MediaBox [0 0 612 792] /Resources 3 0 R >>",
		})
		doc, err := LoadBytes(data)
		if err != nil {
			t.Fatalf("LoadBytes() error = %v", err)
		}
		if got, want := mustLabels(t, doc), []string{"C", "A"}; !reflect.DeepEqual(got, want) {
			t.Errorf("labels = %v, want %v", got, want)
		}
	})

	t.Run("shared leaf", func(t *testing.T) {
		data := pdftest.Update(base, map[int]string{
			pdftest.PagesObject: "<< /Type /Pages /Kids [6 0 R 6 0 R] /Count 2 /MediaBox [0 0 612 792] /Resources 3 0 R >>",
		})
		doc, err := LoadBytes(data)
		if err != nil {
			t.Fatalf("LoadBytes() error = %v", err)
		}
		if got, want := mustLabels(t, doc), []string{"A", "A"}; !reflect.DeepEqual(got, want) {
			t.Errorf("labels = %v, want %v", got, want)
		}
		refs := doc.Pages().Refs()
		if refs[0].Object == refs[1].Object {
			t.Errorf("both pages use object %d", refs[0].Object)
		}
	})
}

// TestLoadRepair tests loading files whose xref data is damaged
func TestLoadRepair(t *testing.T) {
	base := pdftest.Build([]string{"A", "B"}, pdftest.Options{})

	tests := []struct {
		name   string
		damage func([]byte) []byte
	}{
		{
			name: "bad startxref",
			damage: func(data []byte) []byte {
				i := bytes.LastIndex(data, []byte("startxref"))
				out := append([]byte{}, data[:i]...)
				return append(out, "startxref\n3\n%%EOF\n"...)
			},
		},
		{
			name: "xref and trailer missing",
			damage: func(data []byte) []byte {
				i := bytes.LastIndex(data, []byte("xref\n0 "))
				return append([]byte{}, data[:i]...)
			},
		},
		{
			name: "shifted offsets",
			damage: func(data []byte) []byte {
				i := bytes.IndexByte(data, '\n') + 1
				out := append([]byte{}, data[:i]...)
				out = append(out, "% an inserted comment line\n"...)
				return append(out, data[i:]...)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := LoadBytes(tt.damage(base))
			if err != nil {
				t.Fatalf("LoadBytes() error = %v", err)
			}
			if got, want := mustLabels(t, doc), []string{"A", "B"}; !reflect.DeepEqual(got, want) {
				t.Errorf("labels = %v, want %v", got, want)
			}
		})
	}
}

// TestLoadErrors tests the error category of rejected inputs
func TestLoadErrors(t *testing.T) {
	noPages := []byte("%PDF-1.4\n" +
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
		"2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n" +
		"trailer\n<< /Root 1 0 R /Size 3 >>\n%%EOF\n")

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrCorruptDocument},
		{"not a pdf", []byte("hello world"), ErrCorruptDocument},
		{"header only", []byte("%PDF-1.4\n"), ErrCorruptDocument},
		{"bad version", []byte("%PDF-x.y\n"), ErrCorruptDocument},
		{"no pages", noPages, ErrCorruptDocument},
		{"encrypted", pdftest.Build([]string{"A"}, pdftest.Options{Encrypt: true}), ErrEncryptedDocument},
		{"version too new", pdftest.Build([]string{"A"}, pdftest.Options{Version: "2.1"}), ErrUnsupportedVersion},
		{"version too old", pdftest.Build([]string{"A"}, pdftest.Options{Version: "0.9"}), ErrUnsupportedVersion},
		{"catalog version too new", pdftest.Build([]string{"A"}, pdftest.Options{CatalogVersion: "2.1"}), ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("LoadBytes() error = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestLoadVersion tests how the header and catalog versions combine
func TestLoadVersion(t *testing.T) {
	tests := []struct {
		name string
		opts pdftest.Options
		want document.Version
	}{
		{"header", pdftest.Options{Version: "1.7"}, document.Version{Major: 1, Minor: 7}},
		{"pdf 2.0", pdftest.Options{Version: "2.0"}, document.Version{Major: 2, Minor: 0}},
		{"catalog raises", pdftest.Options{Version: "1.4", CatalogVersion: "1.7"}, document.Version{Major: 1, Minor: 7}},
		{"catalog lower", pdftest.Options{Version: "1.6", CatalogVersion: "1.3"}, document.Version{Major: 1, Minor: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := LoadBytes(pdftest.Build([]string{"A"}, tt.opts))
			if err != nil {
				t.Fatalf("LoadBytes() error = %v", err)
			}
			if got := doc.PDFVersion(); got != tt.want {
				t.Errorf("PDFVersion() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLoadDoesNotAlias tests that a snapshot survives its input being reused
func TestLoadDoesNotAlias(t *testing.T) {
	data := pdftest.Build([]string{"A", "B"}, pdftest.Options{})
	buf, err := source.FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	raw := buf.Bytes()

	doc, err := Load(buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for i := range raw {
		raw[i] = 0
	}
	buf.Close()

	if got, want := mustLabels(t, doc), []string{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

// TestLoadReader tests loading from an io.Reader
func TestLoadReader(t *testing.T) {
	data := pdftest.Build([]string{"A"}, pdftest.Options{})

	doc, err := LoadReader(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if doc.Pages().Count() != 1 {
		t.Errorf("Count() = %d, want 1", doc.Pages().Count())
	}

	_, err = LoadReader(iotest.ErrReader(errors.New("disk gone")), 0)
	if !errors.Is(err, ErrIOFailure) {
		t.Errorf("failing reader error = %v, want ErrIOFailure", err)
	}

	_, err = LoadReader(bytes.NewReader(data), 16)
	if !errors.Is(err, source.ErrTooLarge) {
		t.Errorf("limited reader error = %v, want ErrTooLarge", err)
	}

	_, err = LoadReader(strings.NewReader(""), 0)
	if !errors.Is(err, ErrCorruptDocument) {
		t.Errorf("empty reader error = %v, want ErrCorruptDocument", err)
	}
}

// TestWithFirstPageID tests the page id counter option
func TestWithFirstPageID(t *testing.T) {
	data := pdftest.Build([]string{"A", "B"}, pdftest.Options{})

	doc, err := LoadBytes(data, WithFirstPageID(40))
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	if got, want := doc.Pages().IDs(), []document.PageID{40, 41}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}

	doc, err = LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	if got, want := doc.Pages().IDs(), []document.PageID{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
}

// TestReaderObjects tests object level access
func TestReaderObjects(t *testing.T) {
	for _, opts := range []pdftest.Options{{}, {XRefStream: true}} {
		r, err := NewReader(pdftest.Build([]string{"A", "B", "C"}, opts))
		if err != nil {
			t.Fatalf("NewReader() error = %v", err)
		}

		obj, err := r.GetObject(pdftest.FontObject)
		if err != nil {
			t.Fatalf("GetObject() error = %v", err)
		}
		if font, _ := obj.(core.Dict).GetName("BaseFont"); font != "Helvetica" {
			t.Errorf("BaseFont = %q", font)
		}

		missing, err := r.GetObject(9999)
		if err != nil {
			t.Fatalf("GetObject(9999) error = %v", err)
		}
		if _, ok := missing.(core.Null); !ok {
			t.Errorf("GetObject(9999) = %v, want null", missing)
		}

		count, err := r.PageCount()
		if err != nil || count != 3 {
			t.Errorf("PageCount() = %d, %v, want 3", count, err)
		}
		if r.Repaired() {
			t.Error("Repaired() = true for an intact file")
		}
		if r.Trailer().Has("Prev") {
			t.Error("trailer still carries /Prev")
		}
	}
}

// TestRebuildXRef tests the scanning repair directly
func TestRebuildXRef(t *testing.T) {
	data := pdftest.Build([]string{"A", "B"}, pdftest.Options{XRefStream: true})
	table, err := rebuildXRef(data)
	if err != nil {
		t.Fatalf("rebuildXRef() error = %v", err)
	}

	entry, ok := table.Get(pdftest.CatalogObject)
	if !ok || entry.Kind != core.EntryCompressed {
		t.Errorf("catalog entry = %+v, want a compressed entry", entry)
	}
	if ref, ok := table.Trailer.GetIndirectRef("Root"); !ok || ref.Number != pdftest.CatalogObject {
		t.Errorf("trailer Root = %v", table.Trailer.Get("Root"))
	}
	if table.Trailer.Has("W") || table.Trailer.Has("Filter") {
		t.Errorf("trailer = %v, want stream keys removed", table.Trailer)
	}

	if _, err := rebuildXRef([]byte("%PDF-1.4\nnothing here")); err == nil {
		t.Error("rebuildXRef() on a file without objects should fail")
	}
}
