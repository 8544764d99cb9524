package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/document"
	"github.com/tsawler/pdfedit/internal/pdftest"
	"github.com/tsawler/pdfedit/reader"
	"github.com/tsawler/pdfedit/source"
	"github.com/tsawler/pdfedit/writer"
)

func load(t *testing.T, labels []string, opts pdftest.Options) *document.Document {
	t.Helper()
	doc, err := reader.LoadBytes(pdftest.Build(labels, opts))
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	return doc
}

func buffer(t *testing.T, labels []string, opts pdftest.Options) *source.Buffer {
	t.Helper()
	buf, err := source.FromBytes(pdftest.Build(labels, opts))
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	return buf
}

func labelsOf(t *testing.T, doc *document.Document) []string {
	t.Helper()
	labels, err := pdftest.Labels(doc)
	if err != nil {
		t.Fatalf("Labels() error = %v", err)
	}
	return labels
}

func apply(t *testing.T, e *Engine, doc *document.Document, op Operation) *document.Document {
	t.Helper()
	next, err := e.Apply(doc, op)
	if err != nil {
		t.Fatalf("Apply(%v) error = %v", op, err)
	}
	return next
}

// reload serializes doc and loads the result.
func reload(t *testing.T, doc *document.Document) *document.Document {
	t.Helper()
	out, err := writer.Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	again, err := reader.LoadBytes(out)
	if err != nil {
		t.Fatalf("LoadBytes(serialized) error = %v", err)
	}
	return again
}

// TestEditingScenario tests a merge, delete and reorder sequence with a
// reload after every step
func TestEditingScenario(t *testing.T) {
	e := New(Options{})
	doc := load(t, []string{"A", "B", "C"}, pdftest.Options{})

	doc = apply(t, e, doc, Merge{Source: buffer(t, []string{"X", "Y"}, pdftest.Options{XRefStream: true}), Index: End})
	want := []string{"A", "B", "C", "X", "Y"}
	if got := labelsOf(t, doc); !reflect.DeepEqual(got, want) {
		t.Fatalf("after merge labels = %v, want %v", got, want)
	}
	if got := labelsOf(t, reload(t, doc)); !reflect.DeepEqual(got, want) {
		t.Errorf("after merge reloaded labels = %v, want %v", got, want)
	}

	ids := doc.Pages().IDs()
	doc = apply(t, e, doc, Delete{Page: ids[1]})
	want = []string{"A", "C", "X", "Y"}
	if got := labelsOf(t, doc); !reflect.DeepEqual(got, want) {
		t.Fatalf("after delete labels = %v, want %v", got, want)
	}
	if got := labelsOf(t, reload(t, doc)); !reflect.DeepEqual(got, want) {
		t.Errorf("after delete reloaded labels = %v, want %v", got, want)
	}

	doc = apply(t, e, doc, Reorder{Page: ids[4], Index: 0})
	want = []string{"Y", "A", "C", "X"}
	if got := labelsOf(t, doc); !reflect.DeepEqual(got, want) {
		t.Fatalf("after reorder labels = %v, want %v", got, want)
	}
	if got := labelsOf(t, reload(t, doc)); !reflect.DeepEqual(got, want) {
		t.Errorf("after reorder reloaded labels = %v, want %v", got, want)
	}

	if doc.Version() != 3 {
		t.Errorf("Version() = %d, want 3", doc.Version())
	}
}

// TestMerge tests merge positions and page identity
func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{"at start", 0, []string{"X", "Y", "A", "B", "C"}},
		{"in the middle", 2, []string{"A", "B", "X", "Y", "C"}},
		{"at end index", 3, []string{"A", "B", "C", "X", "Y"}},
		{"at End", End, []string{"A", "B", "C", "X", "Y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Options{})
			base := load(t, []string{"A", "B", "C"}, pdftest.Options{})
			before := base.Pages().IDs()

			doc := apply(t, e, base, Merge{Source: buffer(t, []string{"X", "Y"}, pdftest.Options{Nested: true}), Index: tt.index})
			if got := labelsOf(t, doc); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("labels = %v, want %v", got, tt.want)
			}

			for _, id := range before {
				if !doc.Pages().Contains(id) {
					t.Errorf("page %v lost by merge", id)
				}
			}
			if got := labelsOf(t, base); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
				t.Errorf("base snapshot changed to %v", got)
			}
		})
	}
}

// TestMergeObjectSpace tests that merged objects get fresh numbers and no
// source structure
func TestMergeObjectSpace(t *testing.T) {
	e := New(Options{})
	base := load(t, []string{"A"}, pdftest.Options{})
	doc := apply(t, e, base, Merge{Source: buffer(t, []string{"X"}, pdftest.Options{}), Index: End})

	refs := doc.Pages().Refs()
	if refs[0].Object == refs[1].Object {
		t.Fatalf("merged page reuses object %d", refs[0].Object)
	}
	for _, num := range base.ObjectNumbers() {
		orig, _ := base.Object(num)
		now, _ := doc.Object(num)
		if !reflect.DeepEqual(orig, now) {
			t.Errorf("object %d changed by merge", num)
		}
	}

	for _, num := range doc.ObjectNumbers() {
		obj, _ := doc.Object(num)
		if dict, ok := obj.(core.Dict); ok {
			if name, _ := dict.GetName("Type"); name == "Pages" || name == "Catalog" {
				t.Errorf("object %d is a copied %s", num, name)
			}
		}
	}

	w, h, ok := doc.Pages().PageSize(refs[1].ID)
	if !ok || w != 612 || h != 792 {
		t.Errorf("merged PageSize() = %v, %v, %v", w, h, ok)
	}
}

// TestMergeVersion tests that merging a newer file raises the version
func TestMergeVersion(t *testing.T) {
	e := New(Options{})
	doc := load(t, []string{"A"}, pdftest.Options{Version: "1.4"})
	doc = apply(t, e, doc, Merge{Source: buffer(t, []string{"X"}, pdftest.Options{Version: "1.7"}), Index: End})
	if got := doc.PDFVersion(); got != (document.Version{Major: 1, Minor: 7}) {
		t.Errorf("PDFVersion() = %v, want 1.7", got)
	}
}

// TestMergeErrors tests rejected merge sources
func TestMergeErrors(t *testing.T) {
	garbage, err := source.FromBytes([]byte("not a pdf at all"))
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}

	tests := []struct {
		name string
		opts Options
		op   Merge
		want error
	}{
		{"nil source", Options{}, Merge{Index: End}, ErrInvalidSource},
		{"garbage", Options{}, Merge{Source: garbage, Index: End}, ErrInvalidSource},
		{"encrypted", Options{}, Merge{Source: buffer(t, []string{"X"}, pdftest.Options{Encrypt: true}), Index: End}, ErrEncryptedSource},
		{"negative index", Options{}, Merge{Source: buffer(t, []string{"X"}, pdftest.Options{}), Index: -2}, ErrIndexOutOfRange},
		{"index past end", Options{}, Merge{Source: buffer(t, []string{"X"}, pdftest.Options{}), Index: 3}, ErrIndexOutOfRange},
		{"too large", Options{MaxSourceSize: 10}, Merge{Source: buffer(t, []string{"X"}, pdftest.Options{}), Index: End}, source.ErrTooLarge},
		{"too many pages", Options{MaxPages: 3}, Merge{Source: buffer(t, []string{"X", "Y"}, pdftest.Options{}), Index: End}, ErrTooManyPages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := load(t, []string{"A", "B"}, pdftest.Options{})
			got, err := New(tt.opts).Apply(doc, tt.op)
			if !errors.Is(err, tt.want) {
				t.Errorf("Apply() error = %v, want %v", err, tt.want)
			}
			if got != doc {
				t.Error("Apply() did not return the original snapshot on failure")
			}
		})
	}
}

// TestDelete tests page deletion
func TestDelete(t *testing.T) {
	e := New(Options{})
	doc := load(t, []string{"A", "B", "C"}, pdftest.Options{})
	ids := doc.Pages().IDs()

	next := apply(t, e, doc, Delete{Page: ids[0]})
	if got, want := labelsOf(t, next), []string{"B", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
	if next.Pages().Contains(ids[0]) {
		t.Errorf("deleted id %v still present", ids[0])
	}
	if doc.Pages().Count() != 3 {
		t.Error("base snapshot changed by delete")
	}

	_, err := e.Apply(next, Delete{Page: ids[0]})
	if !errors.Is(err, ErrPageNotFound) {
		t.Errorf("second delete error = %v, want ErrPageNotFound", err)
	}

	last := apply(t, e, next, Delete{Page: ids[1]})
	got, err := e.Apply(last, Delete{Page: ids[2]})
	if !errors.Is(err, ErrLastPageDeletion) {
		t.Errorf("deleting the last page error = %v, want ErrLastPageDeletion", err)
	}
	if got != last || got.Pages().Count() != 1 {
		t.Error("failed delete changed the document")
	}
}

// TestReorder tests moving pages
func TestReorder(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		from   int
		index  int
		at     int
		want   []string
	}{
		{"forward", []string{"A", "B", "C", "D"}, 0, 2, 2, []string{"B", "C", "A", "D"}},
		{"backward", []string{"A", "B", "C", "D"}, 3, 1, 1, []string{"A", "D", "B", "C"}},
		{"to end", []string{"A", "B", "C", "D"}, 1, 3, 3, []string{"A", "C", "D", "B"}},
		{"in place", []string{"A", "B", "C", "D"}, 2, 2, 2, []string{"A", "B", "C", "D"}},
		{"past end clamped", []string{"A", "B", "C"}, 0, 7, 2, []string{"B", "C", "A"}},
		{"last past end", []string{"A", "B", "C"}, 2, 3, 2, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := load(t, tt.labels, pdftest.Options{})
			id := doc.Pages().IDs()[tt.from]

			next := apply(t, New(Options{}), doc, Reorder{Page: id, Index: tt.index})
			if got := labelsOf(t, next); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("labels = %v, want %v", got, tt.want)
			}
			if got := next.Pages().Count(); got != len(tt.labels) {
				t.Errorf("Count() = %d, want %d", got, len(tt.labels))
			}
			if got := next.Pages().IndexOf(id); got != tt.at {
				t.Errorf("IndexOf(moved) = %d, want %d", got, tt.at)
			}
		})
	}
}

// TestFailuresLeaveDocumentUnchanged tests atomicity of every failing operation
func TestFailuresLeaveDocumentUnchanged(t *testing.T) {
	doc := load(t, []string{"A", "B"}, pdftest.Options{})
	ids := doc.Pages().IDs()

	tests := []struct {
		name string
		op   Operation
		want error
	}{
		{"reorder unknown page", Reorder{Page: 999, Index: 0}, ErrPageNotFound},
		{"reorder negative", Reorder{Page: ids[0], Index: -1}, ErrIndexOutOfRange},
		{"delete unknown page", Delete{Page: 999}, ErrPageNotFound},
		{"blank past end", InsertBlank{Index: 3}, ErrIndexOutOfRange},
		{"blank negative", InsertBlank{Index: -1}, ErrIndexOutOfRange},
		{"blank zero width", InsertBlank{Index: 0, Size: PageSize{Width: 0, Height: 10}}, ErrInvalidPageSize},
		{"blank huge", InsertBlank{Index: 0, Size: PageSize{Width: 20000, Height: 10}}, ErrInvalidPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(Options{}).Apply(doc, tt.op)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Apply(%v) error = %v, want %v", tt.op, err, tt.want)
			}
			if got != doc || got.Version() != 0 {
				t.Error("failed operation returned a different snapshot")
			}
			if !reflect.DeepEqual(doc.Pages().IDs(), ids) {
				t.Errorf("page ids = %v, want %v", doc.Pages().IDs(), ids)
			}
		})
	}
}

// TestInsertBlank tests blank page insertion
func TestInsertBlank(t *testing.T) {
	doc := load(t, []string{"A", "B"}, pdftest.Options{})

	e := New(Options{BlankPageSize: Letter})
	next := apply(t, e, doc, InsertBlank{Index: 1})
	if got, want := labelsOf(t, next), []string{"A", "", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
	blank := next.Pages().IDs()[1]
	if w, h, ok := next.Pages().PageSize(blank); !ok || w != 612 || h != 792 {
		t.Errorf("PageSize() = %v, %v, %v, want Letter", w, h, ok)
	}

	next = apply(t, e, next, InsertBlank{Index: 3, Size: PageSize{Width: 300.5, Height: 400}})
	last := next.Pages().IDs()[3]
	if w, h, ok := next.Pages().PageSize(last); !ok || w != 300.5 || h != 400 {
		t.Errorf("PageSize() = %v, %v, %v, want 300.5x400", w, h, ok)
	}

	if got := labelsOf(t, reload(t, next)); !reflect.DeepEqual(got, []string{"A", "", "B", ""}) {
		t.Errorf("reloaded labels = %v", got)
	}

	if _, err := New(Options{MaxPages: 2}).Apply(doc, InsertBlank{Index: 0}); !errors.Is(err, ErrTooManyPages) {
		t.Errorf("Apply() over the page limit error = %v, want ErrTooManyPages", err)
	}
}

// TestOperationString tests operation descriptions
func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{Merge{Index: End}, "merge(0 bytes at end)"},
		{Merge{Index: 2}, "merge(0 bytes at 2)"},
		{Delete{Page: 3}, "delete(page 3)"},
		{Reorder{Page: 3, Index: 0}, "reorder(page 3 to 0)"},
		{InsertBlank{Index: 1}, "insert-blank(at 1)"},
		{InsertBlank{Index: 1, Size: A4}, "insert-blank(at 1, 595x842)"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// TestApplyNil tests that a nil operation is rejected
func TestApplyNil(t *testing.T) {
	doc := load(t, []string{"A"}, pdftest.Options{})
	got, err := New(Options{}).Apply(doc, nil)
	if err == nil || got != doc {
		t.Errorf("Apply(nil) = %v, %v", got, err)
	}
}
