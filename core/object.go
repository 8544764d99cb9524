package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object is one of the PDF object types defined in this package: Null,
// Bool, Int, Real, String, Name, Array, Dict, *Stream or IndirectRef.
type Object interface {
	String() string
	pdfObject()
}

type (
	// Null is the PDF null object. Missing references resolve to it.
	Null struct{}
	// Bool is a PDF boolean.
	Bool bool
	// Int is a PDF integer.
	Int int64
	// Real is a PDF real number.
	Real float64
	// String holds the decoded bytes of a literal or hex string, not the
	// escaped source form.
	String string
	// Name is a PDF name without the leading slash.
	Name string
)

func (Null) pdfObject()   {}
func (Bool) pdfObject()   {}
func (Int) pdfObject()    {}
func (Real) pdfObject()   {}
func (String) pdfObject() {}
func (Name) pdfObject()   {}

func (Null) String() string     { return "null" }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }
func (r Real) String() string   { return formatReal(float64(r)) }
func (s String) String() string { return string(s) }
func (n Name) String() string   { return "/" + string(n) }

// Array is a PDF array.
type Array []Object

func (Array) pdfObject() {}

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = obj.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the number of elements.
func (a Array) Len() int {
	return len(a)
}

// Get returns the element at index, or nil when out of range.
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetNumber retrieves an Int or Real at the given index as a float64.
func (a Array) GetNumber(index int) (float64, bool) {
	return Number(a.Get(index))
}

// Dict is a PDF dictionary keyed by name, without slashes.
type Dict map[string]Object

func (Dict) pdfObject() {}

func (d Dict) String() string {
	keys := d.Keys()
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("/%s %s", key, d[key].String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get returns the value for key, or nil.
func (d Dict) Get(key string) Object {
	return d[key]
}

// The typed getters report false when the key is absent or holds another
// type. They do not resolve references.

func (d Dict) GetName(key string) (Name, bool) {
	name, ok := d[key].(Name)
	return name, ok
}

func (d Dict) GetInt(key string) (Int, bool) {
	i, ok := d[key].(Int)
	return i, ok
}

func (d Dict) GetDict(key string) (Dict, bool) {
	dict, ok := d[key].(Dict)
	return dict, ok
}

func (d Dict) GetArray(key string) (Array, bool) {
	arr, ok := d[key].(Array)
	return arr, ok
}

func (d Dict) GetString(key string) (String, bool) {
	s, ok := d[key].(String)
	return s, ok
}

func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	ref, ok := d[key].(IndirectRef)
	return ref, ok
}

// Has reports whether key is present, even with a null value.
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Keys returns the keys in sorted order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stream represents a PDF stream object. Data holds the encoded bytes
// exactly as stored in the file; see Decode.
type Stream struct {
	Dict Dict
	Data []byte
}

func (*Stream) pdfObject() {}

func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// IndirectRef is a reference such as "12 0 R".
type IndirectRef struct {
	Number     int
	Generation int
}

func (IndirectRef) pdfObject() {}

func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject is a parsed "n g obj ... endobj" definition.
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
}

// Number returns the numeric value of an Int or Real.
func Number(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// Clone returns a deep copy of obj. Dictionaries, arrays and streams
// (including stream data) are copied; scalars and references are values.
func Clone(obj Object) Object {
	switch v := obj.(type) {
	case Dict:
		return v.Clone()
	case Array:
		out := make(Array, len(v))
		for i, elem := range v {
			out[i] = Clone(elem)
		}
		return out
	case *Stream:
		return v.Clone()
	default:
		return obj
	}
}

// Clone returns a deep copy of the dictionary.
func (d Dict) Clone() Dict {
	if d == nil {
		return nil
	}
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = Clone(v)
	}
	return out
}

// Clone returns a deep copy of the stream, including its data.
func (s *Stream) Clone() *Stream {
	data := make([]byte, len(s.Data))
	copy(data, s.Data)
	return &Stream{Dict: s.Dict.Clone(), Data: data}
}

// Refs calls fn for every indirect reference directly contained in obj,
// descending through arrays, dictionaries and stream dictionaries but not
// through the references themselves.
func Refs(obj Object, fn func(IndirectRef)) {
	switch v := obj.(type) {
	case IndirectRef:
		fn(v)
	case Array:
		for _, elem := range v {
			Refs(elem, fn)
		}
	case Dict:
		for _, key := range v.Keys() {
			Refs(v[key], fn)
		}
	case *Stream:
		Refs(v.Dict, fn)
	}
}
