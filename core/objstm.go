package core

import (
	"fmt"
	"strconv"
)

// ObjectStream represents a PDF object stream (Type /ObjStm). The decoded
// data begins with N pairs of "objnum offset" followed by the objects
// themselves, starting at /First.
type ObjectStream struct {
	n       int
	first   int
	extends *IndirectRef
	offsets []streamSlot
	decoded []byte
	objects map[int]Object
}

type streamSlot struct {
	objNum int
	offset int
}

// NewObjectStream decodes an object stream and parses its header.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}
	if name, _ := stream.Dict.GetName("Type"); name != "ObjStm" {
		return nil, fmt.Errorf("stream is not an object stream, got type: %v", stream.Dict.Get("Type"))
	}

	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N: %v", stream.Dict.Get("N"))
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First: %v", stream.Dict.Get("First"))
	}

	os := &ObjectStream{
		n:       int(n),
		first:   int(first),
		objects: make(map[int]Object),
	}
	if ref, ok := stream.Dict.GetIndirectRef("Extends"); ok {
		os.extends = &ref
	}

	decoded, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode object stream: %w", err)
	}
	os.decoded = decoded

	if err := os.parseHeader(); err != nil {
		return nil, fmt.Errorf("failed to parse object stream header: %w", err)
	}
	return os, nil
}

// N returns the number of objects stored in the stream.
func (os *ObjectStream) N() int {
	return os.n
}

// Extends returns the object stream this one extends, or nil.
func (os *ObjectStream) Extends() *IndirectRef {
	return os.extends
}

func (os *ObjectStream) parseHeader() error {
	if os.first > len(os.decoded) {
		return fmt.Errorf("First offset (%d) exceeds decoded data length (%d)", os.first, len(os.decoded))
	}

	lexer := NewLexer(os.decoded[:os.first])
	os.offsets = make([]streamSlot, 0, os.n)
	for i := 0; i < os.n; i++ {
		num, err := nextHeaderInt(lexer)
		if err != nil {
			return fmt.Errorf("object number %d: %w", i, err)
		}
		offset, err := nextHeaderInt(lexer)
		if err != nil {
			return fmt.Errorf("offset %d: %w", i, err)
		}
		if os.first+offset > len(os.decoded) {
			return fmt.Errorf("object %d offset %d out of bounds", num, offset)
		}
		os.offsets = append(os.offsets, streamSlot{objNum: num, offset: offset})
	}
	return nil
}

func nextHeaderInt(lexer *Lexer) (int, error) {
	tok, err := lexer.NextToken()
	if err != nil {
		return 0, err
	}
	if tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected integer, got %v", tok.Type)
	}
	v, err := strconv.Atoi(string(tok.Value))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid integer %q", tok.Value)
	}
	return v, nil
}

// ObjectNumber returns the object number stored at index.
func (os *ObjectStream) ObjectNumber(index int) (int, error) {
	if index < 0 || index >= len(os.offsets) {
		return 0, fmt.Errorf("index %d out of range [0, %d)", index, len(os.offsets))
	}
	return os.offsets[index].objNum, nil
}

// GetObjectByIndex parses the object at index.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, error) {
	if obj, ok := os.objects[index]; ok {
		return obj, nil
	}
	if index < 0 || index >= len(os.offsets) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(os.offsets))
	}

	parser := NewParser(os.decoded)
	parser.Seek(os.first + os.offsets[index].offset)
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %d: %w", os.offsets[index].objNum, err)
	}
	os.objects[index] = obj
	return obj, nil
}

// GetObject finds and parses the object with the given object number.
func (os *ObjectStream) GetObject(objNum int) (Object, error) {
	for i, slot := range os.offsets {
		if slot.objNum == objNum {
			return os.GetObjectByIndex(i)
		}
	}
	return nil, fmt.Errorf("object %d not found in object stream", objNum)
}
