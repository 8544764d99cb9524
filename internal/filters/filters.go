package filters

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned for filters the package cannot decode.
var ErrUnsupported = errors.New("filters: unsupported filter")

// Params represents decode parameters from PDF stream dictionaries.
// Common parameters include Predictor, Columns, Colors, and BitsPerComponent.
type Params map[string]interface{}

// Func decodes data with one filter.
type Func func(data []byte, params Params) ([]byte, error)

var registry = map[string]Func{
	"FlateDecode":    FlateDecode,
	"Fl":             FlateDecode,
	"ASCIIHexDecode": ignoreParams(ASCIIHexDecode),
	"AHx":            ignoreParams(ASCIIHexDecode),
	"ASCII85Decode":  ignoreParams(ASCII85Decode),
	"A85":            ignoreParams(ASCII85Decode),
	"CCITTFaxDecode": CCITTFaxDecode,
	"CCF":            CCITTFaxDecode,
	"DCTDecode":      passThrough,
	"DCT":            passThrough,
	"JPXDecode":      passThrough,
}

// Decode applies the named filter to data.
func Decode(name string, data []byte, params Params) ([]byte, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	return fn(data, params)
}

// Supported reports whether Decode knows the named filter.
func Supported(name string) bool {
	_, ok := registry[name]
	return ok
}

func ignoreParams(fn func([]byte) ([]byte, error)) Func {
	return func(data []byte, _ Params) ([]byte, error) {
		return fn(data)
	}
}

func passThrough(data []byte, _ Params) ([]byte, error) {
	return data, nil
}

// getIntParam extracts an integer parameter from Params, returning def
// if the parameter is missing or not numeric.
func getIntParam(params Params, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// getBoolParam extracts a boolean parameter from Params, returning def
// if the parameter is missing or not a boolean.
func getBoolParam(params Params, key string, def bool) bool {
	if params == nil {
		return def
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
