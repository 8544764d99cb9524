package core

import (
	"fmt"

	"github.com/tsawler/pdfedit/internal/filters"
)

// Decode decodes the stream data according to the Filter(s) specified in the
// stream dictionary, applying filter chains in order. A stream without a
// filter returns its raw data.
func (s *Stream) Decode() ([]byte, error) {
	names, params, err := s.filterChain()
	if err != nil {
		return nil, err
	}

	data := s.Data
	for i, name := range names {
		data, err = filters.Decode(name, data, params[i])
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s) failed: %w", i, name, err)
		}
	}
	return data, nil
}

// filterChain returns the filter names with their matching parameters.
func (s *Stream) filterChain() ([]string, []filters.Params, error) {
	paramsObj := s.Dict.Get("DecodeParms")

	switch f := s.Dict.Get("Filter").(type) {
	case nil:
		return nil, nil, nil
	case Name:
		return []string{string(f)}, []filters.Params{dictToParams(paramsObj)}, nil
	case Array:
		names := make([]string, len(f))
		params := make([]filters.Params, len(f))
		paramsArr, perFilter := paramsObj.(Array)
		for i, elem := range f {
			name, ok := elem.(Name)
			if !ok {
				return nil, nil, fmt.Errorf("filter %d is not a name: %T", i, elem)
			}
			names[i] = string(name)
			if perFilter {
				params[i] = dictToParams(paramsArr.Get(i))
			} else {
				params[i] = dictToParams(paramsObj)
			}
		}
		return names, params, nil
	default:
		return nil, nil, fmt.Errorf("invalid Filter type: %T", f)
	}
}

// dictToParams converts a DecodeParms dictionary to filters.Params,
// translating PDF object types to Go primitives. Anything other than a
// dictionary yields nil.
func dictToParams(obj Object) filters.Params {
	dict, ok := obj.(Dict)
	if !ok {
		return nil
	}

	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch val := v.(type) {
		case Int:
			params[k] = int(val)
		case Real:
			params[k] = float64(val)
		case Bool:
			params[k] = bool(val)
		case String:
			params[k] = string(val)
		case Name:
			params[k] = string(val)
		default:
			params[k] = v
		}
	}
	return params
}
