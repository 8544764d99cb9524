package pages

import (
	"fmt"

	"github.com/tsawler/pdfedit/core"
)

// Page is one leaf of the page tree together with the attributes it
// inherits from its ancestors.
type Page struct {
	// Ref is the indirect reference the leaf was reached through. It is
	// zero for a leaf stored directly inside a /Kids array.
	Ref core.IndirectRef

	dict      core.Dict
	inherited core.Dict
}

// NewPage creates a page from a leaf dictionary and the inheritable
// attributes in effect for it.
func NewPage(ref core.IndirectRef, dict, inherited core.Dict) *Page {
	return &Page{Ref: ref, dict: dict, inherited: inherited}
}

// Dict returns the leaf dictionary as stored in the file.
func (p *Page) Dict() core.Dict {
	return p.dict
}

// Get returns a page attribute, falling back to the inherited value for
// inheritable keys.
func (p *Page) Get(key string) core.Object {
	if v := p.dict.Get(key); v != nil {
		return v
	}
	return p.inherited.Get(key)
}

// Flatten returns a copy of the leaf dictionary with inherited attributes
// pushed down, /Type set to /Page and /Parent removed. Values are shared
// with the original, not deep-copied.
func (p *Page) Flatten() core.Dict {
	out := make(core.Dict, len(p.dict)+len(Inheritable))
	for k, v := range p.dict {
		out[k] = v
	}
	for _, key := range Inheritable {
		if !out.Has(key) {
			if v := p.inherited.Get(key); v != nil {
				out[key] = v
			}
		}
	}
	out["Type"] = core.Name("Page")
	delete(out, "Parent")
	return out
}

// MediaBox returns the page media box [x1 y1 x2 y2]. Arrays nested behind
// references are resolved with resolver, which may be nil when the box is
// known to be direct.
func (p *Page) MediaBox(resolver Resolver) ([]float64, error) {
	return Box(p.Get("MediaBox"), resolver)
}

// Box converts a rectangle array to [llx lly urx ury], normalizing
// swapped corners.
func Box(obj core.Object, resolver Resolver) ([]float64, error) {
	if obj == nil {
		return nil, fmt.Errorf("box not found")
	}
	if ref, ok := obj.(core.IndirectRef); ok {
		if resolver == nil {
			return nil, fmt.Errorf("box is indirect (%v) and no resolver was given", ref)
		}
		resolved, err := resolver.Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve box: %w", err)
		}
		obj = resolved
	}

	arr, ok := obj.(core.Array)
	if !ok {
		return nil, fmt.Errorf("invalid box type: %T", obj)
	}
	if len(arr) != 4 {
		return nil, fmt.Errorf("invalid box length: %d (expected 4)", len(arr))
	}

	box := make([]float64, 4)
	for i := range arr {
		v, ok := arr.GetNumber(i)
		if !ok {
			return nil, fmt.Errorf("invalid box element type: %T", arr[i])
		}
		box[i] = v
	}
	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	return box, nil
}
