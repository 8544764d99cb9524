package engine

import (
	"github.com/tsawler/pdfedit/core"
	"github.com/tsawler/pdfedit/document"
)

// copier moves objects from a source snapshot into a draft under fresh
// numbers, following references breadth-first.
type copier struct {
	src    *document.Document
	dst    *document.Draft
	mapped map[int]int
	queue  []int
}

func newCopier(src *document.Document, dst *document.Draft) *copier {
	return &copier{
		src:    src,
		dst:    dst,
		mapped: make(map[int]int),
	}
}

// reserve returns the draft number for a source object, scheduling it for
// copying the first time it is seen.
func (c *copier) reserve(num int) int {
	if n, ok := c.mapped[num]; ok {
		return n
	}
	n := c.dst.Reserve()
	c.mapped[num] = n
	c.queue = append(c.queue, num)
	return n
}

func (c *copier) run() {
	for len(c.queue) > 0 {
		num := c.queue[0]
		c.queue = c.queue[1:]
		obj, ok := c.src.Object(num)
		if !ok {
			obj = core.Null{}
		}
		c.dst.Set(c.mapped[num], c.remap(obj))
	}
}

// remap deep-copies obj with every reference rewritten to draft numbers.
func (c *copier) remap(obj core.Object) core.Object {
	switch v := obj.(type) {
	case core.IndirectRef:
		target, ok := c.src.Object(v.Number)
		if !ok || structural(target) {
			return core.Null{}
		}
		return core.IndirectRef{Number: c.reserve(v.Number)}
	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			out[i] = c.remap(elem)
		}
		return out
	case core.Dict:
		out := make(core.Dict, len(v))
		for _, key := range v.Keys() {
			out[key] = c.remap(v[key])
		}
		return out
	case *core.Stream:
		data := make([]byte, len(v.Data))
		copy(data, v.Data)
		dict, _ := c.remap(v.Dict).(core.Dict)
		return &core.Stream{Dict: dict, Data: data}
	default:
		return obj
	}
}

// structural reports whether obj is a page tree node or a catalog.
func structural(obj core.Object) bool {
	dict, ok := obj.(core.Dict)
	if !ok {
		return false
	}
	t, _ := dict.GetName("Type")
	return t == "Pages" || t == "Catalog"
}
