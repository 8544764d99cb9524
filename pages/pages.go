package pages

import (
	"fmt"

	"github.com/tsawler/pdfedit/core"
)

// Resolver looks up the object an indirect reference points to. Direct
// objects are returned unchanged.
type Resolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// Inheritable lists the page attributes a leaf may take from its ancestors.
var Inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// Limits on page tree shape. Shared subtrees are legal, so the leaf count
// is bounded separately from depth.
const (
	maxDepth  = 256
	maxLeaves = 1 << 20
)

// Root returns the page tree root named by a catalog's /Pages entry.
func Root(catalog core.Dict, r Resolver) (core.Dict, error) {
	entry := catalog.Get("Pages")
	if entry == nil {
		return nil, fmt.Errorf("catalog missing /Pages entry")
	}
	obj, err := r.Resolve(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Pages: %w", err)
	}
	root, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", obj)
	}
	return root, nil
}

// Walk returns the leaves under root in document order, each with the
// inheritable attributes in effect for it. A cycle through the tree is an
// error; a subtree shared by two parents is walked once per parent.
func Walk(root core.Dict, r Resolver) ([]*Page, error) {
	w := &walker{resolver: r, onPath: make(map[int]bool)}
	if err := w.visit(core.IndirectRef{}, root, core.Dict{}, 0); err != nil {
		return nil, fmt.Errorf("failed to traverse page tree: %w", err)
	}
	return w.leaves, nil
}

type walker struct {
	resolver Resolver
	onPath   map[int]bool // nodes between the root and the current node
	leaves   []*Page
}

func (w *walker) visit(ref core.IndirectRef, node, inherited core.Dict, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("page tree deeper than %d levels", maxDepth)
	}
	if !isPagesNode(node) {
		if len(w.leaves) >= maxLeaves {
			return fmt.Errorf("page tree has more than %d leaves", maxLeaves)
		}
		w.leaves = append(w.leaves, NewPage(ref, node, inherited))
		return nil
	}

	kids, err := w.kids(node)
	if err != nil {
		return err
	}
	scope := narrow(inherited, node)

	if ref.Number != 0 {
		w.onPath[ref.Number] = true
		defer delete(w.onPath, ref.Number)
	}
	for i, kid := range kids {
		kidRef, _ := kid.(core.IndirectRef)
		if kidRef.Number != 0 && w.onPath[kidRef.Number] {
			return fmt.Errorf("page tree cycle through object %d", kidRef.Number)
		}
		obj, err := w.resolver.Resolve(kid)
		if err != nil {
			return fmt.Errorf("failed to resolve kid %d: %w", i, err)
		}
		switch v := obj.(type) {
		case core.Dict:
			if err := w.visit(kidRef, v, scope, depth+1); err != nil {
				return err
			}
		case core.Null, nil:
			// dangling kid
		default:
			return fmt.Errorf("invalid kid type: %T", obj)
		}
	}
	return nil
}

func (w *walker) kids(node core.Dict) (core.Array, error) {
	obj, err := w.resolver.Resolve(node.Get("Kids"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Kids: %w", err)
	}
	kids, ok := obj.(core.Array)
	if !ok {
		return nil, fmt.Errorf("invalid /Kids type: %T", obj)
	}
	return kids, nil
}

// narrow returns the attributes in effect below node. inherited is shared,
// so it is copied before node's own values are laid over it.
func narrow(inherited, node core.Dict) core.Dict {
	var scope core.Dict
	for _, key := range Inheritable {
		v := node.Get(key)
		if v == nil {
			continue
		}
		if scope == nil {
			scope = make(core.Dict, len(inherited)+len(Inheritable))
			for k, iv := range inherited {
				scope[k] = iv
			}
		}
		scope[key] = v
	}
	if scope == nil {
		return inherited
	}
	return scope
}

// isPagesNode reports whether node is an intermediate node. A node with
// /Kids and no /Type is treated as one.
func isPagesNode(node core.Dict) bool {
	switch name, _ := node.GetName("Type"); name {
	case "Pages":
		return true
	case "Page":
		return false
	}
	return node.Has("Kids")
}
