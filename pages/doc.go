// Package pages flattens the PDF page tree into an ordered list of leaf
// pages.
//
// Some page attributes are inheritable: a leaf without its own /Resources,
// /MediaBox, /CropBox or /Rotate takes the value of its nearest ancestor.
// [Walk] visits the tree in document order and records, for every leaf,
// what it inherited:
//
//	root, err := pages.Root(catalog, resolver)
//	leaves, err := pages.Walk(root, resolver)
//	for _, page := range leaves {
//	    dict := page.Flatten() // inherited attributes pushed down, /Parent removed
//	}
//
// Flattened page dictionaries stand on their own and can be moved under a
// different parent without changing how they render.
package pages
