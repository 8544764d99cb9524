// Package engine applies page-level edits to document snapshots.
//
// An [Operation] is one of [Merge], [Delete], [Reorder] or [InsertBlank].
// [Engine.Apply] never modifies the snapshot it is given: it returns a new
// snapshot with the version advanced by one, or the original snapshot
// together with an error.
//
//	eng := engine.New(engine.Options{MaxPages: 10000})
//	next, err := eng.Apply(doc, engine.Delete{Page: id})
//	if errors.Is(err, engine.ErrLastPageDeletion) {
//	    // doc is unchanged and still current
//	}
//
// Merged pages are copied into the target's object space under fresh
// object numbers. References from copied objects to page tree nodes or
// the source catalog are cut, so nothing of the source document's
// structure leaks into the target.
package engine
