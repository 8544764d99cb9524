// Package document holds the immutable structural model of one PDF.
//
// A [Document] is a snapshot: its page order, objects, catalog and
// metadata never change once it is returned. Edits go through a [Draft],
// which records changes against a base snapshot and produces a new
// snapshot with a higher version on [Draft.Commit]:
//
//	draft := doc.Draft()
//	num := draft.Add(core.Dict{"Type": core.Name("Page"), ...})
//	draft.InsertPages(0, []int{num})
//	next, err := draft.Commit()
//
// Pages are identified by a [PageID] that is assigned when the page enters
// a document and is never reused by later snapshots. The [Registry]
// returned by [Document.Pages] is the read-only ordered view of those
// identities.
//
// Objects returned by accessors are shared between snapshots and must be
// treated as read-only.
package document
