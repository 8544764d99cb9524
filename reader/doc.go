// Package reader loads PDF files into immutable document snapshots.
//
// Loading validates the header, assembles the cross-reference data
// (classic tables, cross-reference streams, incremental updates and
// hybrid files), rebuilds a damaged xref by scanning the file, and walks
// the page tree:
//
//	doc, err := reader.LoadBytes(data)
//	switch {
//	case errors.Is(err, reader.ErrEncryptedDocument):
//	    // ask for another file
//	case err != nil:
//	    // corrupt, unsupported or unreadable
//	}
//
// Every object reachable from the pages, the catalog entries that do not
// depend on pages, and the information dictionary is parsed eagerly and
// copied out of the input, so the source buffer may be released as soon
// as Load returns. Content streams are kept encoded.
//
// The lower-level [Reader] gives object access by number for callers that
// need to inspect a file without building a document.
package reader
