// Package writer serializes document snapshots into complete PDF files.
//
// Only objects reachable from the registered pages, the kept catalog
// entries and the information dictionary are written. Objects are
// renumbered compactly: the catalog is object 1, the page tree root is
// object 2 and the pages follow in order. Every page is written as a
// direct kid of the root with its inherited attributes already in place.
// References to pages that are no longer registered, to old page tree
// nodes or to the old catalog are written as null.
//
// The output uses a classic cross-reference table and a trailer whose /ID
// keeps the original first element.
package writer
