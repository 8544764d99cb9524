// Package source turns externally supplied PDF bytes into owned, immutable
// buffers.
//
// A [Buffer] never aliases memory the caller can still write to:
// [FromBytes] and [FromReader] copy, and [Open] maps the file read-only.
// Parsing happens elsewhere; this package only establishes ownership and
// enforces the caller's size policy.
package source
