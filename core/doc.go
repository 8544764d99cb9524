// Package core provides low-level PDF parsing primitives, object types and
// the object encoder used to write documents back out.
//
// # Object Types
//
// PDF defines eight basic object types, all implemented as types satisfying the
// Object interface:
//
//   - [Null] - represents the PDF null object
//   - [Bool] - represents PDF boolean values (true/false)
//   - [Int] - represents PDF integers
//   - [Real] - represents PDF real numbers (floating point)
//   - [String] - represents PDF string objects (literal or hexadecimal)
//   - [Name] - represents PDF name objects (e.g., /Type, /Font)
//   - [Array] - represents PDF arrays
//   - [Dict] - represents PDF dictionaries
//
// Additionally, [Stream] represents a PDF stream (dictionary + binary data),
// and [IndirectRef] represents a reference to an indirect object.
//
// # Parsing
//
// The [Parser] type parses PDF syntax from a byte slice. It can parse
// individual objects or complete indirect object definitions at any offset,
// which is how the loader follows cross-reference offsets.
//
// The [Lexer] type tokenizes the same byte slice for the parser.
//
// # Cross-Reference Data
//
// [XRefParser] reads traditional xref tables (PDF 1.0-1.4), xref streams
// (PDF 1.5+), hybrid files and /Prev chains, producing one merged [XRefTable].
//
// # Object Streams
//
// [ObjectStream] (PDF 1.5+) extracts objects stored inside /ObjStm streams.
//
// # Writing
//
// [WriteObject] encodes any Object in canonical form: dictionary keys are
// sorted, so equal objects always encode to equal bytes.
package core
