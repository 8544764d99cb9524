package reader

import "errors"

var (
	// ErrCorruptDocument is returned when header, trailer, xref or object
	// data is inconsistent.
	ErrCorruptDocument = errors.New("pdf: corrupt document")

	// ErrUnsupportedVersion is returned for format versions the engine
	// cannot round-trip.
	ErrUnsupportedVersion = errors.New("pdf: unsupported version")

	// ErrEncryptedDocument is returned when the document requires a
	// password.
	ErrEncryptedDocument = errors.New("pdf: document is encrypted")

	// ErrIOFailure is returned when the input cannot be read.
	ErrIOFailure = errors.New("pdf: read failed")
)
