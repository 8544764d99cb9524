package source

import "errors"

var (
	// ErrEmpty is returned when a buffer would hold no bytes.
	ErrEmpty = errors.New("source: empty input")

	// ErrTooLarge is returned when input exceeds the caller's size limit.
	ErrTooLarge = errors.New("source: input exceeds size limit")
)
