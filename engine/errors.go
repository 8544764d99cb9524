package engine

import "errors"

var (
	// ErrPageNotFound is returned when no page has the given id.
	ErrPageNotFound = errors.New("engine: page not found")

	// ErrIndexOutOfRange is returned for positions outside the page order.
	ErrIndexOutOfRange = errors.New("engine: index out of range")

	// ErrInvalidSource is returned when a merge source cannot be loaded.
	ErrInvalidSource = errors.New("engine: invalid merge source")

	// ErrEncryptedSource is returned when a merge source needs a password.
	ErrEncryptedSource = errors.New("engine: merge source is encrypted")

	// ErrLastPageDeletion is returned when a delete would leave no pages.
	ErrLastPageDeletion = errors.New("engine: cannot delete the last page")

	// ErrInvalidPageSize is returned for unusable blank page dimensions.
	ErrInvalidPageSize = errors.New("engine: invalid page size")

	// ErrTooManyPages is returned when an edit would exceed the page limit.
	ErrTooManyPages = errors.New("engine: too many pages")
)
