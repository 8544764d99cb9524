package session

import (
	"errors"

	"github.com/tsawler/pdfedit/engine"
	"github.com/tsawler/pdfedit/reader"
	"github.com/tsawler/pdfedit/source"
	"github.com/tsawler/pdfedit/writer"
)

var (
	// ErrBusy is returned when a load or edit is already in flight.
	ErrBusy = errors.New("session: busy")

	// ErrNoDocument is returned for edits and exports before a load.
	ErrNoDocument = errors.New("session: no document loaded")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session: closed")
)

var messages = []struct {
	err error
	msg string
}{
	{ErrBusy, "Another change is still in progress. Try again in a moment."},
	{ErrNoDocument, "Open a PDF first."},
	{ErrClosed, "This editing session has ended."},
	{engine.ErrEncryptedSource, "The PDF to merge is password protected."},
	{engine.ErrInvalidSource, "The PDF to merge could not be read."},
	{engine.ErrPageNotFound, "That page no longer exists."},
	{engine.ErrIndexOutOfRange, "That position is outside the document."},
	{engine.ErrLastPageDeletion, "A document must keep at least one page."},
	{engine.ErrInvalidPageSize, "That page size is not valid."},
	{engine.ErrTooManyPages, "The document would have too many pages."},
	{reader.ErrEncryptedDocument, "This PDF is password protected."},
	{reader.ErrUnsupportedVersion, "This PDF version is not supported."},
	{reader.ErrIOFailure, "The file could not be read."},
	{reader.ErrCorruptDocument, "This file is damaged or is not a PDF."},
	{source.ErrTooLarge, "The file is too large."},
	{source.ErrEmpty, "The file is empty."},
	{writer.ErrSerializeFailure, "The document could not be saved."},
}

// Describe returns a short message for err suitable for showing to a
// user, or the empty string for a nil error.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong."
}
