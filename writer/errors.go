package writer

import "errors"

// ErrSerializeFailure means a snapshot broke a structural invariant. It
// indicates a defect, not a user error.
var ErrSerializeFailure = errors.New("pdf: serialize failed")
