package errs

import (
	"errors"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrNoCopiesAvailable = errors.New("no copies available for borrowing")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// IsDomain reports whether err is an expected outcome of a catalog operation
// rather than a store failure.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoCopiesAvailable)
}
