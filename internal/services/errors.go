package services

import "errors"

// Terminal outcomes of the consume protocol. All three render identically to
// callers ("paste unavailable"); the distinction exists for logging and
// metrics only.
var (
	ErrNotFound          = errors.New("paste not found")
	ErrExpired           = errors.New("paste expired")
	ErrViewLimitExceeded = errors.New("view limit exceeded")
)

// ValidationError rejects bad creation input. The request is refused before
// any store mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsUnavailable reports whether err is one of the terminal consume outcomes,
// as opposed to a store failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrViewLimitExceeded)
}
