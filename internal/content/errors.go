package content

import (
	"errors"
	"fmt"
)

// ValidationError rejects a mutation before anything is persisted. The
// reason is safe to show to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// invalid builds a ValidationError.
func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ErrNotFound reports that a content id does not resolve.
var ErrNotFound = errors.New("content not found")

// ErrForbidden reports that the caller lacks the admin role a mutation
// requires.
var ErrForbidden = errors.New("admin role required")
