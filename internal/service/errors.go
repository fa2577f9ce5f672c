package service

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a lifecycle event is applied to an
// entry whose current status does not allow it, e.g. completing an entry
// that was never called.  Handlers should translate this into HTTP 409.
var ErrInvalidTransition = errors.New("invalid status transition")

// ValidationError reports a join request field that violates the schema
// constraints.  Validation happens before any mutation, and the offending
// field is named so the client can highlight it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
