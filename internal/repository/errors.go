// Package repository persists waitlist entries.  It defines error values
// that are reused across store implementations.  These sentinel values
// allow higher layers such as services and handlers to distinguish
// between different failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrEntryNotFound is returned when no entry matches the requested id or
// phone number.  Handlers should translate this into an HTTP 404 response
// (or a null body, for the lookup-by-phone endpoint).
var ErrEntryNotFound = errors.New("entry not found")
