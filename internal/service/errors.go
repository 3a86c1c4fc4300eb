package service

import "fmt"

// NotFoundError covers both a missing topic and one owned by another user.
// The two cases are indistinguishable to the caller so the API never leaks
// whether a foreign resource exists.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (id: %d)", e.Resource, e.ID)
}

// ValidationError rejects malformed input before any storage access happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
