package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is a generic sentinel for role/tenancy violations.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict signals a stale-version save; the caller should reload.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks an operation blocked by a dependency outage; the
	// caller may retry the same request later.
	ErrUnavailable = errors.New("temporarily unavailable")
)
