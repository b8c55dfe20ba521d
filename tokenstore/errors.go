package tokenstore

import "errors"

var (
	// ErrNotFound means no live record exists: never written, already
	// consumed, or expired. Callers must not distinguish these cases.
	ErrNotFound = errors.New("token record not found")

	// ErrMismatch means a live record exists but the presented secret digest
	// does not match it. The record is left in place.
	ErrMismatch = errors.New("token digest mismatch")

	// ErrUnavailable wraps infrastructure failures talking to Redis. It is
	// never a user-facing auth failure.
	ErrUnavailable = errors.New("token store unavailable")
)
