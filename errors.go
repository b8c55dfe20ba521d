package crmauth

import (
	"errors"
	"fmt"
)

// Failure kinds. Every user-facing failure wraps exactly one of these, so
// transport layers can map with a single errors.Is per kind.
var (
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOrExpired = errors.New("invalid or expired")
)

// Specific failures. Messages stay generic on enumeration-sensitive paths.
var (
	// ErrEmailTaken is returned by Signup, and by UserStore implementations
	// on a unique-email violation.
	ErrEmailTaken = fmt.Errorf("email already in use: %w", ErrConflict)

	// ErrPasswordReuse rejects a new password equal to the current one.
	ErrPasswordReuse = fmt.Errorf("new password must differ from the current password: %w", ErrConflict)

	// ErrBadCredentials covers unknown email, unverified email, and wrong
	// password alike. Callers must not be able to tell which.
	ErrBadCredentials = fmt.Errorf("wrong credentials: %w", ErrUnauthorized)

	// ErrVerificationCode covers wrong, expired, superseded, and already
	// consumed verification codes alike.
	ErrVerificationCode = fmt.Errorf("verification code is invalid or has expired: %w", ErrInvalidOrExpired)

	// ErrResetToken covers malformed, wrong, expired, and consumed reset
	// tokens alike.
	ErrResetToken = fmt.Errorf("reset token is invalid or has expired: %w", ErrUnauthorized)

	// ErrRefreshToken covers bad signature, expiry, subject mismatch, and
	// rotation replay alike.
	ErrRefreshToken = fmt.Errorf("refresh token is invalid or has expired: %w", ErrUnauthorized)

	// ErrUserNotFound is returned when a referenced user is absent after
	// authorization has already been established, and by UserStore
	// implementations for missing rows.
	ErrUserNotFound = fmt.Errorf("user not found: %w", ErrNotFound)
)

// ErrStoreUnavailable wraps infrastructure failures from the credential or
// token stores. It is fatal for the operation and must never be collapsed
// into an auth failure.
var ErrStoreUnavailable = errors.New("credential store unavailable")

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
