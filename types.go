package crmauth

import (
	"context"
	"time"
)

// Role is a pass-through attribute carried on tokens' owning user; no
// authorization policy is enforced here.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the credential-store record. PasswordHash is the PHC-encoded
// argon2id digest; the plaintext never leaves the operation that received it.
type User struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  string
	EmailVerified bool
	Role          Role
	CreatedAt     time.Time
}

// Summary is the user shape returned to callers: no credential material.
type Summary struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Summary strips credential material from a User.
func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// NewUser is the input to UserStore.Create. Users are always created
// unverified.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

// UserStore is the credential store for user records. Implementations must
// return ErrEmailTaken on a duplicate email and ErrUserNotFound for missing
// rows; any other error is treated as infrastructure failure.
//
// Single-record operations must be atomic. Emails are matched exactly as
// stored (case-sensitive).
type UserStore interface {
	Create(ctx context.Context, input NewUser) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	MarkVerified(ctx context.Context, id string) (User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Notifier delivers the emails of the verification and reset flows. It is
// fire-and-forget from the engine's perspective: a delivery error is logged
// and never rolls back the store mutation that already committed.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, name, email, code string) error
	SendResetEmail(ctx context.Context, email, token string) error
}

// TokenPair is one issued access/refresh pair. ExpiresAt is the access
// token's expiry; the refresh token lives until rotated, revoked, or its own
// (much longer) TTL passes.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// LoginResult is returned by Login: the token pair plus the authenticated
// user's summary.
type LoginResult struct {
	TokenPair
	User Summary
}
