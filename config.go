package crmauth

import (
	"errors"
	"time"

	"crmauth/password"
	"crmauth/token"
)

// Config is the engine's programmatic configuration. DefaultConfig returns
// working lifetimes; the token secrets always come from the caller.
type Config struct {
	Token        token.Config
	Password     password.Config
	Verification VerificationConfig
	Reset        ResetConfig

	// KeyPrefix namespaces all Redis keys; defaults to "auth".
	KeyPrefix string

	// UpgradeHashOnLogin re-hashes a credential transparently after a
	// successful login when the stored digest predates the current argon2
	// parameters.
	UpgradeHashOnLogin bool
}

// VerificationConfig governs the signup email-verification flow.
type VerificationConfig struct {
	CodeDigits int
	CodeTTL    time.Duration
}

// ResetConfig governs the password reset flow.
type ResetConfig struct {
	TokenTTL time.Duration
}

// DefaultConfig mirrors the production defaults: 20s access tokens, 7d
// refresh tokens, 6-digit verification codes and reset tokens valid 1 hour.
func DefaultConfig() Config {
	return Config{
		Token: token.Config{
			AccessTTL:  20 * time.Second,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Password: password.DefaultConfig(),
		Verification: VerificationConfig{
			CodeDigits: 6,
			CodeTTL:    time.Hour,
		},
		Reset: ResetConfig{
			TokenTTL: time.Hour,
		},
		KeyPrefix:          "auth",
		UpgradeHashOnLogin: true,
	}
}

// Validate checks the parts of Config not already validated by the password
// and token constructors.
func (c Config) Validate() error {
	if c.Verification.CodeDigits < 4 || c.Verification.CodeDigits > 10 {
		return errors.New("verification code digits out of range")
	}
	if c.Verification.CodeTTL <= 0 {
		return errors.New("verification code TTL must be positive")
	}
	if c.Reset.TokenTTL <= 0 {
		return errors.New("reset token TTL must be positive")
	}
	return nil
}
