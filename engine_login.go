package crmauth

import (
	"context"
	"errors"
	"log/slog"
)

// ValidateCredentials checks an email/password pair and returns the user on
// success. Unknown email, unverified email, and wrong password all return
// the identical ErrBadCredentials; callers and attackers get no further
// signal.
func (e *Engine) ValidateCredentials(ctx context.Context, email, plaintext string) (User, error) {
	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrBadCredentials
		}
		return User{}, storeErr(err)
	}

	ok, err := e.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		return User{}, ErrBadCredentials
	}
	if !user.EmailVerified {
		return User{}, ErrBadCredentials
	}

	if e.config.UpgradeHashOnLogin {
		e.maybeUpgradeHash(ctx, user, plaintext)
	}

	return user, nil
}

// Login mints a token pair for an already-validated user and records the
// refresh digest, replacing any prior session (single active session per
// user). Credential checking belongs to ValidateCredentials.
func (e *Engine) Login(ctx context.Context, user User) (LoginResult, error) {
	pair, err := e.issueSession(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{TokenPair: pair, User: user.Summary()}, nil
}

// maybeUpgradeHash re-hashes the credential when the stored digest predates
// the current argon2 parameters. Best-effort: a failure must not block a
// successful login.
func (e *Engine) maybeUpgradeHash(ctx context.Context, user User, plaintext string) {
	needs, err := e.hasher.NeedsRehash(user.PasswordHash)
	if err != nil || !needs {
		return
	}

	upgraded, err := e.hasher.Hash(plaintext)
	if err != nil {
		e.log.Warn("credential rehash failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	if err := e.users.UpdatePasswordHash(ctx, user.ID, upgraded); err != nil {
		e.log.Warn("credential rehash update failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
}
