package crmauth

import (
	"context"
	"errors"
	"log/slog"

	"crmauth/internal/secrets"
	"crmauth/tokenstore"
)

// Signup creates an unverified user and issues a verification code. The
// code email is sent only after both store writes have committed; a
// delivery failure is logged and does not undo the signup.
func (e *Engine) Signup(ctx context.Context, name, email, plaintext string) (Summary, error) {
	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return Summary{}, storeErr(err)
	}

	user, err := e.users.Create(ctx, NewUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Summary{}, ErrEmailTaken
		}
		return Summary{}, storeErr(err)
	}

	code, err := secrets.NewCode(e.config.Verification.CodeDigits)
	if err != nil {
		return Summary{}, storeErr(err)
	}
	if err := e.verifications.Save(ctx, user.ID, code, e.config.Verification.CodeTTL); err != nil {
		return Summary{}, storeErr(err)
	}

	if err := e.notifier.SendVerificationEmail(ctx, name, email, code); err != nil {
		e.log.Warn("verification email delivery failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return user.Summary(), nil
}

// VerifyEmail consumes a verification code and marks its owner verified.
// Wrong, expired, superseded, and replayed codes all fail identically.
func (e *Engine) VerifyEmail(ctx context.Context, code string) (Summary, error) {
	if !secrets.IsCode(code, e.config.Verification.CodeDigits) {
		return Summary{}, ErrVerificationCode
	}

	userID, err := e.verifications.Consume(ctx, code)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return Summary{}, ErrVerificationCode
		}
		return Summary{}, storeErr(err)
	}

	user, err := e.users.MarkVerified(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// The code was consumed but its owner is gone (account removed
			// between signup and verification). Nothing to roll back.
			return Summary{}, ErrUserNotFound
		}
		return Summary{}, storeErr(err)
	}

	return user.Summary(), nil
}
