package crmauth

import (
	"context"
	"errors"
	"log/slog"

	"crmauth/internal/secrets"
	"crmauth/tokenstore"
)

// ChangePassword rotates a user's credential after re-verifying the old
// one. A new password equal to the old is rejected even when everything
// else checks out. The user's refresh session is revoked on success so a
// stolen session does not survive a credential change.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return storeErr(err)
	}

	ok, err := e.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrBadCredentials
	}

	same, err := e.hasher.Verify(newPassword, user.PasswordHash)
	if err != nil {
		return storeErr(err)
	}
	if same {
		return ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return storeErr(err)
	}
	if err := e.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return storeErr(err)
	}

	if err := e.sessions.Delete(ctx, userID); err != nil {
		e.log.Warn("session revocation after password change failed",
			slog.String("user_id", userID), slog.Any("error", err))
	}
	return nil
}

// ForgetPassword starts the reset flow. It returns nil for unknown emails,
// live-token suppression, and fresh issuance alike; the transport layer
// sends one generic acknowledgement in every case, so the response never
// confirms account existence. Only infrastructure failures surface.
func (e *Engine) ForgetPassword(ctx context.Context, email string) error {
	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return storeErr(err)
	}

	resetID, tokenStr, digest, err := secrets.NewResetToken()
	if err != nil {
		return storeErr(err)
	}

	created, err := e.resets.Create(ctx, user.ID, resetID, digest, e.config.Reset.TokenTTL)
	if err != nil {
		return storeErr(err)
	}
	if !created {
		// A live token already exists; do not mint a second one and do not
		// resend.
		return nil
	}

	if err := e.notifier.SendResetEmail(ctx, email, tokenStr); err != nil {
		e.log.Warn("reset email delivery failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}
	return nil
}

// ResetPassword consumes a reset token and installs the new password. The
// token is deleted before the password write: a crash between the two steps
// loses the reset (the user re-requests) but can never leave a replayable
// token. The user's refresh session is revoked on success.
func (e *Engine) ResetPassword(ctx context.Context, newPassword, resetToken string) error {
	resetID, digest, err := secrets.ParseResetToken(resetToken)
	if err != nil {
		return ErrResetToken
	}

	userID, err := e.resets.Consume(ctx, resetID, digest)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) || errors.Is(err, tokenstore.ErrMismatch) {
			return ErrResetToken
		}
		return storeErr(err)
	}

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return storeErr(err)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return storeErr(err)
	}
	if err := e.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		// The token is already consumed; surface loudly rather than leave
		// the flow half-applied in silence.
		e.log.Error("password write failed after reset token consumption",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return storeErr(err)
	}

	if err := e.sessions.Delete(ctx, user.ID); err != nil {
		e.log.Warn("session revocation after password reset failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}
	return nil
}
