package crmauth

import (
	"context"
	"errors"

	"crmauth/internal/secrets"
	"crmauth/tokenstore"
)

// Refresh exchanges a refresh token for a new pair. Rotation is mandatory:
// the stored digest is compared and deleted in one atomic step before the
// new pair exists, so the old token can never be valid twice, and of two
// racing refreshes exactly one wins. Every mismatch, expiry, subject
// mismatch, and replay fails with the same ErrRefreshToken.
func (e *Engine) Refresh(ctx context.Context, refreshToken, userID string) (TokenPair, error) {
	sub, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil || sub != userID {
		return TokenPair{}, ErrRefreshToken
	}

	err = e.sessions.Rotate(ctx, userID, secrets.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) || errors.Is(err, tokenstore.ErrMismatch) {
			return TokenPair{}, ErrRefreshToken
		}
		return TokenPair{}, storeErr(err)
	}

	return e.issueSession(ctx, userID)
}

// Logout deletes the user's refresh session. Logging out with no live
// session is an idempotent success.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if err := e.sessions.Delete(ctx, userID); err != nil {
		return storeErr(err)
	}
	return nil
}
