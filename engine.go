package crmauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"crmauth/internal/secrets"
	"crmauth/password"
	"crmauth/token"
	"crmauth/tokenstore"
)

// Engine is the authentication facade. All operations are safe for
// concurrent use; the stores are the only serialization points.
type Engine struct {
	config   Config
	users    UserStore
	notifier Notifier
	log      *slog.Logger

	hasher *password.Hasher
	tokens *token.Manager

	verifications *tokenstore.VerificationStore
	resets        *tokenstore.ResetStore
	sessions      *tokenstore.RefreshStore
}

// CurrentUser resolves a presented access token to the user it authorizes.
// Any parse, signature, or lookup failure is ErrUnauthorized; a valid token
// whose user has since been removed must not read differently from a bad
// token.
func (e *Engine) CurrentUser(ctx context.Context, accessToken string) (Summary, error) {
	sub, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		return Summary{}, ErrUnauthorized
	}

	user, err := e.users.GetByID(ctx, sub)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Summary{}, ErrUnauthorized
		}
		return Summary{}, storeErr(err)
	}
	return user.Summary(), nil
}

// RefreshSubject verifies a presented refresh token's signature and expiry
// and returns its subject. It does not touch the session store; only
// Refresh rotates.
func (e *Engine) RefreshSubject(refreshToken string) (string, error) {
	sub, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", ErrRefreshToken
	}
	return sub, nil
}

// issueSession mints a token pair for userID and upserts the refresh
// digest, replacing any previous session for the user.
func (e *Engine) issueSession(ctx context.Context, userID string) (TokenPair, error) {
	access, err := e.tokens.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, storeErr(err)
	}
	refresh, err := e.tokens.IssueRefresh(userID)
	if err != nil {
		return TokenPair{}, storeErr(err)
	}

	if err := e.sessions.Put(ctx, userID, secrets.HashToken(refresh), e.tokens.RefreshTTL()); err != nil {
		return TokenPair{}, storeErr(err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(e.tokens.AccessTTL()),
	}, nil
}
