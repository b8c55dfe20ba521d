package middleware

import (
	"context"
	"net/http"
	"strings"

	"crmauth"
)

// Policy is a route's access requirement.
type Policy int

const (
	// Public routes skip token checks entirely.
	Public Policy = iota
	// AccessToken routes require a valid bearer access token.
	AccessToken
)

type identityContextKey struct{}

// IdentityFromContext returns the authenticated caller injected by Guard.
// The bool is false on public routes and outside guarded handlers.
func IdentityFromContext(ctx context.Context) (crmauth.Summary, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(crmauth.Summary)
	return identity, ok
}

// Guard enforces policy in front of next. Protected routes reject missing,
// malformed, and invalid bearer tokens with 401 before the handler runs.
func Guard(engine *crmauth.Engine, policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy == Public {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := engine.CurrentUser(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}
