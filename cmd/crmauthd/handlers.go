package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"crmauth"
	"crmauth/middleware"
)

// forgetAck is the single acknowledgement for every forget-password
// outcome; the response must not confirm whether the account exists.
const forgetAck = "If this user exists, they will receive a reset password link in their email."

type api struct {
	engine *crmauth.Engine
	log    *slog.Logger
}

func newRouter(engine *crmauth.Engine, log *slog.Logger) http.Handler {
	a := &api{engine: engine, log: log}

	routes := []struct {
		pattern string
		policy  middleware.Policy
		handler http.HandlerFunc
	}{
		{"POST /auth/signup", middleware.Public, a.signup},
		{"POST /auth/verify-email", middleware.Public, a.verifyEmail},
		{"POST /auth/login", middleware.Public, a.login},
		{"POST /auth/refresh", middleware.Public, a.refresh},
		{"POST /auth/forget-password", middleware.Public, a.forgetPassword},
		{"POST /auth/reset-password", middleware.Public, a.resetPassword},
		{"POST /auth/logout", middleware.AccessToken, a.logout},
		{"POST /auth/change-password", middleware.AccessToken, a.changePassword},
		{"GET /auth/me", middleware.AccessToken, a.me},
	}

	mux := http.NewServeMux()
	for _, r := range routes {
		mux.Handle(r.pattern, middleware.Guard(engine, r.policy)(r.handler))
	}
	return mux
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserResponse(s crmauth.Summary) userResponse {
	return userResponse{ID: s.ID, Name: s.Name, Email: s.Email, Role: string(s.Role)}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

func toTokenResponse(p crmauth.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    p.ExpiresAt.Unix(),
	}
}

func (a *api) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		a.writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	summary, err := a.engine.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "verification code sent",
		"user":    toUserResponse(summary),
	})
}

func (a *api) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	summary, err := a.engine.VerifyEmail(r.Context(), req.Code)
	if err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"message": "email verified",
		"user":    toUserResponse(summary),
	})
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	user, err := a.engine.ValidateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	result, err := a.engine.Login(r.Context(), user)
	if err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"tokens": toTokenResponse(result.TokenPair),
		"user":   toUserResponse(result.User),
	})
}

func (a *api) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	userID, err := a.engine.RefreshSubject(req.RefreshToken)
	if err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	pair, err := a.engine.Refresh(r.Context(), req.RefreshToken, userID)
	if err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"tokens": toTokenResponse(pair)})
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := a.engine.Logout(r.Context(), identity.ID); err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"message": "signed out"})
}

func (a *api) changePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		a.writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	if err := a.engine.ChangePassword(r.Context(), identity.ID, req.OldPassword, req.NewPassword); err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"message": "password changed"})
}

func (a *api) forgetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.engine.ForgetPassword(r.Context(), req.Email); err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"message": forgetAck})
}

func (a *api) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword string `json:"new_password"`
		ResetToken  string `json:"reset_token"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		a.writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	if err := a.engine.ResetPassword(r.Context(), req.NewPassword, req.ResetToken); err != nil {
		a.writeEngineError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"message": "password reset"})
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(identity)})
}

func (a *api) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeEngineError maps the engine's failure kinds onto HTTP statuses.
// Infrastructure failures are logged with detail and surfaced as a bare 500.
func (a *api) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, crmauth.ErrConflict):
		a.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, crmauth.ErrUnauthorized):
		a.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, crmauth.ErrNotFound):
		a.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, crmauth.ErrInvalidOrExpired):
		a.writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.log.Error("internal error",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		a.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (a *api) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]any{"error": message})
}

func (a *api) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Error("response encoding failed", slog.Any("error", err))
	}
}
