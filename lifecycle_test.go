package crmauth

import (
	"context"
	"errors"
	"testing"
)

// TestAccountLifecycle walks one account end to end: registration, a failed
// verification guess, verification, login, rotation, replay.
func TestAccountLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary, err := env.engine.Signup(ctx, "Grace", "grace@example.com", "hopper1906")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	// Login before verification must look like any other bad credential.
	if _, err := env.engine.ValidateCredentials(ctx, "grace@example.com", "hopper1906"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("pre-verification login: want ErrBadCredentials, got %v", err)
	}

	code := env.notifier.lastVerification(t).Code
	wrong := "000000"
	if wrong == code {
		wrong = "999999"
	}
	if _, err := env.engine.VerifyEmail(ctx, wrong); !errors.Is(err, ErrVerificationCode) {
		t.Fatalf("wrong code: want ErrVerificationCode, got %v", err)
	}
	if _, err := env.engine.VerifyEmail(ctx, code); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	login := env.login(t, "grace@example.com", "hopper1906")
	if login.User.ID != summary.ID {
		t.Fatalf("logged in as %q, want %q", login.User.ID, summary.ID)
	}

	rotated, err := env.engine.Refresh(ctx, login.RefreshToken, summary.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := env.engine.Refresh(ctx, login.RefreshToken, summary.ID); !errors.Is(err, ErrRefreshToken) {
		t.Fatalf("replayed refresh token: want ErrRefreshToken, got %v", err)
	}
	if _, err := env.engine.CurrentUser(ctx, rotated.AccessToken); err != nil {
		t.Fatalf("CurrentUser on rotated pair failed: %v", err)
	}

	if err := env.engine.Logout(ctx, summary.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := env.engine.Refresh(ctx, rotated.RefreshToken, summary.ID); !errors.Is(err, ErrRefreshToken) {
		t.Fatalf("refresh after logout: want ErrRefreshToken, got %v", err)
	}
}
