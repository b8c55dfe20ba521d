package crmauth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRefreshRotates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.signupVerified(t, "Ada", "ada@example.com", "correct horse")
	first := env.login(t, "ada@example.com", "correct horse")

	second, err := env.engine.Refresh(ctx, first.RefreshToken, summary.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("rotation returned the same refresh token")
	}

	// The consumed token is dead, the fresh one works.
	if _, err := env.engine.Refresh(ctx, first.RefreshToken, summary.ID); !errors.Is(err, ErrRefreshToken) {
		t.Fatalf("replay: want ErrRefreshToken, got %v", err)
	}
	if _, err := env.engine.Refresh(ctx, second.RefreshToken, summary.ID); err != nil {
		t.Fatalf("rotated token refresh failed: %v", err)
	}
}

func TestRefreshRejectsWrongSubject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.signupVerified(t, "Ada", "ada@example.com", "ada pass")
	env.signupVerified(t, "Bob", "bob@example.com", "bob pass")
	adaLogin := env.login(t, "ada@example.com", "ada pass")
	bobLogin := env.login(t, "bob@example.com", "bob pass")

	// Bob's token presented under Ada's identity must fail, and must not
	// disturb either session.
	if _, err := env.engine.Refresh(ctx, bobLogin.RefreshToken, ada.ID); !errors.Is(err, ErrRefreshToken) {
		t.Fatalf("cross-user refresh: want ErrRefreshToken, got %v", err)
	}
	if _, err := env.engine.Refresh(ctx, adaLogin.RefreshToken, ada.ID); err != nil {
		t.Fatalf("Ada's own refresh failed: %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.signupVerified(t, "Ada", "ada@example.com", "correct horse")
	result := env.login(t, "ada@example.com", "correct horse")

	for _, tok := range []string{"", "garbage", result.AccessToken} {
		if _, err := env.engine.Refresh(ctx, tok, summary.ID); !errors.Is(err, ErrRefreshToken) {
			t.Fatalf("token %q: want ErrRefreshToken, got %v", tok, err)
		}
	}
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.signupVerified(t, "Ada", "ada@example.com", "correct horse")
	result := env.login(t, "ada@example.com", "correct horse")

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.engine.Refresh(ctx, result.RefreshToken, summary.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrRefreshToken):
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("want exactly 1 winning refresh, got %d", wins)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := env.signupVerified(t, "Ada", "ada@example.com", "correct horse")
	result := env.login(t, "ada@example.com", "correct horse")

	if err := env.engine.Logout(ctx, summary.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := env.engine.Refresh(ctx, result.RefreshToken, summary.ID); !errors.Is(err, ErrRefreshToken) {
		t.Fatalf("refresh after logout: want ErrRefreshToken, got %v", err)
	}

	// Logging out again, or with no session at all, still succeeds.
	if err := env.engine.Logout(ctx, summary.ID); err != nil {
		t.Fatalf("repeated Logout failed: %v", err)
	}
	if err := env.engine.Logout(ctx, "never-logged-in"); err != nil {
		t.Fatalf("Logout without session failed: %v", err)
	}
}
