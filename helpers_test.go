package crmauth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"crmauth/password"
	"crmauth/token"
)

type mockUserStore struct {
	mu      sync.Mutex
	users   map[string]User
	byEmail map[string]string

	createErr error
	updateErr error

	createCalls         int
	updatePasswordCalls int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (m *mockUserStore) Create(_ context.Context, input NewUser) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return User{}, m.createErr
	}
	if _, exists := m.byEmail[input.Email]; exists {
		return User{}, ErrEmailTaken
	}

	user := User{
		ID:           fmt.Sprintf("u%d", len(m.users)+1),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		CreatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return user, nil
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *mockUserStore) GetByID(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStore) MarkVerified(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	user.EmailVerified = true
	m.users[id] = user
	return user, nil
}

func (m *mockUserStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatePasswordCalls++

	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = hash
	m.users[id] = user
	return nil
}

type sentVerification struct {
	Name, Email, Code string
}

type sentReset struct {
	Email, Token string
}

type recordingNotifier struct {
	mu            sync.Mutex
	verifications []sentVerification
	resets        []sentReset
	failWith      error
}

func (n *recordingNotifier) SendVerificationEmail(_ context.Context, name, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.verifications = append(n.verifications, sentVerification{name, email, code})
	return nil
}

func (n *recordingNotifier) SendResetEmail(_ context.Context, email, tokenStr string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.resets = append(n.resets, sentReset{email, tokenStr})
	return nil
}

func (n *recordingNotifier) lastVerification(t *testing.T) sentVerification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.verifications) == 0 {
		t.Fatal("no verification email was sent")
	}
	return n.verifications[len(n.verifications)-1]
}

func (n *recordingNotifier) lastReset(t *testing.T) sentReset {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.resets) == 0 {
		t.Fatal("no reset email was sent")
	}
	return n.resets[len(n.resets)-1]
}

func mustRedis(t *testing.T, addr string) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

type testEnv struct {
	engine   *Engine
	users    *mockUserStore
	notifier *recordingNotifier
	redis    *miniredis.Miniredis
}

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.Token = token.Config{
		AccessSecret:  []byte("test-access-secret-000000000000"),
		RefreshSecret: []byte("test-refresh-secret-11111111111"),
		AccessTTL:     20 * time.Second,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	// Minimum argon2 cost keeps the suite fast.
	cfg.Password = password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := newMockUserStore()
	notifier := &recordingNotifier{}

	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRedis(rdb).
		WithUserStore(users).
		WithNotifier(notifier).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	return &testEnv{engine: engine, users: users, notifier: notifier, redis: mr}
}

// signupVerified runs signup and verification for a ready-to-login user.
func (env *testEnv) signupVerified(t *testing.T, name, email, pass string) Summary {
	t.Helper()
	ctx := context.Background()

	if _, err := env.engine.Signup(ctx, name, email, pass); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	summary, err := env.engine.VerifyEmail(ctx, env.notifier.lastVerification(t).Code)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	return summary
}

// login validates credentials and logs in, the way the transport facade
// composes the two.
func (env *testEnv) login(t *testing.T, email, pass string) LoginResult {
	t.Helper()
	ctx := context.Background()

	user, err := env.engine.ValidateCredentials(ctx, email, pass)
	if err != nil {
		t.Fatalf("ValidateCredentials failed: %v", err)
	}
	result, err := env.engine.Login(ctx, user)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return result
}
