package crmauth

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"crmauth/password"
	"crmauth/token"
	"crmauth/tokenstore"
)

// Builder assembles an Engine. Construction is allocation-only; no I/O
// happens until the first Engine operation.
type Builder struct {
	config   Config
	redis    redis.UniversalClient
	users    UserStore
	notifier Notifier
	logger   *slog.Logger

	built bool
}

// New returns a Builder carrying DefaultConfig. Token secrets must still be
// supplied via WithConfig before Build.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the client backing the ephemeral token stores.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithLogger sets the structured logger for notifier failures and
// exceptional paths. Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and wires the Engine. A Builder can
// build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.notifier == nil {
		return nil, errors.New("notifier required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(b.config.Password)
	if err != nil {
		return nil, err
	}
	tokens, err := token.NewManager(b.config.Token)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	b.built = true
	return &Engine{
		config:        b.config,
		users:         b.users,
		notifier:      b.notifier,
		log:           logger,
		hasher:        hasher,
		tokens:        tokens,
		verifications: tokenstore.NewVerificationStore(b.redis, b.config.KeyPrefix),
		resets:        tokenstore.NewResetStore(b.redis, b.config.KeyPrefix),
		sessions:      tokenstore.NewRefreshStore(b.redis, b.config.KeyPrefix),
	}, nil
}
