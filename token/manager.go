package token

import (
	"bytes"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalid is returned for tokens that fail signature, issuer, or
	// structural validation.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired is returned for well-formed, correctly signed tokens whose
	// expiry has passed.
	ErrExpired = errors.New("token expired")
)

// Config holds the signing material and lifetimes for both token classes.
// AccessSecret and RefreshSecret must differ; sharing one secret would let a
// refresh token authorize API calls directly.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Claims is the minimal claim set carried by both token classes.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager mints and parses tokens. Immutable after construction; safe for
// concurrent use.
type Manager struct {
	cfg Config
}

// NewManager validates cfg and returns a Manager. Missing or shared secrets
// and non-positive lifetimes are configuration errors.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("both token secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway")
	}
	return &Manager{cfg: cfg}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// IssueAccess mints a signed access token for subject.
func (m *Manager) IssueAccess(subject string) (string, error) {
	return m.sign(subject, m.cfg.AccessSecret, m.cfg.AccessTTL)
}

// IssueRefresh mints a signed refresh token for subject.
func (m *Manager) IssueRefresh(subject string) (string, error) {
	return m.sign(subject, m.cfg.RefreshSecret, m.cfg.RefreshTTL)
}

// ParseAccess verifies an access token and returns its subject.
func (m *Manager) ParseAccess(tokenStr string) (string, error) {
	return m.parse(tokenStr, m.cfg.AccessSecret)
}

// ParseRefresh verifies a refresh token and returns its subject.
func (m *Manager) ParseRefresh(tokenStr string) (string, error) {
	return m.parse(tokenStr, m.cfg.RefreshSecret)
}

func (m *Manager) sign(subject string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *Manager) parse(tokenStr string, secret []byte) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.cfg.Leeway))
	}
	if m.cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.cfg.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}
