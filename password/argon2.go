package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const phcPrefix = "$argon2id$"

// Config carries the argon2id cost parameters. Zero values are rejected by
// NewHasher; use DefaultConfig for the recommended baseline.
type Config struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the baseline cost parameters (64 MiB, t=3, p=2).
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher hashes and verifies credentials with argon2id. A Hasher is
// immutable after construction and safe for concurrent use.
type Hasher struct {
	cfg Config
}

// NewHasher validates cfg and returns a Hasher. Costs below the package
// minimums are a configuration error, not a runtime condition.
func NewHasher(cfg Config) (*Hasher, error) {
	switch {
	case cfg.Memory < 8*1024:
		return nil, errors.New("argon2 memory below 8 MiB")
	case cfg.Time < 1:
		return nil, errors.New("argon2 time cost below 1")
	case cfg.Parallelism < 1:
		return nil, errors.New("argon2 parallelism below 1")
	case cfg.SaltLength < 16:
		return nil, errors.New("argon2 salt below 16 bytes")
	case cfg.KeyLength < 16:
		return nil, errors.New("argon2 key below 16 bytes")
	}
	return &Hasher{cfg: cfg}, nil
}

// Hash derives a PHC-encoded digest of plaintext with a fresh random salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.cfg.Time, h.cfg.Memory, h.cfg.Parallelism, h.cfg.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		phcPrefix,
		argon2.Version,
		h.cfg.Memory, h.cfg.Time, h.cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches the PHC-encoded digest. The
// comparison is constant-time over the derived key. A malformed digest is an
// error, not a mismatch.
func (h *Hasher) Verify(plaintext, encoded string) (bool, error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	derived := argon2.IDKey([]byte(plaintext), salt, params.Time, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

// NeedsRehash reports whether encoded was produced with parameters weaker
// than the Hasher's current configuration.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	params, _, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	if params.Memory < h.cfg.Memory || params.Time < h.cfg.Time || params.Parallelism < h.cfg.Parallelism {
		return true, nil
	}
	if uint32(len(key)) != h.cfg.KeyLength {
		return true, nil
	}
	return false, nil
}

func decode(encoded string) (Config, []byte, []byte, error) {
	rest, ok := strings.CutPrefix(encoded, phcPrefix)
	if !ok {
		return Config{}, nil, nil, errors.New("unsupported digest algorithm")
	}

	parts := strings.Split(rest, "$")
	if len(parts) != 4 {
		return Config{}, nil, nil, errors.New("malformed argon2 digest")
	}

	var version int
	if _, err := fmt.Sscanf(parts[0], "v=%d", &version); err != nil {
		return Config{}, nil, nil, errors.New("malformed argon2 version")
	}
	if version != argon2.Version {
		return Config{}, nil, nil, errors.New("unsupported argon2 version")
	}

	var params Config
	if _, err := fmt.Sscanf(parts[1], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Parallelism); err != nil {
		return Config{}, nil, nil, errors.New("malformed argon2 parameters")
	}
	if params.Memory == 0 || params.Time == 0 || params.Parallelism == 0 {
		return Config{}, nil, nil, errors.New("malformed argon2 parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return Config{}, nil, nil, errors.New("malformed argon2 salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return Config{}, nil, nil, errors.New("malformed argon2 key")
	}

	return params, salt, key, nil
}
