// Package secrets generates and encodes the random artifacts used by the
// credential flows: numeric verification codes, opaque reset tokens, and
// token digests. All randomness comes from crypto/rand.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

const (
	resetIDSize     = 16
	resetSecretSize = 32
	resetTokenSize  = resetIDSize + resetSecretSize
)

// ErrMalformedToken is returned by ParseResetToken for input that is not a
// well-formed reset token. Callers should treat it as an invalid token, not
// as an infrastructure failure.
var ErrMalformedToken = errors.New("malformed token")

// NewCode returns a fixed-width numeric code with the given number of
// digits. Leading zeros are preserved.
func NewCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("code digits out of range")
	}

	var b strings.Builder
	b.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// IsCode reports whether s looks like a code produced by NewCode with the
// given width.
func IsCode(s string, digits int) bool {
	if len(s) != digits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NewResetToken mints an opaque reset token. The returned token is a
// base64url string carrying a random record id followed by a random secret.
// Only the id and the SHA-256 digest of the secret are ever stored; the full
// token exists server-side exactly once, in the value returned here.
func NewResetToken() (id, token, secretDigest string, err error) {
	var raw [resetTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", "", "", err
	}

	id = base64.RawURLEncoding.EncodeToString(raw[:resetIDSize])
	token = base64.RawURLEncoding.EncodeToString(raw[:])
	sum := sha256.Sum256(raw[resetIDSize:])
	return id, token, hex.EncodeToString(sum[:]), nil
}

// ParseResetToken splits a presented reset token back into the record id and
// the digest of the embedded secret.
func ParseResetToken(token string) (id, secretDigest string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", ErrMalformedToken
	}
	if len(raw) != resetTokenSize {
		return "", "", ErrMalformedToken
	}

	sum := sha256.Sum256(raw[resetIDSize:])
	return base64.RawURLEncoding.EncodeToString(raw[:resetIDSize]), hex.EncodeToString(sum[:]), nil
}

// HashToken returns the hex SHA-256 digest of a raw bearer token. Used for
// refresh tokens, which are persisted only as a digest.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
