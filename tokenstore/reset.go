package tokenstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// createResetLua creates a reset record only when the user has no live one,
// which is what suppresses token flooding on repeated forget-password
// requests. Expired records disappear via TTL, so a resend after expiry
// creates a fresh record.
//
// KEYS[1] = user key, ARGV[1] = reset id, ARGV[2] = record,
// ARGV[3] = ttl ms, ARGV[4] = id key prefix.
var createResetLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
redis.call('SET', ARGV[4] .. ARGV[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// consumeResetLua compares the presented secret digest against the stored
// record and deletes both keys on match. A mismatch leaves the record in
// place; wrong guesses do not burn the token.
//
// KEYS[1] = id key, ARGV[1] = secret digest (64 hex chars),
// ARGV[2] = user key prefix.
var consumeResetLua = redis.NewScript(`
local rec = redis.call('GET', KEYS[1])
if not rec then
  return false
end
local stored = string.sub(rec, 1, 64)
local uid = string.sub(rec, 66)
if stored ~= ARGV[1] then
  return 'mismatch'
end
redis.call('DEL', KEYS[1])
redis.call('DEL', ARGV[2] .. uid)
return 'ok:' .. uid
`)

// ResetStore holds at most one live password reset record per user. Records
// carry only the SHA-256 digest of the token's secret half, keyed by the
// token's id half.
type ResetStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewResetStore(rdb redis.UniversalClient, prefix string) *ResetStore {
	if prefix == "" {
		prefix = "auth"
	}
	return &ResetStore{rdb: rdb, prefix: prefix}
}

func (s *ResetStore) idKey(id string) string    { return s.prefix + ":rt:" + id }
func (s *ResetStore) userKey(uid string) string { return s.prefix + ":ru:" + uid }

// Create stores a reset record for userID unless a live one already exists.
// The returned bool reports whether a record was created; false means the
// request was suppressed and no email should be sent.
func (s *ResetStore) Create(ctx context.Context, userID, resetID, secretDigest string, ttl time.Duration) (bool, error) {
	if len(secretDigest) != 64 {
		return false, fmt.Errorf("%w: bad secret digest length", ErrUnavailable)
	}

	res, err := createResetLua.Run(ctx, s.rdb,
		[]string{s.userKey(userID)},
		resetID, secretDigest+":"+userID, ttl.Milliseconds(), s.prefix+":rt:",
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res == 1, nil
}

// Consume validates the presented secret digest for resetID and, on match,
// deletes the record and returns the owning user id. A missing or expired
// record is ErrNotFound; a live record with the wrong digest is ErrMismatch.
func (s *ResetStore) Consume(ctx context.Context, resetID, secretDigest string) (string, error) {
	res, err := consumeResetLua.Run(ctx, s.rdb,
		[]string{s.idKey(resetID)},
		secretDigest, s.prefix+":ru:",
	).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	reply, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected script reply", ErrUnavailable)
	}
	if reply == "mismatch" {
		return "", ErrMismatch
	}
	uid, ok := strings.CutPrefix(reply, "ok:")
	if !ok || uid == "" {
		return "", fmt.Errorf("%w: unexpected script reply", ErrUnavailable)
	}
	return uid, nil
}
