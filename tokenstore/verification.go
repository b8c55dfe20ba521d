package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// saveVerificationLua writes a user's verification code, superseding any
// previous one: the old code's lookup key is deleted so it can never verify
// again once a newer code exists.
//
// KEYS[1] = user key, ARGV[1] = code, ARGV[2] = ttl ms,
// ARGV[3] = code key prefix, ARGV[4] = user id.
//
// Code keys are derived in-script from ARGV, which requires a single-node
// Redis deployment (no cluster hash-slot guarantees).
var saveVerificationLua = redis.NewScript(`
local prev = redis.call('GET', KEYS[1])
if prev then
  redis.call('DEL', ARGV[3] .. prev)
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
redis.call('SET', ARGV[3] .. ARGV[1], ARGV[4], 'PX', ARGV[2])
return 1
`)

// consumeVerificationLua atomically resolves a code to its user and deletes
// it. Of two concurrent consumers of the same code exactly one gets the user
// id; the other sees nil.
//
// KEYS[1] = code key, ARGV[1] = user key prefix, ARGV[2] = code.
var consumeVerificationLua = redis.NewScript(`
local uid = redis.call('GET', KEYS[1])
if not uid then
  return false
end
redis.call('DEL', KEYS[1])
local ukey = ARGV[1] .. uid
if redis.call('GET', ukey) == ARGV[2] then
  redis.call('DEL', ukey)
end
return uid
`)

// VerificationStore holds at most one live email verification code per user,
// resolvable by code value.
type VerificationStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewVerificationStore(rdb redis.UniversalClient, prefix string) *VerificationStore {
	if prefix == "" {
		prefix = "auth"
	}
	return &VerificationStore{rdb: rdb, prefix: prefix}
}

func (s *VerificationStore) codeKey(code string) string { return s.prefix + ":vc:" + code }
func (s *VerificationStore) userKey(uid string) string  { return s.prefix + ":vu:" + uid }

// Save stores code for userID with the given lifetime, replacing the user's
// previous code if one is still live.
func (s *VerificationStore) Save(ctx context.Context, userID, code string, ttl time.Duration) error {
	err := saveVerificationLua.Run(ctx, s.rdb,
		[]string{s.userKey(userID)},
		code, ttl.Milliseconds(), s.prefix+":vc:", userID,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Consume resolves code to the owning user id and deletes the record. A
// missing, expired, superseded, or already-consumed code is ErrNotFound.
func (s *VerificationStore) Consume(ctx context.Context, code string) (string, error) {
	res, err := consumeVerificationLua.Run(ctx, s.rdb,
		[]string{s.codeKey(code)},
		s.prefix+":vu:", code,
	).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	uid, ok := res.(string)
	if !ok || uid == "" {
		return "", fmt.Errorf("%w: unexpected script reply", ErrUnavailable)
	}
	return uid, nil
}
