package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rotateRefreshLua is the rotation primitive: compare the presented digest
// against the stored one and delete the record on match, in one step. Two
// refresh attempts racing on the same stored token get exactly one winner;
// the loser observes nil or a mismatch.
//
// KEYS[1] = session key, ARGV[1] = presented digest.
var rotateRefreshLua = redis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then
  return false
end
if stored ~= ARGV[1] then
  return 'mismatch'
end
redis.call('DEL', KEYS[1])
return 'ok'
`)

// RefreshStore keeps the digest of each user's single active refresh token.
// Put is an upsert: a new login replaces whatever session existed before.
type RefreshStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRefreshStore(rdb redis.UniversalClient, prefix string) *RefreshStore {
	if prefix == "" {
		prefix = "auth"
	}
	return &RefreshStore{rdb: rdb, prefix: prefix}
}

func (s *RefreshStore) key(uid string) string { return s.prefix + ":rs:" + uid }

// Put stores digest as userID's active session, replacing any previous one.
func (s *RefreshStore) Put(ctx context.Context, userID, digest string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(userID), digest, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the stored digest for userID, or ErrNotFound.
func (s *RefreshStore) Get(ctx context.Context, userID string) (string, error) {
	digest, err := s.rdb.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return digest, nil
}

// Rotate atomically deletes userID's session if its digest matches the
// presented one. ErrNotFound when no live session exists, ErrMismatch when
// the digests differ; in both cases nothing is deleted except by TTL.
func (s *RefreshStore) Rotate(ctx context.Context, userID, digest string) error {
	res, err := rotateRefreshLua.Run(ctx, s.rdb, []string{s.key(userID)}, digest).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	reply, _ := res.(string)
	switch reply {
	case "ok":
		return nil
	case "mismatch":
		return ErrMismatch
	default:
		return fmt.Errorf("%w: unexpected script reply", ErrUnavailable)
	}
}

// Delete removes userID's session. Deleting an absent session is a no-op.
func (s *RefreshStore) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
