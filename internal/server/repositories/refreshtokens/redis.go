package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "notekeeper:revoked"

// RedisStore keeps one key per revoked fingerprint. The key's TTL is the
// remaining lifetime of the token, so Redis drops it on its own.
type RedisStore struct {
	redis  redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store using client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{redis: client, prefix: redisKeyPrefix, now: time.Now}
}

func (s *RedisStore) key(fingerprint string) string {
	return s.prefix + ":" + fingerprint
}

// Revoke stores the expiry as unix seconds. Already expired tokens are
// skipped since they can't be replayed anyway.
func (s *RedisStore) Revoke(ctx context.Context, fingerprint string, expires time.Time) error {
	ttl := expires.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.SetNX(ctx, s.key(fingerprint), expires.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, fingerprint string) (*models.RevokedToken, error) {
	unix, err := s.redis.Get(ctx, s.key(fingerprint)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return &models.RevokedToken{Fingerprint: fingerprint, Expires: time.Unix(unix, 0)}, nil
}

// IsRevoked reports whether an unexpired record exists. Key TTLs have
// second granularity, so the stored expiry is checked as well.
func (s *RedisStore) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	token, err := s.Find(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return token.Expires.After(s.now()), nil
}

// DeleteExpired is a no-op; key TTLs do the purging.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
