package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// guardNamespace separates guard keys from lock keys under the prefix
const guardNamespace = "guard:"

// RedisIdempotencyStore shares guard keys between replicas, so a tenant's
// daily due-check runs once no matter which instance fires it.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisIdempotencyStore uses client without taking ownership of it.
// An empty keyPrefix falls back to KeyPrefix.
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = KeyPrefix
	}
	return &RedisIdempotencyStore{client: client, prefix: keyPrefix + guardNamespace}
}

func (s *RedisIdempotencyStore) key(k string) string { return s.prefix + k }

// MarkProcessed claims key with SET NX, so concurrent replicas race on a
// single Redis write.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimed, err := s.client.SetNX(ctx, s.key(key), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim guard %q: %w", key, err)
	}
	return claimed, nil
}

func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("check guard %q: %w", key, err)
	}
	return n == 1, nil
}

func (s *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("release guard %q: %w", key, err)
	}
	return nil
}

// Close leaves the client open; Backend.Close owns it
func (s *RedisIdempotencyStore) Close() error { return nil }
