package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyPrefix = "coretrack:idempotency:"

// RedisIdempotencyStore remembers processed keys with SETNX so that every
// instance sees the same webhook deliveries
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore wraps an existing client. The store does not
// own the client; Close is a no-op.
func NewRedisIdempotencyStore(client redis.UniversalClient) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, keyPrefix: idempotencyPrefix}
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// MarkProcessed returns true only for the first caller of key within ttl
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %q as processed: %w", key, err)
	}
	return ok, nil
}

// IsProcessed reports whether key was marked and has not expired
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %q: %w", key, err)
	}
	return n > 0, nil
}

// Release deletes key
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release %q: %w", key, err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner
func (s *RedisIdempotencyStore) Close() error { return nil }

// NewIdempotencyStore picks the redis store when a client is available and
// falls back to memory otherwise
func NewIdempotencyStore(client redis.UniversalClient, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		logger.Info("using redis idempotency store")
		return NewRedisIdempotencyStore(client)
	}
	logger.Warn("redis not configured, using in-memory idempotency store; " +
		"duplicate webhook deliveries to different instances will not be detected")
	return NewInMemoryIdempotencyStore()
}
