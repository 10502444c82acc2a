package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed keys (webhook event ids, client change ids)
type IdempotencyStore interface {
	// MarkProcessed marks key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release forgets key so a failed attempt can be retried
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// DefaultIdempotencyTTL is how long processed keys are remembered
const DefaultIdempotencyTTL = 24 * time.Hour
