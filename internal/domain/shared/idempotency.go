package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys of work that already ran, such as a
// tenant's daily due-check, so that repeated triggers are no-ops.
type IdempotencyStore interface {
	// MarkProcessed records key with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether key is currently marked
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes key so that the work may run again
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
