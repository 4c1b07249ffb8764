package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of client requests keyed by an Idempotency-Key,
// so a retried POST replays the first response instead of issuing a second sale.
type IdempotencyStore interface {
	// Acquire claims the key for an in-flight request.
	// Returns false if the key is already claimed or completed.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the final response for a claimed key
	Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error

	// Lookup returns the stored response. found is false while the key is unknown or still in flight.
	Lookup(ctx context.Context, key string) (response []byte, found bool, err error)

	// Release drops an in-flight claim so the client may retry
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for request idempotency
type IdempotencyConfig struct {
	// TTL is how long a completed response is replayed
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether the Idempotency-Key header is honored
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
