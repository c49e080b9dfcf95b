// Package cache holds short-lived key/value state: scan locks, the per-employee
// report draft slot and saved report-log filters.
package cache

import (
	"context"
	"time"
)

// Store is a key/value store with per-key expiry. A zero ttl means the key
// does not expire.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}
