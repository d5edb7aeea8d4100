// Package store defines the shared-store protocol the rate limiter relies on:
// atomic keyed counters with TTL-on-create semantics plus a set collection.
// Implementations must be safe for concurrent use from many goroutines and
// many processes; correctness of the limiter depends on IncrWindow being a
// single indivisible operation on the backing store.
package store

import (
	"context"
	"time"
)

// Store is the client interface over the shared key-value store.
type Store interface {
	// IncrWindow atomically increments the counter at key and returns the
	// new value. The TTL is applied only when this increment created the
	// key, so replays never extend a window's lifetime.
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// GetCount returns the counter at key, or 0 if the key does not exist.
	GetCount(ctx context.Context, key string) (int64, error)

	// TTL returns the remaining lifetime of key. A negative duration means
	// the key does not exist or carries no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// SetAdd adds member to the set at key. Adding an existing member is a no-op.
	SetAdd(ctx context.Context, key, member string) error

	// SetRemove removes member from the set at key. Removing an absent
	// member is a no-op.
	SetRemove(ctx context.Context, key, member string) error

	// SetContains reports whether member is in the set at key.
	SetContains(ctx context.Context, key, member string) (bool, error)

	// SetMembers returns all members of the set at key.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// ScanKeys returns all keys matching the glob pattern ('*' wildcard).
	ScanKeys(ctx context.Context, pattern string) ([]string, error)

	// DeleteKeys removes the given keys and returns how many existed.
	DeleteKeys(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the client.
	Close() error
}
