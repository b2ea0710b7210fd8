// Package redis provides the key-value and sorted-set store consumed by the OAuth usage
// analytics engine. It offers a go-redis backed Client and an in-memory MemoryStore that
// implement the same read-only Store interface.
//
// The keys read by the engine are:
//   - session:{id} - active session records (JSON)
//   - analytics:oauth:logins - login events scored by event time (ms)
//   - analytics:oauth:logouts - logout events scored by event time (ms)
//   - analytics:ratelimit - rate-limit snapshots scored by snapshot time (ms)
package redis

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Get when a key does not exist.
// Callers use it to distinguish an expired or deleted key (expected) from a store failure.
var ErrCacheMiss = errors.New("cache miss")

// Store defines the primitives the analytics engine needs from the shared store.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Store interface {
	// Close releases the underlying connections.
	Close() error

	// Ping verifies connectivity to the store.
	Ping(ctx context.Context) error

	// Scan returns one page of keys matching the glob pattern and the cursor for the
	// next page. A returned cursor of 0 signals the iteration is complete; 0 is also
	// the initial cursor. count is a page size hint.
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)

	// Get returns the string value stored at key, or ErrCacheMiss if absent.
	Get(ctx context.Context, key string) (string, error)

	// RangeByScore returns the members of the sorted set at key whose scores fall in
	// [min, max], ordered by ascending score.
	RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error)
}
