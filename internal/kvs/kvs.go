// Package kvs abstracts the shared key-value store the gateway uses for
// rate-limit counters and replay-guard entries. Two implementations satisfy
// the same small interface: an in-memory fake for tests and single-instance
// deployments, and a Redis-backed store for multi-instance deployments that
// must share replay state.
package kvs

import (
	"context"
	"time"
)

// KVS is the capability abstraction the rest of the gateway depends on.
// It intentionally exposes only the four operations the pipeline needs.
type KVS interface {
	// Incr atomically increments the counter at key, setting ttl when the
	// key is created (the Redis store re-applies ttl on every increment),
	// and returns the post-increment value. Used by the rate limiter, where
	// approximate linearizability is acceptable.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// SetNX atomically inserts key with value if absent and returns true,
	// or returns false if key already existed. Used by the replay guard,
	// where this must be a genuine compare-and-set.
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Exists reports whether key is currently present, for the verifier's
	// cheap replay pre-check ahead of the more expensive receipt fetch.
	Exists(ctx context.Context, key string) (bool, error)

	// Ping reports whether the store is reachable, for health probes.
	Ping(ctx context.Context) error
}
