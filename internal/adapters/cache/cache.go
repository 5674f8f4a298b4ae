// Package cache provides the best-effort cache-aside layer for read results.
//
// Every operation is advisory: a backend failure degrades to a miss (or a
// no-op for writes), is counted in metrics and logged at debug level, and is
// never surfaced to callers. Correctness always falls back to the durable
// store; only latency depends on this package.
package cache

import (
	"context"
	"time"
)

// Cache is the string-keyed snapshot store consumed by the service layer.
type Cache interface {
	// Get returns the cached value and true on a hit; (nil, false) on a miss
	// or any backend failure.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key with the given TTL. Best-effort.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Invalidate removes the given keys, returning how many were deleted.
	Invalidate(ctx context.Context, keys ...string) int

	// InvalidateByPrefix removes every key sharing prefix, returning how many
	// were deleted.
	InvalidateByPrefix(ctx context.Context, prefix string) int

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Noop is the cache used when caching is disabled: every read misses.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, bool)           { return nil, false }
func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {}
func (Noop) Invalidate(ctx context.Context, keys ...string) int           { return 0 }
func (Noop) InvalidateByPrefix(ctx context.Context, prefix string) int    { return 0 }
func (Noop) Ping(ctx context.Context) error                               { return nil }
func (Noop) Close() error                                                 { return nil }

var _ Cache = Noop{}
