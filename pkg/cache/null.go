package cache

import (
	"context"
	"time"
)

// NullCache stores nothing: every lookup misses, so each index request goes
// to the network. It backs "--no-cache" and commands such as uninstall that
// never query the index.
//
// Operations still observe ctx, so a cancelled run fails the same way with
// or without a cache.
type NullCache struct{}

var _ Cache = NullCache{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

// Get reports a miss.
func (NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, ctx.Err()
}

// Set discards data.
func (NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return ctx.Err()
}

// Delete has nothing to remove.
func (NullCache) Delete(ctx context.Context, key string) error {
	return ctx.Err()
}

func (NullCache) Close() error { return nil }
