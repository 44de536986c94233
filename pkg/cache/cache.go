// Package cache stores HTTP metadata responses between pym runs.
//
// Package index lookups (release lists, wheel URLs) are cached so repeated
// installs do not hit the network. Three backends implement [Cache]:
//
//   - [FileCache]: entries as JSON files under the user cache directory
//   - [RedisCache]: a shared Redis instance, for CI runners and teams
//   - [NullCache]: disables caching
//
// Keys are built by a [Keyer] so that several tools can share one Redis
// database without colliding.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}
