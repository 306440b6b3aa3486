// Package cache stores generated programs and previews.
//
// Synthesis is deterministic for a given text, font, configuration, seed and
// date, so the finished G-code can be reused. Three backends implement
// [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (HTTP service)
//   - [NullCache]: stores nothing (--no-cache)
//
// Keys come from a [Keyer], which hashes every input that affects the output.
package cache

import (
	"context"
	"time"
)

// TTLs for cached entries.
const (
	// ProgramTTL is how long generated programs are kept.
	ProgramTTL = 30 * 24 * time.Hour
	// PreviewTTL is how long rendered previews are kept.
	PreviewTTL = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the data stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}

// NullCache misses on every Get and drops every Set.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
