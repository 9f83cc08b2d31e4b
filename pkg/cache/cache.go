// Package cache stores derived results keyed by content hash.
//
// The pipeline caches validation reports so that repeated validation of an
// unchanged document is a single lookup. Keys come from [Key], which hashes
// a namespace plus arbitrary JSON-encodable parts.
//
// Three implementations are provided:
//
//   - [NullCache] never stores anything and is the default.
//   - [MemoryCache] keeps entries in process, for the HTTP server.
//   - [FileCache] keeps entries on disk, for the CLI.
package cache

import (
	"context"
	"time"
)

// TTLValidation is how long validation reports stay cached.
const TTLValidation = 24 * time.Hour

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired and
	// unreadable entries count as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
