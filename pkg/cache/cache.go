// Package cache stores rendered diagram artifacts keyed by a hash of the
// engine, dialect, theme and source that produced them.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entries under the XDG cache directory, for the CLI
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: disables caching
//
// Keys are built by a [Keyer] so that every backend agrees on the layout:
//
//	key := cache.NewDefaultKeyer().ArtifactKey("graphviz", "dot", "default", source)
//	svg, ok, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the lifetime of a cached artifact.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key-value cache with per-entry expiration.
type Cache interface {
	// Get retrieves a value. The bool reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey identifies the SVG produced by engine for source written
	// in dialect.
	ArtifactKey(engine, dialect, theme, source string) string
}

// DefaultKeyer generates unscoped keys of the form "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey hashes the engine name, dialect, theme and source together.
func (DefaultKeyer) ArtifactKey(engine, dialect, theme, source string) string {
	return "artifact:" + digest(engine, dialect, theme, source)
}
