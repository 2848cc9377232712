package cache

import (
	"context"
	"time"
)

// NullCache disables artifact caching: every lookup misses, so each render
// goes to the engine. Selected by the "none" cache backend.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

// Clear reports that no artifacts were removed.
func (NullCache) Clear(context.Context) (int, error) { return 0, nil }

var (
	_ Cache   = NullCache{}
	_ Clearer = NullCache{}
)
