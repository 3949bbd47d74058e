package kernel

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// SelectionCache memoizes Registry.Select results keyed by
// (family, nameHint, dataSize), so a hot dispatch path that calls the
// same primitive thousands of times per second doesn't re-walk the
// registry's entry list on every call.
type SelectionCache struct {
	c *ristretto.Cache[string, *Entry]
}

// NewSelectionCache creates a cache sized for roughly maxEntries distinct
// selection keys. maxEntries ≤ 0 uses a small built-in default.
func NewSelectionCache(maxEntries int64) (*SelectionCache, error) {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *Entry]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("kernel: create selection cache: %w", err)
	}
	return &SelectionCache{c: c}, nil
}

func selectionKey(family Family, nameHint string, dataSize int) string {
	return fmt.Sprintf("%d|%s|%d", family, nameHint, sizeBucket(dataSize))
}

// sizeBucket rounds dataSize into a power-of-two bucket so selection
// cache keys stay stable across near-identical call sizes instead of
// missing on every distinct tensor length.
func sizeBucket(dataSize int) int {
	if dataSize <= 0 {
		return 0
	}
	b := 1
	for b < dataSize {
		b <<= 1
	}
	return b
}

// Get returns a cached selection, if present.
func (s *SelectionCache) Get(family Family, nameHint string, dataSize int) (*Entry, bool) {
	return s.c.Get(selectionKey(family, nameHint, dataSize))
}

// Set records a selection result for future lookups.
func (s *SelectionCache) Set(family Family, nameHint string, dataSize int, e *Entry) {
	s.c.Set(selectionKey(family, nameHint, dataSize), e, 1)
}

// Close releases the cache's background goroutines.
func (s *SelectionCache) Close() { s.c.Close() }

// SelectCached wraps Registry.Select with the selection cache: a cache
// hit skips the registry walk entirely.
func (r *Registry) SelectCached(cache *SelectionCache, family Family, nameHint string, dataSize int) (*Entry, error) {
	if cache == nil {
		return r.Select(family, nameHint, dataSize)
	}
	if e, ok := cache.Get(family, nameHint, dataSize); ok {
		return e, nil
	}
	e, err := r.Select(family, nameHint, dataSize)
	if err != nil {
		return nil, err
	}
	cache.Set(family, nameHint, dataSize, e)
	return e, nil
}
