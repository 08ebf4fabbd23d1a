package manifest

import "context"

// LoadFunc produces a fresh manifest.
type LoadFunc func(ctx context.Context) (Manifest, error)

// Cache memoizes one manifest for the lifetime of its owner. Once loaded, the
// manifest is returned unchanged until Invalidate is called, so a build run
// never rehashes a file. A Cache is not safe for concurrent use.
type Cache struct {
	load     LoadFunc
	manifest Manifest
	loaded   bool
}

// NewCache creates an empty cache backed by load.
func NewCache(load LoadFunc) *Cache {
	return &Cache{load: load}
}

// Get returns the memoized manifest, loading it on first use. A failed load
// is not memoized.
func (c *Cache) Get(ctx context.Context) (Manifest, error) {
	if c.loaded {
		return c.manifest, nil
	}

	m, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	c.manifest = m
	c.loaded = true
	return m, nil
}

// Loaded reports whether a manifest is memoized.
func (c *Cache) Loaded() bool {
	return c.loaded
}

// Invalidate drops the memoized manifest so the next Get rescans.
func (c *Cache) Invalidate() {
	c.manifest = nil
	c.loaded = false
}
