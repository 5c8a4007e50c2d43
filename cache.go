package formulas

import (
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache memoizes the results of formulas, keyed by their text after variable
// substitution. Implementations must be safe for concurrent use.
type Cache interface {
	// Lookup returns the stored result for a formula, if there is one.
	Lookup(key string) (float64, bool)
	// Store records the result of a formula.
	Store(key string, v float64)
}

// Bounded is implemented by caches which hold a limited number of results. An
// Engine limits its memory of earlier calls to the capacity of its cache.
type Bounded interface {
	// Capacity returns the number of results the cache holds, or 0 if there
	// is no limit.
	Capacity() int64
}

// MapCache is a Cache which never evicts. It suits hosts whose formulas come
// from configuration, where the number of distinct formulas is bounded. The
// zero value is ready to use.
type MapCache struct {
	mu sync.RWMutex
	m  map[string]float64
}

// NewMapCache creates an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{m: make(map[string]float64)}
}

// Lookup returns the stored result for a formula.
func (c *MapCache) Lookup(key string) (float64, bool) {
	c.mu.RLock()
	v, ok := c.m[key]
	c.mu.RUnlock()
	return v, ok
}

// Store records the result of a formula.
func (c *MapCache) Store(key string, v float64) {
	c.mu.Lock()
	if c.m == nil {
		c.m = make(map[string]float64)
	}
	c.m[key] = v
	c.mu.Unlock()
}

// Len returns the number of stored results.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// BoundedCache is a Cache holding at most a fixed number of results, for hosts
// which build formulas at run time. Entries are admitted and evicted by
// frequency.
type BoundedCache struct {
	c *ristretto.Cache[string, float64]
}

// NewBoundedCache creates a cache holding up to size results.
func NewBoundedCache(size int64) (*BoundedCache, error) {
	if size < 1 {
		size = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, float64]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
		// Every entry costs 1, so MaxCost is a count of entries.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &BoundedCache{c: c}, nil
}

// Lookup returns the stored result for a formula.
func (c *BoundedCache) Lookup(key string) (float64, bool) {
	return c.c.Get(key)
}

// Store records the result of a formula. The cache may decline to admit it.
// Store waits for the write to be applied, so a following Lookup sees it if it
// was admitted.
func (c *BoundedCache) Store(key string, v float64) {
	c.c.Set(key, v, 1)
	c.c.Wait()
}

// Capacity returns the number of results the cache holds.
func (c *BoundedCache) Capacity() int64 {
	return c.c.MaxCost()
}

// Close releases the resources of the cache.
func (c *BoundedCache) Close() {
	c.c.Close()
}

var (
	_ Cache = (*MapCache)(nil)
	_ Cache = (*BoundedCache)(nil)

	_ Bounded = (*BoundedCache)(nil)
)
