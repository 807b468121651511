package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Loader computes the value for a missing key.
type Loader[K comparable, V any] func(key K) (V, error)

// LoadingCache is an expiring LRU that computes missing entries with a
// loader. A per-cache lock serializes loads, so concurrent callers of the
// same cold key trigger a single load. Errors are not cached.
type LoadingCache[K comparable, V any] struct {
	mu     sync.Mutex
	lru    *expirable.LRU[K, V]
	loader Loader[K, V]
}

func NewLoadingCache[K comparable, V any](size int, ttl time.Duration, loader Loader[K, V]) *LoadingCache[K, V] {
	return &LoadingCache[K, V]{
		lru:    expirable.NewLRU[K, V](size, nil, ttl),
		loader: loader,
	}
}

// Get returns the cached value for key, loading it on a miss.
func (c *LoadingCache[K, V]) Get(key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value, ok := c.lru.Get(key); ok {
		return value, nil
	}
	value, err := c.loader(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.lru.Add(key, value)
	return value, nil
}

// Invalidate drops one key.
func (c *LoadingCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// InvalidateAll drops every cached entry.
func (c *LoadingCache[K, V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the number of cached entries.
func (c *LoadingCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
