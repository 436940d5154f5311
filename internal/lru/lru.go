// Package lru provides a fixed-capacity cache with least-recently-used eviction.
package lru

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a bounded key/value store. Every entry costs one unit of capacity;
// once the store holds more than its capacity the least recently accessed
// entry is evicted. It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	store *lru.Cache[K, V]
}

// New creates a Cache holding at most capacity entries.
func New[K comparable, V any](capacity int) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("lru: capacity must be positive, got %d", capacity)
	}
	store, err := lru.New[K, V](capacity)
	if err != nil {
		return nil, fmt.Errorf("lru: creating cache: %w", err)
	}
	return &Cache[K, V]{store: store}, nil
}

// Get returns the value stored under key and marks it most recently used.
// A miss returns the zero value and false.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.store.Get(key)
}

// Set stores value under key, replacing any existing value.
// It reports whether an entry was evicted to make room.
func (c *Cache[K, V]) Set(key K, value V) bool {
	return c.store.Add(key, value)
}

// Contains reports whether key is present without updating its recency.
func (c *Cache[K, V]) Contains(key K) bool {
	return c.store.Contains(key)
}

// Keys returns the cached keys from least to most recently used.
func (c *Cache[K, V]) Keys() []K {
	return c.store.Keys()
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	return c.store.Len()
}
