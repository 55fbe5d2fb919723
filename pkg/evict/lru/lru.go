// Package lru adapts hashicorp/golang-lru caches to shelfcache's eviction
// cache interface.
package lru

import (
	hlru "github.com/hashicorp/golang-lru/v2"

	"github.com/perdura/shelfcache"
)

const defaultSize = 10000

// Cache is a fixed-size LRU eviction cache.
type Cache[K comparable, V any] struct {
	c    *hlru.Cache[K, V]
	size int
}

// Factory returns a factory producing LRU caches of the given capacity.
// golang-lru invokes its eviction callback on every removal path (explicit
// Remove, Purge, and capacity eviction alike), which is exactly the
// interception point the removal hook needs. Capacities below 1 fall back
// to a default.
func Factory[K comparable, V any](size int) shelfcache.CacheFactory[K, V] {
	if size <= 0 {
		size = defaultSize
	}
	return func(onRemove func(K)) shelfcache.EvictionCache[K, V] {
		var cb func(K, V)
		if onRemove != nil {
			cb = func(key K, _ V) { onRemove(key) }
		}
		c, err := hlru.NewWithEvict[K, V](size, cb)
		if err != nil {
			// Unreachable: size is validated above.
			panic(err)
		}
		return &Cache[K, V]{c: c, size: size}
	}
}

func (l *Cache[K, V]) Get(key K) (V, bool) { return l.c.Get(key) }

func (l *Cache[K, V]) Set(key K, value V) { l.c.Add(key, value) }

func (l *Cache[K, V]) Delete(key K) bool { return l.c.Remove(key) }

func (l *Cache[K, V]) Contains(key K) bool { return l.c.Contains(key) }

func (l *Cache[K, V]) Len() int { return l.c.Len() }

func (l *Cache[K, V]) Cap() int { return l.size }
