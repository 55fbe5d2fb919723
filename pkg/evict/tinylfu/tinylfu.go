// Package tinylfu adapts maypok86/otter (W-TinyLFU) caches to shelfcache's
// eviction cache interface.
//
// Unlike the other adapters, removals are observed through otter's native
// deletion-event subscription rather than by wrapping a removal primitive.
// Replacement events are filtered out: overwriting a key is not a removal.
// Otter normally runs its size and expiry maintenance on a background
// goroutine; the adapter pins that work to the mutating goroutine with an
// inline executor, so removal notifications are delivered synchronously and
// the single-goroutine contract of the removal hook holds.
package tinylfu

import (
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/perdura/shelfcache"
)

// Cache is a W-TinyLFU eviction cache backed by otter.
type Cache[K comparable, V any] struct {
	c        *otter.Cache[K, V]
	capacity int
}

// Factory returns a factory producing otter caches of the given capacity.
// A positive ttl expires entries that long after creation; zero disables
// expiry.
func Factory[K comparable, V any](capacity int, ttl time.Duration) shelfcache.CacheFactory[K, V] {
	return func(onRemove func(K)) shelfcache.EvictionCache[K, V] {
		opts := &otter.Options[K, V]{
			MaximumSize: capacity,
			// Maintenance (and with it every deletion event) must run on
			// the goroutine that mutated the cache, not otter's default
			// background executor.
			Executor: func(fn func()) { fn() },
		}
		if ttl > 0 {
			opts.ExpiryCalculator = otter.ExpiryCreating[K, V](ttl)
		}
		if onRemove != nil {
			opts.OnAtomicDeletion = func(e otter.DeletionEvent[K, V]) {
				if e.Cause != otter.CauseReplacement {
					onRemove(e.Key)
				}
			}
		}
		return &Cache[K, V]{c: otter.Must(opts), capacity: capacity}
	}
}

func (t *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := t.c.GetEntry(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.Value, true
}

func (t *Cache[K, V]) Set(key K, value V) { t.c.Set(key, value) }

func (t *Cache[K, V]) Delete(key K) bool {
	if _, ok := t.c.GetEntry(key); !ok {
		return false
	}
	t.c.Invalidate(key)
	return true
}

func (t *Cache[K, V]) Contains(key K) bool {
	_, ok := t.c.GetEntry(key)
	return ok
}

func (t *Cache[K, V]) Len() int { return t.c.EstimatedSize() }

func (t *Cache[K, V]) Cap() int { return t.capacity }
