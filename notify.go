package shelfcache

// NotifyingCache wraps an eviction cache so that every key removal,
// whether requested by the caller or performed internally by the cache's
// own eviction policy, is reported exactly once to a single callback, with
// no other behavior altered.
//
// The wrapped cache reports removals from its lowest-level removal
// primitive (or a native eviction-event subscription), so policy-driven
// evictions that never pass through Delete are still observed.
type NotifyingCache[K comparable, V any] struct {
	inner    EvictionCache[K, V]
	onDelete func(K)
}

// NewNotifying builds the wrapped cache via factory and routes its removal
// notifications to onDelete. A nil onDelete discards notifications.
func NewNotifying[K comparable, V any](factory CacheFactory[K, V], onDelete func(K)) *NotifyingCache[K, V] {
	n := &NotifyingCache[K, V]{onDelete: onDelete}
	n.inner = factory(n.removed)
	return n
}

// removed is the single dispatch point for removal notifications. The inner
// cache calls it after the removal has taken effect.
func (n *NotifyingCache[K, V]) removed(key K) {
	if n.onDelete != nil {
		n.onDelete(key)
	}
}

func (n *NotifyingCache[K, V]) Get(key K) (V, bool) { return n.inner.Get(key) }

func (n *NotifyingCache[K, V]) Set(key K, value V) { n.inner.Set(key, value) }

func (n *NotifyingCache[K, V]) Delete(key K) bool { return n.inner.Delete(key) }

func (n *NotifyingCache[K, V]) Contains(key K) bool { return n.inner.Contains(key) }

func (n *NotifyingCache[K, V]) Len() int { return n.inner.Len() }

func (n *NotifyingCache[K, V]) Cap() int { return n.inner.Cap() }
