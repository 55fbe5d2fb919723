package shelfcache

// EvictionCache is the capability surface a wrapped in-memory cache must
// provide. It is deliberately a closed set of operations rather than
// open-ended forwarding: get, set, delete, membership and the read-only
// size/capacity introspection a consumer actually needs.
//
// Implementations own their eviction policy entirely; this package never
// makes eviction decisions.
type EvictionCache[K comparable, V any] interface {
	// Get returns the value stored under key.
	Get(key K) (V, bool)

	// Set stores value under key. It may evict another entry according to
	// the cache's policy.
	Set(key K, value V)

	// Delete removes key, reporting whether it was present.
	Delete(key K) bool

	// Contains reports whether key is present without touching recency or
	// frequency state where the implementation allows it.
	Contains(key K) bool

	// Len returns the number of cached entries.
	Len() int

	// Cap returns the maximum number of entries the cache will hold.
	Cap() int
}

// CacheFactory constructs an eviction cache with its policy parameters
// already bound. When onRemove is non-nil the returned cache must invoke it
// exactly once for every key removal, explicit or triggered by its own
// eviction policy, after the removal has taken effect. When onRemove is
// nil, removals go unobserved and the cache runs bare.
type CacheFactory[K comparable, V any] func(onRemove func(K)) EvictionCache[K, V]
