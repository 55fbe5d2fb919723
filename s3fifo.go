package shelfcache

import (
	"container/list"
	"sync"
)

const defaultCapacity = 10000

// NewS3FIFO returns a factory producing S3-FIFO eviction caches of the
// given capacity. Every removal, explicit delete and queue eviction alike,
// funnels through a single removal primitive, so the onRemove hook observes
// each exactly once. Capacities below 1 fall back to a default.
func NewS3FIFO[K comparable, V any](capacity int) CacheFactory[K, V] {
	return func(onRemove func(K)) EvictionCache[K, V] {
		return newS3FIFO[K, V](capacity, onRemove)
	}
}

// s3fifo implements the S3-FIFO eviction algorithm.
// S3-FIFO uses three queues: Small (10%), Main (90%), and Ghost (for
// frequency tracking). Items start in Small, get promoted to Main if
// accessed again, and Ghost tracks evicted keys.
type s3fifo[K comparable, V any] struct {
	mu sync.Mutex

	capacity int
	smallCap int // 10% of capacity
	ghostCap int // Same as capacity for frequency tracking

	onRemove func(K)

	items map[K]*s3entry[K, V] // Fast lookup

	small *list.List // Small queue (FIFO)
	main  *list.List // Main queue (FIFO)
	ghost *list.List // Ghost queue (tracks recently evicted keys)

	ghostKeys map[K]*list.Element // Fast ghost lookup
}

// s3entry represents a cached item with queue metadata.
type s3entry[K comparable, V any] struct {
	key     K
	value   V
	freq    int  // Frequency counter
	inSmall bool // True if in small queue, false if in main
	element *list.Element
}

func newS3FIFO[K comparable, V any](capacity int, onRemove func(K)) *s3fifo[K, V] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	smallCap := capacity / 10
	if smallCap < 1 {
		smallCap = 1
	}

	return &s3fifo[K, V]{
		capacity:  capacity,
		smallCap:  smallCap,
		ghostCap:  capacity,
		onRemove:  onRemove,
		items:     make(map[K]*s3entry[K, V]),
		small:     list.New(),
		main:      list.New(),
		ghost:     list.New(),
		ghostKeys: make(map[K]*list.Element),
	}
}

// dropped is the single removal primitive: every path that takes an entry
// out of the items map ends here, after the removal has taken effect.
func (c *s3fifo[K, V]) dropped(key K) {
	if c.onRemove != nil {
		c.onRemove(key)
	}
}

func (c *s3fifo[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	// Increment frequency counter (used during eviction)
	ent.freq++

	return ent.value, true
}

func (c *s3fifo[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Update existing entry
	if ent, ok := c.items[key]; ok {
		ent.value = value
		ent.freq++
		return
	}

	// Check if key is in ghost queue (previously evicted)
	inGhost := false
	if ghostElem, ok := c.ghostKeys[key]; ok {
		inGhost = true
		c.ghost.Remove(ghostElem)
		delete(c.ghostKeys, key)
	}

	ent := &s3entry[K, V]{
		key:     key,
		value:   value,
		freq:    0,
		inSmall: !inGhost, // If in ghost, promote directly to main
	}

	// Evict if necessary
	if len(c.items) >= c.capacity {
		c.evict()
	}

	if ent.inSmall {
		ent.element = c.small.PushBack(ent)
	} else {
		ent.element = c.main.PushBack(ent)
	}

	c.items[key] = ent
}

func (c *s3fifo[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		return false
	}

	if ent.inSmall {
		c.small.Remove(ent.element)
	} else {
		c.main.Remove(ent.element)
	}

	delete(c.items, key)
	c.dropped(key)
	return true
}

func (c *s3fifo[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

func (c *s3fifo[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *s3fifo[K, V]) Cap() int {
	return c.capacity
}

// evict removes one item according to the S3-FIFO algorithm.
func (c *s3fifo[K, V]) evict() {
	if c.small.Len() > 0 {
		c.evictFromSmall()
		return
	}
	c.evictFromMain()
}

func (c *s3fifo[K, V]) evictFromSmall() {
	for c.small.Len() > 0 {
		elem := c.small.Front()
		ent := elem.Value.(*s3entry[K, V])

		c.small.Remove(elem)

		// If accessed (freq > 0), promote to main queue
		if ent.freq > 0 {
			ent.freq = 0
			ent.inSmall = false
			ent.element = c.main.PushBack(ent)
			continue
		}

		// Evict, remember in ghost, and report the removal
		delete(c.items, ent.key)
		c.addToGhost(ent.key)
		c.dropped(ent.key)
		return
	}
}

func (c *s3fifo[K, V]) evictFromMain() {
	for c.main.Len() > 0 {
		elem := c.main.Front()
		ent := elem.Value.(*s3entry[K, V])

		c.main.Remove(elem)

		// If accessed (freq > 0), move to back of main queue
		if ent.freq > 0 {
			ent.freq--
			ent.element = c.main.PushBack(ent)
			continue
		}

		delete(c.items, ent.key)
		c.addToGhost(ent.key)
		c.dropped(ent.key)
		return
	}
}

// addToGhost adds a key to the ghost queue for frequency tracking.
func (c *s3fifo[K, V]) addToGhost(key K) {
	// Evict from ghost if at capacity
	if c.ghost.Len() >= c.ghostCap {
		elem := c.ghost.Front()
		ghostKey := elem.Value.(K)
		c.ghost.Remove(elem)
		delete(c.ghostKeys, ghostKey)
	}

	elem := c.ghost.PushBack(key)
	c.ghostKeys[key] = elem
}
