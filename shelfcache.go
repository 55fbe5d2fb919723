// Package shelfcache layers disk-backed persistence onto in-memory eviction
// caches, so cache contents survive process restarts without changing the
// cache's call contract.
//
// A PersistentCache wraps an arbitrary eviction cache (LRU, S3-FIFO,
// W-TinyLFU, anything satisfying EvictionCache) and mirrors every mutation
// into a backing store: sets are written through, deletions and policy
// evictions prune the mirrored record, and on first use the store's contents
// are replayed into memory. Eviction decisions are deferred entirely to the
// wrapped cache; the mirror follows them via the removal hook.
//
// The design is single-threaded and synchronous: a backing name is a
// process-exclusive resource and a PersistentCache must not be shared across
// goroutines without external synchronization. Values mutated in place after
// a Set are not observed by the mirror; re-Set a value to persist changes.
package shelfcache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/perdura/shelfcache/pkg/store"
)

type state int

const (
	stateUninitialized state = iota // store not yet opened
	stateActive                     // store open, or persistence disabled
	stateClosed                     // store released
)

// PersistentCache presents the operation surface of a plain eviction cache
// while transparently mirroring every mutation to a backing store and
// rehydrating from that store on first use.
//
// Constructed without a store option, it behaves identically to the bare
// wrapped cache: no store is ever opened and deletions are never hooked.
type PersistentCache[K comparable, V any] struct {
	cache   EvictionCache[K, V]
	opener  StoreOpener
	render  KeyRenderer[K]
	store   store.Store
	opCtx   context.Context //nolint:containedctx // carries the caller's ctx into the removal hook
	hookErr error
	state   state
}

// New creates a persistent cache around the eviction cache built by factory.
// The backing store, if any, is opened lazily on the first operation.
func New[K comparable, V any](factory CacheFactory[K, V], opts ...Option[K]) *PersistentCache[K, V] {
	o := defaultOptions[K]()
	for _, opt := range opts {
		opt(o)
	}

	c := &PersistentCache[K, V]{
		opener: o.opener,
		render: o.render,
	}

	if o.opener == nil {
		// Persistence disabled: run the wrapped cache bare, with no
		// removal hook and permanently active.
		c.cache = factory(nil)
		c.state = stateActive
		return c
	}

	c.cache = NewNotifying(factory, c.mirrorDelete)
	return c
}

// ensure performs the Uninitialized -> Active transition: open the store,
// replay every persisted record into the in-memory cache, drop records that
// no longer decode. Replay may trigger policy evictions in the wrapped
// cache; those fire the removal hook and prune the mirror to match, so the
// on-disk state self-corrects to the cache's policy.
func (c *PersistentCache[K, V]) ensure(ctx context.Context) error {
	switch c.state {
	case stateActive:
		return nil
	case stateClosed:
		return ErrClosed
	case stateUninitialized:
	}

	st, err := c.opener(ctx)
	if err != nil {
		return &StoreError{Op: "open", Err: err}
	}

	// Snapshot the store before inserting anything: replay-triggered
	// evictions mutate the store through the hook, and iteration is
	// one-shot.
	type loaded struct {
		key   K
		value V
	}
	var (
		records []loaded
		damaged []string
	)
	err = st.All(ctx, func(skey string, data []byte) error {
		key, value, derr := decodeRecord[K, V](data)
		if derr != nil {
			slog.Warn("skipping undecodable cache record", "store_key", skey, "error", derr)
			damaged = append(damaged, skey)
			return nil
		}
		records = append(records, loaded{key: key, value: value})
		return nil
	})
	if err != nil {
		cerr := st.Close()
		return &StoreError{Op: "load", Err: errors.Join(err, cerr)}
	}

	c.store = st
	c.state = stateActive
	c.opCtx = ctx

	for _, skey := range damaged {
		if derr := st.Delete(ctx, skey); derr != nil && !errors.Is(derr, store.ErrNotFound) {
			slog.Warn("failed to drop undecodable cache record", "store_key", skey, "error", derr)
		}
	}

	for _, r := range records {
		c.cache.Set(r.key, r.value)
	}
	c.hookErr = nil // replay-time mirror pruning is best-effort

	return nil
}

// mirrorDelete is the removal hook: it runs after any key leaves the
// in-memory cache and removes the corresponding store record. A record
// already absent from the store is fine (a crash between mutation and
// mirror can leave either side ahead).
func (c *PersistentCache[K, V]) mirrorDelete(key K) {
	if c.store == nil {
		return
	}
	ctx := c.opCtx
	if ctx == nil {
		ctx = context.Background()
	}
	skey := storeKey(c.render, key)
	if err := c.store.Delete(ctx, skey); err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("failed to prune mirrored cache record", "store_key", skey, "error", err)
		c.hookErr = errors.Join(c.hookErr, &StoreError{Op: "delete", Err: err})
	}
}

// takeHookErr returns and clears any store failure recorded by the removal
// hook. Every public operation drains it on the way out, so a failure is
// returned by the operation whose removals caused it and never leaks into a
// later one.
func (c *PersistentCache[K, V]) takeHookErr() error {
	err := c.hookErr
	c.hookErr = nil
	return err
}

// begin runs the lazy-init transition and stashes the operation context for
// the removal hook.
func (c *PersistentCache[K, V]) begin(ctx context.Context) error {
	if err := c.ensure(ctx); err != nil {
		return err
	}
	c.opCtx = ctx
	return nil
}

// Get retrieves a value from the in-memory cache. The store is never read
// after the initial replay, so a miss is a miss. Wrapped caches that expire
// entries during reads can trigger the removal hook here; a store failure
// from such a removal is returned alongside the result.
//
//nolint:gocritic // unnamedResult - public API signature is intentionally clear without named returns
func (c *PersistentCache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	if err := c.begin(ctx); err != nil {
		var zero V
		return zero, false, err
	}
	v, ok := c.cache.Get(key)
	return v, ok, c.takeHookErr()
}

// Contains reports whether key is in the in-memory cache.
func (c *PersistentCache[K, V]) Contains(ctx context.Context, key K) (bool, error) {
	if err := c.begin(ctx); err != nil {
		return false, err
	}
	return c.cache.Contains(key), c.takeHookErr()
}

// Set stores a value in the in-memory cache and, when persistence is
// enabled, durably mirrors it to the store before returning.
//
// Memory is always updated first: a returned *StoreError or *EncodingError
// means the value is cached but not durably persisted. If the in-memory
// write evicts another key, that key's store record is removed as a side
// effect of the eviction hook.
func (c *PersistentCache[K, V]) Set(ctx context.Context, key K, value V) error {
	if err := c.begin(ctx); err != nil {
		return err
	}

	c.cache.Set(key, value)

	if c.store == nil {
		return nil
	}

	data, err := encodeRecord(key, value)
	if err != nil {
		return errors.Join(err, c.takeHookErr())
	}
	skey := storeKey(c.render, key)
	if err := c.store.Set(ctx, skey, data); err != nil {
		return errors.Join(&StoreError{Op: "write", Err: err}, c.takeHookErr())
	}
	if err := c.store.Sync(ctx); err != nil {
		return errors.Join(&StoreError{Op: "sync", Err: err}, c.takeHookErr())
	}

	return c.takeHookErr()
}

// Delete removes a key from the in-memory cache; the removal hook then
// prunes the store record. Deleting an absent key returns ErrKeyNotFound
// and leaves the store untouched.
func (c *PersistentCache[K, V]) Delete(ctx context.Context, key K) error {
	if err := c.begin(ctx); err != nil {
		return err
	}
	if !c.cache.Delete(key) {
		return errors.Join(ErrKeyNotFound, c.takeHookErr())
	}
	return c.takeHookErr()
}

// Len reports the number of entries in the in-memory cache.
func (c *PersistentCache[K, V]) Len(ctx context.Context) (int, error) {
	if err := c.begin(ctx); err != nil {
		return 0, err
	}
	return c.cache.Len(), c.takeHookErr()
}

// Cap reports the capacity of the in-memory cache.
func (c *PersistentCache[K, V]) Cap(ctx context.Context) (int, error) {
	if err := c.begin(ctx); err != nil {
		return 0, err
	}
	return c.cache.Cap(), c.takeHookErr()
}

// Close flushes and releases the backing store. It is idempotent: closing
// an already-closed cache, or one whose store was never opened, does
// nothing. A close failure is logged and returned, but every prior
// successful Set has already synced, so callers may treat it as advisory.
func (c *PersistentCache[K, V]) Close() error {
	if c.state == stateClosed {
		return nil
	}
	c.state = stateClosed

	if c.store == nil {
		return nil
	}
	st := c.store
	c.store = nil

	if err := errors.Join(st.Sync(context.Background()), st.Close()); err != nil {
		slog.Warn("closing backing store failed", "error", err)
		return &StoreError{Op: "close", Err: err}
	}
	return nil
}
