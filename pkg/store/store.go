// Package store defines the persistence interface shelfcache mirrors cache
// contents into, and the error its backends share.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Delete when no record exists under the
// given key.
var ErrNotFound = errors.New("store: record not found")

// Store is a string-keyed persistent byte store. Implementations include
// local files (shelf), Valkey/Redis and Cloud Datastore.
//
// Keys are opaque identifiers derived by the caller; a Store never inspects
// them beyond validation. Implementations need not be goroutine-safe: the
// cache layer above is single-threaded by contract.
type Store interface {
	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set durably stores data under key, replacing any existing record.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes the record under key, returning ErrNotFound if absent.
	Delete(ctx context.Context, key string) error

	// All calls fn for every record in the store, in unspecified order. An
	// error from fn aborts the iteration and is returned unchanged.
	All(ctx context.Context, fn func(key string, data []byte) error) error

	// Sync flushes any buffered state so prior writes survive a crash.
	Sync(ctx context.Context) error

	// Len returns the number of records in the store.
	Len(ctx context.Context) (int, error)

	// Close releases the store's resources.
	Close() error
}
