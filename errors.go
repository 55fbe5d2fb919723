package shelfcache

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Delete when the key is not in the cache.
var ErrKeyNotFound = errors.New("shelfcache: key not found")

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("shelfcache: cache is closed")

// StoreError reports a backing-store failure. For Set it means the value is
// cached in memory but was not durably mirrored; the in-memory state is
// never rolled back.
type StoreError struct {
	Err error
	Op  string // "open", "load", "write", "sync", "delete" or "close"
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("shelfcache: store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// EncodingError reports a failure to serialize a record for storage or to
// deserialize a stored record.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("shelfcache: encode record: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
