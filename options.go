package shelfcache

import (
	"context"

	"github.com/perdura/shelfcache/pkg/store"
	"github.com/perdura/shelfcache/pkg/store/shelf"
)

// StoreOpener opens the backing store. It is invoked lazily, at most once,
// on the first public operation of a PersistentCache.
type StoreOpener func(ctx context.Context) (store.Store, error)

type options[K comparable] struct {
	opener StoreOpener
	render KeyRenderer[K]
}

// Option configures a PersistentCache.
type Option[K comparable] func(*options[K])

// WithStore enables persistence using the store produced by opener.
func WithStore[K comparable](opener StoreOpener) Option[K] {
	return func(o *options[K]) {
		o.opener = opener
	}
}

// WithShelf enables persistence using a local file-backed store named
// cacheID under the OS cache directory.
func WithShelf[K comparable](cacheID string) Option[K] {
	return WithStore[K](func(context.Context) (store.Store, error) {
		return shelf.New(cacheID, "")
	})
}

// WithKeyRenderer replaces the default "%v" key rendering used to derive
// store keys. Supply one when the key type's fmt rendering is not injective.
func WithKeyRenderer[K comparable](r KeyRenderer[K]) Option[K] {
	return func(o *options[K]) {
		o.render = r
	}
}

func defaultOptions[K comparable]() *options[K] {
	return &options[K]{
		opener: nil, // persistence disabled
		render: defaultRenderer[K],
	}
}
