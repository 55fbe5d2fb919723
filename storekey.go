package shelfcache

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// KeyRenderer converts a cache key into the byte form that is hashed into a
// store key. Equal keys must render identically (any pure function of the
// key satisfies this); distinct keys should render distinctly or they will
// share one store record.
//
// The default renders the key with fmt ("%v"), which is stable across runs
// and injective for strings, integers and flat structs. Keys containing
// pointers or unexported cyclic state need a caller-supplied renderer.
type KeyRenderer[K comparable] func(K) []byte

func defaultRenderer[K comparable](key K) []byte {
	return fmt.Appendf(nil, "%v", key)
}

// storeKey derives the stable string identifier a key is stored under:
// the decimal form of the 64-bit xxHash of the rendered key.
func storeKey[K comparable](render KeyRenderer[K], key K) string {
	return strconv.FormatUint(xxhash.Sum64(render(key)), 10)
}
