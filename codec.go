package shelfcache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"
)

// recordVersion is the on-disk format version, prefixed to every encoded
// record so the layout can evolve without misreading old data.
const recordVersion = 1

// record is what gets persisted for each cached entry. The original key is
// stored alongside the value because the store key is a lossy hash: reload
// needs the key verbatim to re-insert it into the in-memory cache.
type record[K comparable, V any] struct {
	Key     K
	Value   V
	SavedAt time.Time
}

// encodeRecord serializes a (key, value) pair with the format-version prefix.
func encodeRecord[K comparable, V any](key K, value V) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(recordVersion)
	r := record[K, V]{Key: key, Value: value, SavedAt: time.Now()}
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, &EncodingError{Err: err}
	}
	return buf.Bytes(), nil
}

// decodeRecord deserializes a stored record back into its key and value.
func decodeRecord[K comparable, V any](data []byte) (K, V, error) {
	var r record[K, V]
	if len(data) == 0 {
		return r.Key, r.Value, &EncodingError{Err: errors.New("empty record")}
	}
	if v := data[0]; v != recordVersion {
		return r.Key, r.Value, &EncodingError{Err: fmt.Errorf("unsupported record version %d", v)}
	}
	if err := gob.NewDecoder(bytes.NewReader(data[1:])).Decode(&r); err != nil {
		return r.Key, r.Value, &EncodingError{Err: err}
	}
	return r.Key, r.Value, nil
}
