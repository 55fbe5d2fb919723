// Package datastore provides Google Cloud Datastore storage for shelfcache.
//
// Like the valkey store, this is a networked backend: latency and retry
// policy are the caller's concern, not the persistence core's.
package datastore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	ds "github.com/codeGROOVE-dev/ds9/pkg/datastore"

	"github.com/perdura/shelfcache/pkg/store"
	"github.com/perdura/shelfcache/pkg/store/compress"
)

const (
	datastoreKind = "ShelfRecord"
	maxKeyLength  = 1500 // Datastore has stricter key length limits
)

// Store implements store.Store using Google Cloud Datastore.
type Store struct {
	client     *ds.Client
	kind       string
	compressor compress.Compressor
	ext        string
	closed     bool
}

// entity is the Datastore representation of a record. The value is
// base64-encoded to avoid datastore []byte limitations; the store key lives
// in the entity key itself.
type entity struct {
	SavedAt time.Time `datastore:"saved_at"`
	Value   string    `datastore:"value,noindex"`
}

// New creates a new Datastore-based store.
// The cacheID is used as the Datastore database name.
// An optional compressor enables compression (default: none).
func New(ctx context.Context, cacheID string, c ...compress.Compressor) (*Store, error) {
	if cacheID == "" {
		return nil, errors.New("cacheID cannot be empty")
	}

	comp := compress.None()
	if len(c) > 0 && c[0] != nil {
		comp = c[0]
	}

	client, err := ds.NewClientWithDatabase(ctx, "", cacheID)
	if err != nil {
		return nil, fmt.Errorf("create datastore client: %w", err)
	}

	return &Store{
		client:     client,
		kind:       datastoreKind,
		compressor: comp,
		ext:        comp.Extension(),
	}, nil
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("key too long: %d bytes (max %d for datastore)", len(key), maxKeyLength)
	}
	return nil
}

// makeKey creates a Datastore key from a store key, with extension suffix.
func (s *Store) makeKey(key string) *ds.Key {
	return ds.NameKey(s.kind, key+s.ext, nil)
}

// Location returns the Datastore key path for a given store key.
// Format: "kind/key" (e.g., "ShelfRecord/12345").
func (s *Store) Location(key string) string {
	return fmt.Sprintf("%s/%s%s", s.kind, key, s.ext)
}

// Get retrieves a record from Datastore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var e entity
	if err := s.client.Get(ctx, s.makeKey(key), &e); err != nil {
		if errors.Is(err, ds.ErrNoSuchEntity) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("datastore get: %w", err)
	}

	b, err := base64.StdEncoding.DecodeString(e.Value)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	raw, err := s.compressor.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return raw, nil
}

// Set saves a record to Datastore.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	enc, err := s.compressor.Encode(data)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	e := entity{
		Value:   base64.StdEncoding.EncodeToString(enc),
		SavedAt: time.Now(),
	}
	if _, err := s.client.Put(ctx, s.makeKey(key), &e); err != nil {
		return fmt.Errorf("datastore put: %w", err)
	}
	return nil
}

// Delete removes a record from Datastore, returning store.ErrNotFound if
// absent. Datastore deletes are silent on missing entities, so existence is
// checked first.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	k := s.makeKey(key)
	var e entity
	if err := s.client.Get(ctx, k, &e); err != nil {
		if errors.Is(err, ds.ErrNoSuchEntity) {
			return store.ErrNotFound
		}
		return fmt.Errorf("datastore get: %w", err)
	}
	if err := s.client.Delete(ctx, k); err != nil {
		return fmt.Errorf("datastore delete: %w", err)
	}
	return nil
}

// All visits every record of this store's kind.
func (s *Store) All(ctx context.Context, fn func(key string, data []byte) error) error {
	keys, err := s.client.AllKeys(ctx, ds.NewQuery(s.kind).KeysOnly())
	if err != nil {
		return fmt.Errorf("query all keys: %w", err)
	}

	for _, k := range keys {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var e entity
		if err := s.client.Get(ctx, k, &e); err != nil {
			if errors.Is(err, ds.ErrNoSuchEntity) {
				continue // Deleted since the key query; skip.
			}
			return fmt.Errorf("datastore get: %w", err)
		}

		b, err := base64.StdEncoding.DecodeString(e.Value)
		if err != nil {
			return fmt.Errorf("decode base64 %s: %w", k.Name, err)
		}
		raw, err := s.compressor.Decode(b)
		if err != nil {
			return fmt.Errorf("decompress %s: %w", k.Name, err)
		}

		name := k.Name
		if s.ext != "" {
			name = strings.TrimSuffix(name, s.ext)
		}
		if err := fn(name, raw); err != nil {
			return err
		}
	}
	return nil
}

// Sync is a no-op: Datastore writes are durable once Put returns.
func (*Store) Sync(_ context.Context) error {
	return nil
}

// Len returns the number of records of this store's kind.
func (s *Store) Len(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, ds.NewQuery(s.kind))
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Close releases Datastore client resources. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
