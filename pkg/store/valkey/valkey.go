// Package valkey provides Valkey/Redis-backed storage for shelfcache.
//
// Durability and timeouts follow the server's configuration, not the local
// synchronous model the core assumes; callers replacing the shelf store with
// this one own their retry policy.
package valkey

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/valkey-io/valkey-go"

	"github.com/perdura/shelfcache/pkg/store"
	"github.com/perdura/shelfcache/pkg/store/compress"
)

const maxKeyLength = 512 // Maximum key length for Valkey

// Store implements store.Store using Valkey/Redis.
type Store struct {
	client     valkey.Client
	prefix     string // Key prefix to namespace cache entries
	compressor compress.Compressor
	ext        string
	closed     bool
}

// New creates a new Valkey-based store.
// The cacheID is used as a key prefix to namespace cache entries.
// addr should be in the format "host:port" (e.g., "localhost:6379").
// An optional compressor enables compression (default: none).
func New(ctx context.Context, cacheID, addr string, c ...compress.Compressor) (*Store, error) {
	if cacheID == "" {
		return nil, errors.New("cacheID cannot be empty")
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	comp := compress.None()
	if len(c) > 0 && c[0] != nil {
		comp = c[0]
	}

	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping failed: %w", err)
	}

	return &Store{
		client:     client,
		prefix:     cacheID + ":",
		compressor: comp,
		ext:        comp.Extension(),
	}, nil
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("key too long: %d bytes (max %d)", len(key), maxKeyLength)
	}
	return nil
}

// makeKey creates a Valkey key from a store key with prefix and extension.
func (s *Store) makeKey(key string) string {
	return s.prefix + key + s.ext
}

// storeKey reverses makeKey. Reports false for keys outside this store's
// namespace.
func (s *Store) storeKey(full string) (string, bool) {
	k, ok := strings.CutPrefix(full, s.prefix)
	if !ok {
		return "", false
	}
	if s.ext != "" {
		k, ok = strings.CutSuffix(k, s.ext)
		if !ok {
			return "", false
		}
	}
	return k, true
}

// Location returns the Valkey key for a given store key.
func (s *Store) Location(key string) string {
	return s.makeKey(key)
}

// Get retrieves a record from Valkey.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.makeKey(key)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("valkey get: %w", err)
	}

	raw, err := s.compressor.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return raw, nil
}

// Set saves a record to Valkey.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	enc, err := s.compressor.Encode(data)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	cmd := s.client.B().Set().Key(s.makeKey(key)).Value(string(enc)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

// Delete removes a record from Valkey, returning store.ErrNotFound if absent.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	n, err := s.client.Do(ctx, s.client.B().Del().Key(s.makeKey(key)).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("valkey delete: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// All visits every record in this store's namespace via SCAN.
func (s *Store) All(ctx context.Context, fn func(key string, data []byte) error) error {
	pat := s.prefix + "*"
	var cur uint64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		scan, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cur).Match(pat).Count(100).Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("scan keys: %w", err)
		}

		for _, full := range scan.Elements {
			key, ok := s.storeKey(full)
			if !ok {
				continue
			}
			data, err := s.client.Do(ctx, s.client.B().Get().Key(full).Build()).AsBytes()
			if err != nil {
				if valkey.IsValkeyNil(err) {
					continue // Deleted since the scan; skip.
				}
				return fmt.Errorf("valkey get %s: %w", full, err)
			}
			raw, err := s.compressor.Decode(data)
			if err != nil {
				return fmt.Errorf("decompress %s: %w", full, err)
			}
			if err := fn(key, raw); err != nil {
				return err
			}
		}

		cur = scan.Cursor
		if cur == 0 {
			return nil
		}
	}
}

// records reports how many scanned keys belong to this store.
func (s *Store) records(elems []string) int {
	n := 0
	for _, full := range elems {
		if _, ok := s.storeKey(full); ok {
			n++
		}
	}
	return n
}

// Sync is a no-op: Valkey acknowledges writes before returning and on-disk
// durability is the server's configuration.
func (*Store) Sync(_ context.Context) error {
	return nil
}

// Len returns the number of records in this store's namespace. Keys carrying
// a foreign extension share the prefix but belong to another store; they are
// excluded the same way All excludes them.
func (s *Store) Len(ctx context.Context) (int, error) {
	n := 0
	pat := s.prefix + "*"
	var cur uint64

	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}

		scan, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cur).Match(pat).Count(100).Build()).AsScanEntry()
		if err != nil {
			return n, fmt.Errorf("scan keys: %w", err)
		}

		n += s.records(scan.Elements)
		cur = scan.Cursor
		if cur == 0 {
			return n, nil
		}
	}
}

// Close releases client resources. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.Close()
	return nil
}
