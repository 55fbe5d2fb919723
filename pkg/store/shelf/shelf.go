// Package shelf implements a local filesystem store for shelfcache: one file
// per record, written atomically, laid out squid-style under a per-cache
// directory.
package shelf

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/perdura/shelfcache/pkg/store"
	"github.com/perdura/shelfcache/pkg/store/compress"
)

const maxKeyLength = 512 // Keys are hex-encoded into filenames; keep them bounded.

// Store implements store.Store on the local filesystem.
//
//nolint:govet // fieldalignment - layout groups the mutex with the map it protects
type Store struct {
	subdirsMu   sync.RWMutex
	subdirsMade map[string]bool // Cache of created subdirectories
	Dir         string          // Exported for testing - directory path
	compressor  compress.Compressor
	ext         string // File extension based on compressor
}

// New creates a new file-based store.
// The cacheID is used as a subdirectory name under the OS cache directory.
// If dir is provided (non-empty), it's used as the base directory instead.
// An optional compressor enables compression (default: none, .g extension).
func New(cacheID, dir string, c ...compress.Compressor) (*Store, error) {
	if cacheID == "" {
		return nil, errors.New("cacheID cannot be empty")
	}
	if strings.Contains(cacheID, "..") || strings.Contains(cacheID, "/") || strings.Contains(cacheID, "\\") {
		return nil, errors.New("invalid cacheID: contains path separators or traversal sequences")
	}
	if strings.Contains(cacheID, "\x00") {
		return nil, errors.New("invalid cacheID: contains null byte")
	}

	comp := compress.None()
	if len(c) > 0 && c[0] != nil {
		comp = c[0]
	}

	var fullDir string
	if dir != "" {
		fullDir = filepath.Join(dir, cacheID)
	} else {
		baseDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("get user cache dir: %w", err)
		}
		fullDir = filepath.Join(baseDir, cacheID)
	}

	if err := os.MkdirAll(fullDir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	testFile := filepath.Join(fullDir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("cache dir not writable: %w", err)
	}
	_ = os.Remove(testFile) //nolint:errcheck // best-effort cleanup

	ext := comp.Extension()
	if ext == "" {
		ext = ".g"
	}

	return &Store{
		Dir:         fullDir,
		subdirsMade: make(map[string]bool),
		compressor:  comp,
		ext:         ext,
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

// filename converts a store key to a relative path with squid-style layout.
// The key is hex-encoded so any key is filesystem-safe, and the first two
// characters of the encoding form the subdirectory for even distribution
// (e.g., key "42" -> "34/3432.g").
func (s *Store) filename(key string) string {
	name := hex.EncodeToString([]byte(key))
	return filepath.Join(name[:2], name+s.ext)
}

// keyFromFilename reverses filename. Reports false for files that are not
// records of this store.
func (s *Store) keyFromFilename(name string) (string, bool) {
	if !strings.HasSuffix(name, s.ext) {
		return "", false
	}
	raw, err := hex.DecodeString(strings.TrimSuffix(name, s.ext))
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

// Location returns the full file path where a key is stored.
func (s *Store) Location(key string) string {
	return filepath.Join(s.Dir, s.filename(key))
}

// Get retrieves a record from its file.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	fn := s.Location(key)

	data, err := os.ReadFile(fn)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("read file: %w", err)
	}

	raw, err := s.compressor.Decode(data)
	if err != nil {
		rmErr := os.Remove(fn)
		return nil, errors.Join(fmt.Errorf("decompress: %w", err), rmErr)
	}

	return raw, nil
}

// Set saves a record to a file via a temp file and atomic rename. The file
// contents are fsynced before the rename so a returned nil means the data
// reached the disk.
func (s *Store) Set(_ context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	fn := s.Location(key)
	dir := filepath.Dir(fn)

	// Check if subdirectory already created (cache to avoid syscalls)
	s.subdirsMu.RLock()
	exists := s.subdirsMade[dir]
	s.subdirsMu.RUnlock()

	if !exists {
		// Hold write lock during check-and-create to avoid race
		s.subdirsMu.Lock()
		if !s.subdirsMade[dir] {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				s.subdirsMu.Unlock()
				return fmt.Errorf("create subdirectory: %w", err)
			}
			s.subdirsMade[dir] = true
		}
		s.subdirsMu.Unlock()
	}

	enc, err := s.compressor.Encode(data)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	tmp := fn + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	_, werr := f.Write(enc)
	if werr == nil {
		werr = f.Sync()
	}
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		rmErr := os.Remove(tmp)
		return errors.Join(fmt.Errorf("write temp file: %w", err), rmErr)
	}

	// Atomic rename
	if err := os.Rename(tmp, fn); err != nil {
		rmErr := os.Remove(tmp)
		return errors.Join(fmt.Errorf("rename file: %w", err), rmErr)
	}

	return nil
}

// Delete removes a record's file, returning store.ErrNotFound if absent.
func (s *Store) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.Location(key)); err != nil {
		if os.IsNotExist(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// All visits every record. Files that cannot be read or decompressed are
// logged and removed rather than aborting the pass; an error from fn aborts
// the walk and is returned unchanged.
func (s *Store) All(ctx context.Context, fn func(key string, data []byte) error) error {
	return filepath.Walk(s.Dir, func(path string, fi os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			slog.Warn("error walking store dir", "path", path, "error", err)
			return nil // Continue walking
		}
		if fi.IsDir() {
			return nil
		}
		key, ok := s.keyFromFilename(fi.Name())
		if !ok {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read store file", "file", path, "error", err)
			return nil
		}
		raw, err := s.compressor.Decode(data)
		if err != nil {
			slog.Warn("removing undecodable store file", "file", path, "error", err)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				slog.Debug("failed to remove undecodable file", "file", path, "error", err)
			}
			return nil
		}

		return fn(key, raw)
	})
}

// Sync flushes directory metadata so prior renames are durable. Record data
// is already fsynced by Set.
func (s *Store) Sync(_ context.Context) error {
	dirs := []string{s.Dir}
	s.subdirsMu.RLock()
	for d := range s.subdirsMade {
		dirs = append(dirs, d)
	}
	s.subdirsMu.RUnlock()

	var errs []error
	for _, d := range dirs {
		f, err := os.Open(d)
		if err != nil {
			errs = append(errs, fmt.Errorf("open dir %s: %w", d, err))
			continue
		}
		if err := f.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("sync dir %s: %w", d, err))
		}
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dir %s: %w", d, err))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of records in the store.
func (s *Store) Len(ctx context.Context) (int, error) {
	n := 0
	err := filepath.Walk(s.Dir, func(_ string, fi os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}
		if fi.IsDir() {
			return nil
		}
		if _, ok := s.keyFromFilename(fi.Name()); ok {
			n++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("walk directory: %w", err)
	}
	return n, nil
}

// Close releases resources. No file handle is held between operations, so
// there is nothing to release; closing is always a no-op.
func (*Store) Close() error {
	return nil
}
