// Package prefs is a typed key-value persistence wrapper. It layers typed
// accessors (bool, string, int, float, bytes, JSON object) over a raw byte
// Backend; the wrapper adds no durability of its own, values are exactly as
// durable as the backend makes them.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SharedDirEnv overrides the base directory used by DefaultPath, allowing a
// group of cooperating processes to share one namespace.
const SharedDirEnv = "APPCORE_SHARED_DIR"

// Backend stores raw bytes under string keys.
type Backend interface {
	// Get returns the stored value. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Put stores the value under the key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Store is the typed surface over a Backend. Getters take a default that is
// returned when the key is absent; a stored value that fails to decode is an
// error, not a silent fallback.
type Store struct {
	backend Backend
}

// NewStore wraps a backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// DefaultPath resolves the storage directory for the named application:
// the shared directory from SharedDirEnv when set, otherwise a private
// per-user default under the OS config directory.
func DefaultPath(app string) (string, error) {
	if dir := os.Getenv(SharedDirEnv); dir != "" {
		return filepath.Join(dir, app), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("prefs: resolve user config dir: %w", err)
	}
	return filepath.Join(base, app), nil
}

// Bool returns the stored bool, or def when the key is absent.
func (s *Store) Bool(ctx context.Context, key string, def bool) (bool, error) {
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil || !found {
		return def, err
	}
	v, err := strconv.ParseBool(string(raw))
	if err != nil {
		return def, fmt.Errorf("prefs: decode bool %q: %w", key, err)
	}
	return v, nil
}

// SetBool stores a bool.
func (s *Store) SetBool(ctx context.Context, key string, v bool) error {
	return s.backend.Put(ctx, key, []byte(strconv.FormatBool(v)))
}

// String returns the stored string, or def when the key is absent.
func (s *Store) String(ctx context.Context, key, def string) (string, error) {
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil || !found {
		return def, err
	}
	return string(raw), nil
}

// SetString stores a string.
func (s *Store) SetString(ctx context.Context, key, v string) error {
	return s.backend.Put(ctx, key, []byte(v))
}

// Int returns the stored integer, or def when the key is absent.
func (s *Store) Int(ctx context.Context, key string, def int64) (int64, error) {
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil || !found {
		return def, err
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return def, fmt.Errorf("prefs: decode int %q: %w", key, err)
	}
	return v, nil
}

// SetInt stores an integer.
func (s *Store) SetInt(ctx context.Context, key string, v int64) error {
	return s.backend.Put(ctx, key, []byte(strconv.FormatInt(v, 10)))
}

// Float returns the stored float, or def when the key is absent.
func (s *Store) Float(ctx context.Context, key string, def float64) (float64, error) {
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil || !found {
		return def, err
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return def, fmt.Errorf("prefs: decode float %q: %w", key, err)
	}
	return v, nil
}

// SetFloat stores a float.
func (s *Store) SetFloat(ctx context.Context, key string, v float64) error {
	return s.backend.Put(ctx, key, []byte(strconv.FormatFloat(v, 'g', -1, 64)))
}

// Bytes returns the stored raw bytes, or def when the key is absent.
func (s *Store) Bytes(ctx context.Context, key string, def []byte) ([]byte, error) {
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil || !found {
		return def, err
	}
	return raw, nil
}

// SetBytes stores raw bytes.
func (s *Store) SetBytes(ctx context.Context, key string, v []byte) error {
	return s.backend.Put(ctx, key, v)
}

// Object decodes the stored JSON value into out. found is false when the
// key is absent, in which case out is left untouched.
func (s *Store) Object(ctx context.Context, key string, out any) (found bool, err error) {
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("prefs: decode object %q: %w", key, err)
	}
	return true, nil
}

// SetObject stores a value as JSON.
func (s *Store) SetObject(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("prefs: encode object %q: %w", key, err)
	}
	return s.backend.Put(ctx, key, data)
}

// Has reports whether the key is present.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	_, found, err := s.backend.Get(ctx, key)
	return found, err
}

// Remove deletes the key. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
