package prefs

import (
	"context"
	"sync"
)

// MemBackend is a thread-safe in-memory backend, used in tests and previews
// where persistence across runs is unwanted.
type MemBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemBackend creates an empty in-memory backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{values: make(map[string][]byte)}
}

func (b *MemBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (b *MemBackend) Put(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = cp
	return nil
}

func (b *MemBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}

func (b *MemBackend) Close() error { return nil }

// Compile-time interface check.
var _ Backend = (*MemBackend)(nil)
