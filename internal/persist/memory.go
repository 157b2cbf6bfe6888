package persist

import (
	"context"
	"slices"
	"sync"
)

// MemoryBackend keeps values in process memory. Values are copied on the way in
// and out.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// Load implements Backend.
func (b *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// Save implements Backend.
func (b *MemoryBackend) Save(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = slices.Clone(value)
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}
