// Package persist mirrors the store state to durable key-value storage and
// rehydrates it at startup.
//
// The store hands every new state to a Mirror, which encodes it as JSON and saves
// it under StorageKey. At startup Open loads that key and seeds a new store; a
// missing or unreadable blob means starting empty.
package persist

import (
	"context"
	"errors"
)

// StorageKey is the fixed key the store state is persisted under.
const StorageKey = "blog-app-storage"

// Common backend errors.
var (
	ErrNotFound   = errors.New("storage key not found")
	ErrInvalidKey = errors.New("storage key cannot be empty")
)

// Backend is a durable key-value medium.
type Backend interface {
	// Load returns the value stored at key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores value at key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
