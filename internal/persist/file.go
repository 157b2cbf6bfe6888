package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fileExtension is the file extension used for stored values.
const fileExtension = ".json"

// FileBackend stores each key as a JSON file in a directory.
// Thread-safe for concurrent access.
type FileBackend struct {
	// directory is the storage directory path.
	directory string

	// mu protects concurrent access to file operations.
	mu sync.RWMutex
}

// NewFileBackend creates a file backend rooted at directory.
// The directory will be created if it doesn't exist.
func NewFileBackend(directory string) (*FileBackend, error) {
	if directory == "" {
		return nil, errors.New("storage directory cannot be empty")
	}

	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileBackend{directory: directory}, nil
}

// Load implements Backend.
func (b *FileBackend) Load(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(b.keyToFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	return data, nil
}

// Save implements Backend. The value is written to a temporary file first and
// renamed into place.
func (b *FileBackend) Save(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	filePath := b.keyToFilePath(key)
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, value, 0o600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename storage file: %w", err)
	}

	return nil
}

// Delete implements Backend.
func (b *FileBackend) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err := os.Remove(b.keyToFilePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete storage file: %w", err)
	}

	return nil
}

// Directory returns the storage directory path.
func (b *FileBackend) Directory() string {
	return b.directory
}

// keyToFilePath converts a key to a file path.
// The key is sanitized to ensure filesystem safety.
func (b *FileBackend) keyToFilePath(key string) string {
	safeKey := strings.ReplaceAll(key, "/", "_")
	safeKey = strings.ReplaceAll(safeKey, "\\", "_")
	safeKey = strings.ReplaceAll(safeKey, ":", "_")
	return filepath.Join(b.directory, safeKey+fileExtension)
}
