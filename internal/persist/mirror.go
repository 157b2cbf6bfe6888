package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/blogcache/internal/logging"
	"github.com/rshade/blogcache/internal/store"
)

// DefaultSaveTimeout bounds a single save issued by a Mirror.
const DefaultSaveTimeout = 5 * time.Second

// ErrCorrupted indicates the persisted blob could not be decoded into the
// current state shape.
var ErrCorrupted = errors.New("persisted state corrupted")

// Encode serializes a snapshot field for field.
func Encode(snap store.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling state: %w", err)
	}
	return data, nil
}

// Decode parses a persisted blob. Unknown fields, mismatched types and trailing
// data are all reported as ErrCorrupted: any change of shape invalidates the
// blob.
func Decode(data []byte) (store.Snapshot, error) {
	var snap store.Snapshot

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return store.Snapshot{}, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return store.Snapshot{}, fmt.Errorf("%w: trailing data after state", ErrCorrupted)
	}

	return snap, nil
}

// MirrorOption configures a Mirror.
type MirrorOption func(*Mirror)

// WithKey overrides StorageKey.
func WithKey(key string) MirrorOption {
	return func(m *Mirror) {
		if key != "" {
			m.key = key
		}
	}
}

// WithSaveTimeout overrides DefaultSaveTimeout.
func WithSaveTimeout(d time.Duration) MirrorOption {
	return func(m *Mirror) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithMirrorLogger sets the logger used to report persistence failures.
func WithMirrorLogger(logger zerolog.Logger) MirrorOption {
	return func(m *Mirror) {
		m.logger = logging.ComponentLogger(logger, "persist")
	}
}

// Mirror writes store snapshots to a Backend. It implements store.Persister.
type Mirror struct {
	backend Backend
	key     string
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	lastErr error
}

// NewMirror creates a mirror over backend.
func NewMirror(backend Backend, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		backend: backend,
		key:     StorageKey,
		timeout: DefaultSaveTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Persist implements store.Persister. Failures are logged and kept for Err;
// in-memory state stays authoritative.
func (m *Mirror) Persist(snap store.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	err := m.Save(ctx, snap)

	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()

	if err != nil {
		m.logger.Error().Err(err).Str("key", m.key).Msg("failed to persist state")
	}
}

// Save encodes snap and writes it to the backend.
func (m *Mirror) Save(ctx context.Context, snap store.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	return m.backend.Save(ctx, m.key, data)
}

// Err returns the result of the most recent Persist call.
func (m *Mirror) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Load reads the persisted state. It reports false when the key is absent, the
// backend fails or the blob is corrupted; the caller then starts empty.
func (m *Mirror) Load(ctx context.Context) (store.Snapshot, bool) {
	data, err := m.backend.Load(ctx, m.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn().Err(err).Str("key", m.key).Msg("failed to read persisted state, starting empty")
		}
		return store.Snapshot{}, false
	}

	snap, err := Decode(data)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", m.key).Msg("discarding persisted state")
		return store.Snapshot{}, false
	}

	return snap, true
}

// Reset removes the persisted state.
func (m *Mirror) Reset(ctx context.Context) error {
	return m.backend.Delete(ctx, m.key)
}

// Open rehydrates a store from backend and installs a Mirror as its persister.
// The mirror logs through the logger carried by ctx.
func Open(ctx context.Context, backend Backend, opts ...store.Option) (*store.Store, *Mirror) {
	logger := *logging.FromContext(ctx)
	mirror := NewMirror(backend, WithMirrorLogger(logger))

	seeded := []store.Option{store.WithLogger(logger)}
	if snap, ok := mirror.Load(ctx); ok {
		seeded = append(seeded, store.WithSnapshot(snap))
		logger.Debug().Str("component", "persist").Msg("state rehydrated")
	}
	seeded = append(seeded, opts...)
	seeded = append(seeded, store.WithPersister(mirror))

	return store.New(seeded...), mirror
}
