package persist

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// MultiBackend writes to several backends at once and reads from the first one
// that holds the key, in the order given.
type MultiBackend struct {
	backends []Backend
}

// NewMultiBackend combines backends. At least one backend is required.
func NewMultiBackend(backends ...Backend) (*MultiBackend, error) {
	if len(backends) == 0 {
		return nil, errors.New("multi backend requires at least one backend")
	}
	return &MultiBackend{backends: backends}, nil
}

// Load implements Backend. Backends that fail are skipped; if none has the key
// the first non-ErrNotFound error is returned, or ErrNotFound.
func (m *MultiBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var firstErr error
	for i, b := range m.backends {
		data, err := b.Load(ctx, key)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) && firstErr == nil {
			firstErr = fmt.Errorf("backend %d: %w", i, err)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrNotFound
}

// Save implements Backend. All backends are written concurrently; the first
// failure is returned after every write has finished.
func (m *MultiBackend) Save(ctx context.Context, key string, value []byte) error {
	return m.each(ctx, func(ctx context.Context, b Backend) error {
		return b.Save(ctx, key, value)
	})
}

// Delete implements Backend.
func (m *MultiBackend) Delete(ctx context.Context, key string) error {
	return m.each(ctx, func(ctx context.Context, b Backend) error {
		return b.Delete(ctx, key)
	})
}

func (m *MultiBackend) each(ctx context.Context, fn func(context.Context, Backend) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range m.backends {
		i, b := i, b
		g.Go(func() error {
			if err := fn(gctx, b); err != nil {
				return fmt.Errorf("backend %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
