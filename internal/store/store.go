package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/rshade/blogcache/internal/metrics"
)

// Persister receives the persisted subset of the state after every mutation.
// Implementations must not block for long: Persist runs while the store's
// writer lock is held so snapshots arrive in mutation order.
type Persister interface {
	Persist(snap Snapshot)
}

// PersisterFunc adapts a function to the Persister interface.
type PersisterFunc func(snap Snapshot)

// Persist implements Persister.
func (f PersisterFunc) Persist(snap Snapshot) { f(snap) }

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp and expire entries.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPersister installs the save-after-mutate hook.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithMetrics sets the recorder for lookup and invalidation events.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger.With().Str("component", "store").Logger()
	}
}

// WithSnapshot seeds the store with previously persisted state.
func WithSnapshot(snap Snapshot) Option {
	return func(s *Store) {
		seeded := snap.normalized()
		s.state.Store(&seeded)
	}
}

// Store is the timed cache. It is safe for concurrent use: writers are
// serialized, readers work on an immutable state and never take a lock.
type Store struct {
	// mu serializes mutations and the persistence hook.
	mu sync.Mutex

	// state is replaced wholesale on every mutation.
	state atomic.Pointer[Snapshot]

	clock     clockwork.Clock
	ttl       time.Duration
	persister Persister
	metrics   metrics.Recorder
	logger    zerolog.Logger
}

// New creates an empty store. Use WithSnapshot to start from persisted state.
func New(opts ...Option) *Store {
	s := &Store{
		clock:   clockwork.NewRealClock(),
		ttl:     DefaultTTL,
		metrics: metrics.Noop{},
		logger:  zerolog.Nop(),
	}
	empty := EmptySnapshot()
	s.state.Store(&empty)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// TTL returns the lifetime of TTL-governed entries.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Snapshot returns the current persisted subset of the state.
func (s *Store) Snapshot() Snapshot {
	return *s.state.Load()
}

// now returns the current time as an entry stamp.
func (s *Store) now() Timestamp {
	return NewTimestamp(s.clock.Now())
}

// update applies fn to a shallow copy of the current state. fn must replace,
// never modify, any table it changes, and return false if nothing changed.
// The new state is published atomically and then handed to the persister.
func (s *Store) update(op string, fn func(next *Snapshot) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.state.Load()
	if !fn(&next) {
		return
	}
	s.state.Store(&next)

	s.logger.Trace().Str("operation", op).Msg("state updated")

	if s.persister != nil {
		s.persister.Persist(next)
	}
}

// lookup returns the entry at key if it exists and has not expired.
func lookup[V stamped](s *Store, table string, m map[string]V, key string) (V, bool) {
	v, ok := m[key]
	return fresh(s, table, v, ok)
}

// fresh filters out a missing or expired entry and records the outcome.
func fresh[V stamped](s *Store, table string, v V, ok bool) (V, bool) {
	var zero V

	if !ok {
		s.metrics.Miss(table)
		return zero, false
	}

	if v.stampedAt().Expired(s.clock.Now(), s.ttl) {
		s.metrics.Expired(table)
		return zero, false
	}

	s.metrics.Hit(table)
	return v, true
}
