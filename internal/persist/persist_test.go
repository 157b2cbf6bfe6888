package persist

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/blogcache/internal/model"
	"github.com/rshade/blogcache/internal/store"
)

var epoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	fileBackend, err := NewFileBackend(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)

	sqlBackend, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "blogcache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlBackend.Close() })

	multi, err := NewMultiBackend(NewMemoryBackend(), NewMemoryBackend())
	require.NoError(t, err)

	return map[string]Backend{
		"file":   fileBackend,
		"sqlite": sqlBackend,
		"memory": NewMemoryBackend(),
		"multi":  multi,
	}
}

func TestBackends(t *testing.T) {
	ctx := context.Background()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("missing key", func(t *testing.T) {
				_, err := b.Load(ctx, "absent")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("save load overwrite", func(t *testing.T) {
				require.NoError(t, b.Save(ctx, "k", []byte(`{"a":1}`)))
				data, err := b.Load(ctx, "k")
				require.NoError(t, err)
				assert.JSONEq(t, `{"a":1}`, string(data))

				require.NoError(t, b.Save(ctx, "k", []byte(`{"a":2}`)))
				data, err = b.Load(ctx, "k")
				require.NoError(t, err)
				assert.JSONEq(t, `{"a":2}`, string(data))
			})

			t.Run("delete is idempotent", func(t *testing.T) {
				require.NoError(t, b.Save(ctx, "d", []byte(`{}`)))
				require.NoError(t, b.Delete(ctx, "d"))
				require.NoError(t, b.Delete(ctx, "d"))
				_, err := b.Load(ctx, "d")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("empty key", func(t *testing.T) {
				assert.ErrorIs(t, b.Save(ctx, "", nil), ErrInvalidKey)
			})
		})
	}
}

func TestFileBackend(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		_, err := NewFileBackend("")
		assert.Error(t, err)
	})

	t.Run("key sanitized into directory", func(t *testing.T) {
		dir := t.TempDir()
		b, err := NewFileBackend(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, b.Directory())

		require.NoError(t, b.Save(context.Background(), "a/b:c", []byte("{}")))
		_, err = os.Stat(filepath.Join(dir, "a_b_c.json"))
		assert.NoError(t, err)
	})
}

type failingBackend struct{ err error }

func (f failingBackend) Load(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingBackend) Save(context.Context, string, []byte) error   { return f.err }
func (f failingBackend) Delete(context.Context, string) error         { return f.err }

func TestMultiBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a backend", func(t *testing.T) {
		_, err := NewMultiBackend()
		assert.Error(t, err)
	})

	t.Run("writes all reads first", func(t *testing.T) {
		a, b := NewMemoryBackend(), NewMemoryBackend()
		m, err := NewMultiBackend(a, b)
		require.NoError(t, err)

		require.NoError(t, m.Save(ctx, "k", []byte("v")))
		for _, backend := range []Backend{a, b} {
			data, loadErr := backend.Load(ctx, "k")
			require.NoError(t, loadErr)
			assert.Equal(t, "v", string(data))
		}

		require.NoError(t, a.Delete(ctx, "k"))
		data, err := m.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", string(data))
	})

	t.Run("save reports failure", func(t *testing.T) {
		boom := errors.New("disk full")
		ok := NewMemoryBackend()
		m, err := NewMultiBackend(ok, failingBackend{err: boom})
		require.NoError(t, err)

		assert.ErrorIs(t, m.Save(ctx, "k", []byte("v")), boom)
		_, loadErr := ok.Load(ctx, "k")
		assert.NoError(t, loadErr)
	})

	t.Run("load skips failing backend", func(t *testing.T) {
		boom := errors.New("unreachable")
		good := NewMemoryBackend()
		require.NoError(t, good.Save(ctx, "k", []byte("v")))
		m, err := NewMultiBackend(failingBackend{err: boom}, good)
		require.NoError(t, err)

		data, err := m.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", string(data))

		_, err = m.Load(ctx, "missing")
		assert.ErrorIs(t, err, boom)
	})
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "empty object", data: `{}`},
		{name: "null", data: `null`},
		{name: "not json", data: `{"currentUser":`, wantErr: true},
		{name: "unknown field", data: `{"feedBlogs":{},"drafts":{}}`, wantErr: true},
		{name: "type mismatch", data: `{"userStats":{"u1":{"posts":"three","createdAt":1}}}`, wantErr: true},
		{name: "old timestamp format", data: `{"followStatus":{"u1":{"following":true,"createdAt":"2026-01-01T00:00:00Z"}}}`, wantErr: true},
		{name: "trailing data", data: `{} {}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCorrupted)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func populate(s *store.Store, clock clockwork.FakeClock) {
	s.SetCurrentUser(&model.User{ID: "me", Username: "me"})
	s.SetUserProfile("ada", model.User{ID: "u1", Username: "ada", Profile: &model.Profile{Bio: "engines"}})
	s.SetFeedBlogs("me", []model.Blog{{ID: "b1", Title: "t", Author: model.Author{ID: "u1", Username: "ada"}}},
		store.Pagination{HasMore: true, NextCursor: "n"})
	clock.Advance(250 * time.Millisecond)
	s.SetUserBlogs("u1", nil, store.Pagination{})
	s.SetFollowingUsers("me", []model.FollowingUser{{User: model.User{ID: "u1", Username: "ada"}}})
	s.SetSuggestedUsers([]model.SuggestedUser{{ID: "u2", Username: "grace", FollowersCount: 3}})
	s.SetUserStats("u1", 3, 10, 5)
	s.SetFollowStatus("u1", true)
}

func TestOpen_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			clock := clockwork.NewFakeClockAt(epoch)

			first, mirror := Open(ctx, b, store.WithClock(clock))
			populate(first, clock)
			require.NoError(t, mirror.Err())
			before := first.Snapshot()

			second, _ := Open(ctx, b, store.WithClock(clock))
			assert.Equal(t, before, second.Snapshot())

			stats, ok := second.UserStats("u1")
			require.True(t, ok)
			assert.Equal(t, store.UserStats{Posts: 3, Followers: 10, Following: 5, CreatedAt: store.NewTimestamp(epoch.Add(250 * time.Millisecond))}, stats)
		})
	}
}

func TestOpen_FallsBackToEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		s, _ := Open(ctx, NewMemoryBackend())
		assert.Equal(t, store.EmptySnapshot(), s.Snapshot())
	})

	t.Run("corrupt blob is discarded", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := zerolog.New(&buf).WithContext(context.Background())

		b := NewMemoryBackend()
		require.NoError(t, b.Save(ctx, StorageKey, []byte(`{"currentUser":{"id":7}}`)))

		s, _ := Open(ctx, b)
		assert.Equal(t, store.EmptySnapshot(), s.Snapshot())
		assert.Contains(t, buf.String(), "discarding persisted state")
	})

	t.Run("backend failure", func(t *testing.T) {
		s, _ := Open(ctx, failingBackend{err: errors.New("io")})
		assert.Equal(t, store.EmptySnapshot(), s.Snapshot())
	})
}

func TestMirror(t *testing.T) {
	ctx := context.Background()

	t.Run("persists under storage key", func(t *testing.T) {
		b := NewMemoryBackend()
		s, _ := Open(ctx, b)
		s.SetFollowStatus("u1", true)

		data, err := b.Load(ctx, StorageKey)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"followStatus":{"u1":{"following":true`)
	})

	t.Run("custom key and reset", func(t *testing.T) {
		b := NewMemoryBackend()
		m := NewMirror(b, WithKey("other"), WithSaveTimeout(time.Second))
		m.Persist(store.EmptySnapshot())
		require.NoError(t, m.Err())

		_, err := b.Load(ctx, "other")
		require.NoError(t, err)

		require.NoError(t, m.Reset(ctx))
		_, ok := m.Load(ctx)
		assert.False(t, ok)
	})

	t.Run("save failure is logged not returned", func(t *testing.T) {
		var buf bytes.Buffer
		boom := errors.New("read-only")
		m := NewMirror(failingBackend{err: boom}, WithMirrorLogger(zerolog.New(&buf)))
		s := store.New(store.WithPersister(m))

		s.SetUserStats("u1", 1, 1, 1)

		assert.ErrorIs(t, m.Err(), boom)
		assert.Contains(t, buf.String(), "failed to persist state")
		_, ok := s.UserStats("u1")
		assert.True(t, ok)
	})
}
