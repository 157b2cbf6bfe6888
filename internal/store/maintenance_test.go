package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/blogcache/internal/model"
)

func TestStore_PruneExpired(t *testing.T) {
	persisted := 0
	s, clock := newTestStore(t, WithPersister(PersisterFunc(func(Snapshot) { persisted++ })))

	s.SetUserProfile("ada", model.User{ID: "u1", Username: "ada"})
	s.SetFeedBlogs("old", sampleBlogs(), Pagination{})
	s.SetUserStats("old", 1, 1, 1)
	s.SetSuggestedUsers([]model.SuggestedUser{{ID: "u3"}})
	clock.Advance(DefaultTTL)
	s.SetFollowStatus("new", true)
	clock.Advance(time.Millisecond)
	persisted = 0

	removed := s.PruneExpired()
	assert.Equal(t, 3, removed)
	assert.Equal(t, 1, persisted)

	snap := s.Snapshot()
	assert.Empty(t, snap.FeedBlogs)
	assert.Empty(t, snap.UserStats)
	assert.Nil(t, snap.SuggestedUsers)
	assert.Contains(t, snap.FollowStatus, "new")
	assert.Contains(t, snap.UserProfiles, "ada")

	t.Run("nothing to prune does not persist", func(t *testing.T) {
		persisted = 0
		assert.Equal(t, 0, s.PruneExpired())
		assert.Equal(t, 0, persisted)
	})
}

func TestStore_Stats(t *testing.T) {
	s, clock := newTestStore(t)
	s.SetCurrentUser(&model.User{ID: "me"})
	s.SetUserProfile("ada", model.User{ID: "u1"})
	s.SetUserBlogs("u1", nil, Pagination{})
	s.SetSuggestedUsers(nil)
	clock.Advance(DefaultTTL + time.Second)
	s.SetUserBlogs("u2", nil, Pagination{})

	byTable := map[string]TableStats{}
	for _, st := range s.Stats() {
		byTable[st.Table] = st
	}

	require.Len(t, byTable, 8)
	assert.Equal(t, TableStats{Table: TableCurrentUser, Entries: 1, Fresh: 1}, byTable[TableCurrentUser])
	assert.Equal(t, TableStats{Table: TableUserProfiles, Entries: 1, Fresh: 1}, byTable[TableUserProfiles])
	assert.Equal(t, TableStats{Table: TableUserBlogs, Entries: 2, Fresh: 1}, byTable[TableUserBlogs])
	assert.Equal(t, 1, byTable[TableUserBlogs].Stale())
	assert.Equal(t, TableStats{Table: TableSuggestedUsers, Entries: 1, Fresh: 0}, byTable[TableSuggestedUsers])
	assert.Equal(t, 0, byTable[TableFeedBlogs].Entries)
}
