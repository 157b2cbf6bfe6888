package store

import (
	"maps"

	"github.com/rshade/blogcache/internal/model"
)

// Table names used in metrics, logs and the CLI.
const (
	TableCurrentUser    = "currentUser"
	TableUserProfiles   = "userProfiles"
	TableFeedBlogs      = "feedBlogs"
	TableUserBlogs      = "userBlogs"
	TableFollowingUsers = "followingUsers"
	TableSuggestedUsers = "suggestedUsers"
	TableUserStats      = "userStats"
	TableFollowStatus   = "followStatus"
)

// Snapshot is the persisted subset of the store state. Stale entries are
// included with their original timestamps.
//
// Tables inside a Snapshot taken from a Store are shared with later snapshots and
// must be treated as read-only.
type Snapshot struct {
	CurrentUser    *model.User              `json:"currentUser"`
	UserProfiles   map[string]model.User    `json:"userProfiles"`
	FeedBlogs      map[string]BlogPage      `json:"feedBlogs"`
	UserBlogs      map[string]BlogPage      `json:"userBlogs"`
	FollowingUsers map[string]FollowingPage `json:"followingUsers"`
	SuggestedUsers *Suggestions             `json:"suggestedUsers"`
	UserStats      map[string]UserStats     `json:"userStats"`
	FollowStatus   map[string]FollowStatus  `json:"followStatus"`
}

// EmptySnapshot returns the initial state: no current user and empty tables.
func EmptySnapshot() Snapshot {
	return Snapshot{
		UserProfiles:   map[string]model.User{},
		FeedBlogs:      map[string]BlogPage{},
		UserBlogs:      map[string]BlogPage{},
		FollowingUsers: map[string]FollowingPage{},
		UserStats:      map[string]UserStats{},
		FollowStatus:   map[string]FollowStatus{},
	}
}

// normalized returns a copy of s with every nil table replaced by an empty one
// and every table copied, so the caller's maps are never aliased by a store.
func (s Snapshot) normalized() Snapshot {
	return Snapshot{
		CurrentUser:    s.CurrentUser,
		SuggestedUsers: s.SuggestedUsers,
		UserProfiles:   cloneOrEmpty(s.UserProfiles),
		FeedBlogs:      cloneOrEmpty(s.FeedBlogs),
		UserBlogs:      cloneOrEmpty(s.UserBlogs),
		FollowingUsers: cloneOrEmpty(s.FollowingUsers),
		UserStats:      cloneOrEmpty(s.UserStats),
		FollowStatus:   cloneOrEmpty(s.FollowStatus),
	}
}

func cloneOrEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return maps.Clone(m)
}

// withEntry returns a copy of m with key set to v.
func withEntry[V any](m map[string]V, key string, v V) map[string]V {
	next := cloneOrEmpty(m)
	next[key] = v
	return next
}

// withoutEntry returns a copy of m without key. If key is absent m is returned
// unchanged.
func withoutEntry[V any](m map[string]V, key string) map[string]V {
	if _, ok := m[key]; !ok {
		return m
	}
	next := maps.Clone(m)
	delete(next, key)
	return next
}

// withoutMatching returns a copy of m without the entries for which drop returns
// true, and the number of entries removed.
func withoutMatching[V any](m map[string]V, drop func(V) bool) (map[string]V, int) {
	removed := 0
	next := make(map[string]V, len(m))
	for k, v := range m {
		if drop(v) {
			removed++
			continue
		}
		next[k] = v
	}
	if removed == 0 {
		return m, 0
	}
	return next, removed
}
