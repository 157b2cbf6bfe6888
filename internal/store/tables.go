package store

import (
	"slices"

	"github.com/rshade/blogcache/internal/model"
)

// SetCurrentUser replaces the signed-in user. A nil user signs out.
func (s *Store) SetCurrentUser(user *model.User) {
	if user != nil {
		u := *user
		user = &u
	}
	s.update("set_current_user", func(next *Snapshot) bool {
		next.CurrentUser = user
		return true
	})
}

// CurrentUser returns the signed-in user, or nil. It never expires.
func (s *Store) CurrentUser() *model.User {
	u := s.state.Load().CurrentUser
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// SetUserProfile stores user under username. Profiles carry no timestamp and
// never expire.
func (s *Store) SetUserProfile(username string, user model.User) {
	s.update("set_user_profile", func(next *Snapshot) bool {
		next.UserProfiles = withEntry(next.UserProfiles, username, user)
		return true
	})
}

// UserProfile returns the profile stored under username.
func (s *Store) UserProfile(username string) (model.User, bool) {
	u, ok := s.state.Load().UserProfiles[username]
	if !ok {
		s.metrics.Miss(TableUserProfiles)
		return model.User{}, false
	}
	s.metrics.Hit(TableUserProfiles)
	return u, true
}

// InvalidateUserData removes every cached profile whose user ID is userID,
// whatever username it is stored under.
func (s *Store) InvalidateUserData(userID string) {
	s.update("invalidate_user_data", func(next *Snapshot) bool {
		var removed int
		next.UserProfiles, removed = withoutMatching(next.UserProfiles, func(u model.User) bool {
			return u.ID == userID
		})
		s.metrics.Invalidate(TableUserProfiles, removed)
		s.logger.Debug().Str("user_id", userID).Int("removed", removed).Msg("user profiles invalidated")
		return true
	})
}

// SetFeedBlogs caches a feed page for userID. The blogs slice is copied.
func (s *Store) SetFeedBlogs(userID string, blogs []model.Blog, pagination Pagination) {
	blogs = slices.Clone(blogs)
	s.update("set_feed_blogs", func(next *Snapshot) bool {
		next.FeedBlogs = withEntry(next.FeedBlogs, userID, BlogPage{
			Blogs:      blogs,
			Pagination: pagination,
			CreatedAt:  s.now(),
		})
		return true
	})
}

// FeedBlogs returns the fresh feed page for userID.
func (s *Store) FeedBlogs(userID string) (BlogPage, bool) {
	p, ok := lookup(s, TableFeedBlogs, s.state.Load().FeedBlogs, userID)
	p.Blogs = slices.Clone(p.Blogs)
	return p, ok
}

// InvalidateFeedBlogs drops the feed page for userID.
func (s *Store) InvalidateFeedBlogs(userID string) {
	s.invalidate(TableFeedBlogs, userID, func(next *Snapshot) int {
		before := len(next.FeedBlogs)
		next.FeedBlogs = withoutEntry(next.FeedBlogs, userID)
		return before - len(next.FeedBlogs)
	})
}

// SetUserBlogs caches the blogs written by userID. The blogs slice is copied.
func (s *Store) SetUserBlogs(userID string, blogs []model.Blog, pagination Pagination) {
	blogs = slices.Clone(blogs)
	s.update("set_user_blogs", func(next *Snapshot) bool {
		next.UserBlogs = withEntry(next.UserBlogs, userID, BlogPage{
			Blogs:      blogs,
			Pagination: pagination,
			CreatedAt:  s.now(),
		})
		return true
	})
}

// UserBlogs returns the fresh blog page written by userID.
func (s *Store) UserBlogs(userID string) (BlogPage, bool) {
	p, ok := lookup(s, TableUserBlogs, s.state.Load().UserBlogs, userID)
	p.Blogs = slices.Clone(p.Blogs)
	return p, ok
}

// InvalidateUserBlogs drops the blog page written by userID.
func (s *Store) InvalidateUserBlogs(userID string) {
	s.invalidate(TableUserBlogs, userID, func(next *Snapshot) int {
		before := len(next.UserBlogs)
		next.UserBlogs = withoutEntry(next.UserBlogs, userID)
		return before - len(next.UserBlogs)
	})
}

// SetFollowingUsers caches the users followed by userID. The users slice is
// copied.
func (s *Store) SetFollowingUsers(userID string, users []model.FollowingUser) {
	users = slices.Clone(users)
	s.update("set_following_users", func(next *Snapshot) bool {
		next.FollowingUsers = withEntry(next.FollowingUsers, userID, FollowingPage{
			Users:     users,
			CreatedAt: s.now(),
		})
		return true
	})
}

// FollowingUsers returns the fresh following list of userID.
func (s *Store) FollowingUsers(userID string) (FollowingPage, bool) {
	p, ok := lookup(s, TableFollowingUsers, s.state.Load().FollowingUsers, userID)
	p.Users = slices.Clone(p.Users)
	return p, ok
}

// InvalidateFollowingUsers drops the following list of userID.
func (s *Store) InvalidateFollowingUsers(userID string) {
	s.invalidate(TableFollowingUsers, userID, func(next *Snapshot) int {
		before := len(next.FollowingUsers)
		next.FollowingUsers = withoutEntry(next.FollowingUsers, userID)
		return before - len(next.FollowingUsers)
	})
}

// SetSuggestedUsers caches the suggested users list. The users slice is copied.
func (s *Store) SetSuggestedUsers(users []model.SuggestedUser) {
	users = slices.Clone(users)
	s.update("set_suggested_users", func(next *Snapshot) bool {
		next.SuggestedUsers = &Suggestions{Users: users, CreatedAt: s.now()}
		return true
	})
}

// SuggestedUsers returns the suggested users list if it is fresh.
func (s *Store) SuggestedUsers() (Suggestions, bool) {
	sug := s.state.Load().SuggestedUsers
	if sug == nil {
		return fresh(s, TableSuggestedUsers, Suggestions{}, false)
	}
	out, ok := fresh(s, TableSuggestedUsers, *sug, true)
	out.Users = slices.Clone(out.Users)
	return out, ok
}

// InvalidateSuggestedUsers drops the suggested users list.
func (s *Store) InvalidateSuggestedUsers() {
	s.invalidate(TableSuggestedUsers, "", func(next *Snapshot) int {
		if next.SuggestedUsers == nil {
			return 0
		}
		next.SuggestedUsers = nil
		return 1
	})
}

// SetUserStats caches the aggregate counters of userID.
func (s *Store) SetUserStats(userID string, posts, followers, following int) {
	s.update("set_user_stats", func(next *Snapshot) bool {
		next.UserStats = withEntry(next.UserStats, userID, UserStats{
			Posts:     posts,
			Followers: followers,
			Following: following,
			CreatedAt: s.now(),
		})
		return true
	})
}

// UserStats returns the fresh counters of userID.
func (s *Store) UserStats(userID string) (UserStats, bool) {
	return lookup(s, TableUserStats, s.state.Load().UserStats, userID)
}

// InvalidateUserStats drops the counters of userID.
func (s *Store) InvalidateUserStats(userID string) {
	s.invalidate(TableUserStats, userID, func(next *Snapshot) int {
		before := len(next.UserStats)
		next.UserStats = withoutEntry(next.UserStats, userID)
		return before - len(next.UserStats)
	})
}

// SetFollowStatus records whether the current user follows userID.
func (s *Store) SetFollowStatus(userID string, following bool) {
	s.update("set_follow_status", func(next *Snapshot) bool {
		next.FollowStatus = withEntry(next.FollowStatus, userID, FollowStatus{
			Following: following,
			CreatedAt: s.now(),
		})
		return true
	})
}

// FollowStatus returns the fresh follow flag for userID.
func (s *Store) FollowStatus(userID string) (FollowStatus, bool) {
	return lookup(s, TableFollowStatus, s.state.Load().FollowStatus, userID)
}

// InvalidateFollowStatus drops the follow flag for userID.
func (s *Store) InvalidateFollowStatus(userID string) {
	s.invalidate(TableFollowStatus, userID, func(next *Snapshot) int {
		before := len(next.FollowStatus)
		next.FollowStatus = withoutEntry(next.FollowStatus, userID)
		return before - len(next.FollowStatus)
	})
}

// ClearCache empties every table except the current user.
func (s *Store) ClearCache() {
	s.update("clear_cache", func(next *Snapshot) bool {
		current := next.CurrentUser
		*next = EmptySnapshot()
		next.CurrentUser = current
		return true
	})
	s.logger.Debug().Msg("cache cleared")
}

// invalidate runs an invalidation that removes entries for key from table.
// The state is persisted even when nothing was removed.
func (s *Store) invalidate(table, key string, remove func(next *Snapshot) int) {
	s.update("invalidate_"+table, func(next *Snapshot) bool {
		removed := remove(next)
		s.metrics.Invalidate(table, removed)
		s.logger.Debug().Str("table", table).Str("key", key).Int("removed", removed).Msg("entry invalidated")
		return true
	})
}
