package store

import (
	"time"
)

// TableStats counts the entries of one table.
type TableStats struct {
	Table   string
	Entries int
	// Fresh is the number of entries a getter would return. Tables without a
	// TTL report every entry as fresh.
	Fresh int
}

// Stale returns the number of expired entries still held by the table.
func (t TableStats) Stale() int {
	return t.Entries - t.Fresh
}

// Stats reports entry counts for every table, in persistence order.
func (s *Store) Stats() []TableStats {
	snap := s.state.Load()
	now := s.clock.Now()

	current := 0
	if snap.CurrentUser != nil {
		current = 1
	}
	suggested := TableStats{Table: TableSuggestedUsers}
	if snap.SuggestedUsers != nil {
		suggested.Entries = 1
		if !snap.SuggestedUsers.CreatedAt.Expired(now, s.ttl) {
			suggested.Fresh = 1
		}
	}

	return []TableStats{
		{Table: TableCurrentUser, Entries: current, Fresh: current},
		{Table: TableUserProfiles, Entries: len(snap.UserProfiles), Fresh: len(snap.UserProfiles)},
		countFresh(TableFeedBlogs, snap.FeedBlogs, now, s.ttl),
		countFresh(TableUserBlogs, snap.UserBlogs, now, s.ttl),
		countFresh(TableFollowingUsers, snap.FollowingUsers, now, s.ttl),
		suggested,
		countFresh(TableUserStats, snap.UserStats, now, s.ttl),
		countFresh(TableFollowStatus, snap.FollowStatus, now, s.ttl),
	}
}

func countFresh[V stamped](table string, m map[string]V, now time.Time, ttl time.Duration) TableStats {
	stats := TableStats{Table: table, Entries: len(m)}
	for _, v := range m {
		if !v.stampedAt().Expired(now, ttl) {
			stats.Fresh++
		}
	}
	return stats
}

// PruneExpired physically removes every expired entry from the TTL-governed
// tables and returns how many were removed. The state is persisted only if
// something was removed.
func (s *Store) PruneExpired() int {
	total := 0

	s.update("prune_expired", func(next *Snapshot) bool {
		now := s.clock.Now()
		var n int

		next.FeedBlogs, n = withoutMatching(next.FeedBlogs, expiredAt[BlogPage](now, s.ttl))
		total += n
		next.UserBlogs, n = withoutMatching(next.UserBlogs, expiredAt[BlogPage](now, s.ttl))
		total += n
		next.FollowingUsers, n = withoutMatching(next.FollowingUsers, expiredAt[FollowingPage](now, s.ttl))
		total += n
		next.UserStats, n = withoutMatching(next.UserStats, expiredAt[UserStats](now, s.ttl))
		total += n
		next.FollowStatus, n = withoutMatching(next.FollowStatus, expiredAt[FollowStatus](now, s.ttl))
		total += n

		if next.SuggestedUsers != nil && next.SuggestedUsers.CreatedAt.Expired(now, s.ttl) {
			next.SuggestedUsers = nil
			total++
		}

		return total > 0
	})

	if total > 0 {
		s.logger.Debug().Int("removed", total).Msg("expired entries pruned")
	}

	return total
}

func expiredAt[V stamped](now time.Time, ttl time.Duration) func(V) bool {
	return func(v V) bool {
		return v.stampedAt().Expired(now, ttl)
	}
}
