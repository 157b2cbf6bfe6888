package store

import (
	"strconv"
	"time"

	"github.com/rshade/blogcache/internal/model"
)

// Timestamp is a wall-clock instant with millisecond precision.
// It is encoded in JSON as Unix milliseconds.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalizes t to UTC and truncates it to whole milliseconds,
// which is the precision that survives persistence.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// Age returns the time elapsed between the timestamp and now, with now taken at
// the same millisecond precision as the stamp.
func (t Timestamp) Age(now time.Time) time.Duration {
	return NewTimestamp(now).Sub(t.Time)
}

// Expired reports whether the timestamp is strictly older than ttl at now.
// An entry exactly ttl old is still valid.
func (t Timestamp) Expired(now time.Time, ttl time.Duration) bool {
	return t.Age(now) > ttl
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, t.UnixMilli(), 10), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

// Pagination is the cursor state of a paged listing.
type Pagination struct {
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// BlogPage is a cached page of blogs, used for both feeds and per-user listings.
type BlogPage struct {
	Blogs      []model.Blog `json:"blogs"`
	Pagination Pagination   `json:"pagination"`
	CreatedAt  Timestamp    `json:"createdAt"`
}

// FollowingPage is a cached following list.
type FollowingPage struct {
	Users     []model.FollowingUser `json:"users"`
	CreatedAt Timestamp             `json:"createdAt"`
}

// Suggestions is the cached list of suggested users.
type Suggestions struct {
	Users     []model.SuggestedUser `json:"users"`
	CreatedAt Timestamp             `json:"createdAt"`
}

// UserStats holds aggregate counters for one user.
type UserStats struct {
	Posts     int       `json:"posts"`
	Followers int       `json:"followers"`
	Following int       `json:"following"`
	CreatedAt Timestamp `json:"createdAt"`
}

// FollowStatus records whether the current user follows another user.
type FollowStatus struct {
	Following bool      `json:"following"`
	CreatedAt Timestamp `json:"createdAt"`
}

// stamped is implemented by every TTL-governed entry.
type stamped interface {
	stampedAt() Timestamp
}

func (p BlogPage) stampedAt() Timestamp      { return p.CreatedAt }
func (p FollowingPage) stampedAt() Timestamp { return p.CreatedAt }
func (s Suggestions) stampedAt() Timestamp   { return s.CreatedAt }
func (s UserStats) stampedAt() Timestamp     { return s.CreatedAt }
func (s FollowStatus) stampedAt() Timestamp  { return s.CreatedAt }
