package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/blogcache/internal/store"
)

// Entry state labels.
const (
	stateFresh = "fresh"
	stateStale = "stale"
	stateNoTTL = "-"
)

// tableOrder is the persistence order of the tables.
//
//nolint:gochecknoglobals // Fixed lookup table.
var tableOrder = []string{
	store.TableCurrentUser,
	store.TableUserProfiles,
	store.TableFeedBlogs,
	store.TableUserBlogs,
	store.TableFollowingUsers,
	store.TableSuggestedUsers,
	store.TableUserStats,
	store.TableFollowStatus,
}

// row is one rendered cache entry.
type row struct {
	key     string
	age     string
	state   string
	summary string
}

// renderer formats CLI output. Styling is dropped automatically when w is not
// a terminal.
type renderer struct {
	w       io.Writer
	printer *message.Printer
	heading lipgloss.Style
	stale   lipgloss.Style
}

func newRenderer(w io.Writer) *renderer {
	lr := lipgloss.NewRenderer(w)
	return &renderer{
		w:       w,
		printer: message.NewPrinter(language.English),
		heading: lr.NewStyle().Bold(true).Underline(true),
		stale:   lr.NewStyle().Faint(true),
	}
}

func (r *renderer) number(n int) string {
	return r.printer.Sprintf("%d", n)
}

func (r *renderer) section(title string, rows []row) {
	_, _ = fmt.Fprintln(r.w, r.heading.Render(title))
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(r.w, "  (empty)")
		_, _ = fmt.Fprintln(r.w)
		return
	}

	keyWidth := 0
	for _, rw := range rows {
		keyWidth = max(keyWidth, len(rw.key))
	}

	for _, rw := range rows {
		line := fmt.Sprintf("  %-*s  %-6s %-5s  %s", keyWidth, rw.key, rw.age, rw.state, rw.summary)
		if rw.state == stateStale {
			line = r.stale.Render(line)
		}
		_, _ = fmt.Fprintln(r.w, line)
	}
	_, _ = fmt.Fprintln(r.w)
}

// tableRows builds the rows of one table from a snapshot.
func (r *renderer) tableRows(table string, snap store.Snapshot, now time.Time, ttl time.Duration) []row {
	stamp := func(ts store.Timestamp) (string, string) {
		state := stateFresh
		if ts.Expired(now, ttl) {
			state = stateStale
		}
		return store.FormatDuration(max(ts.Age(now), 0)), state
	}

	var rows []row
	switch table {
	case store.TableCurrentUser:
		if u := snap.CurrentUser; u != nil {
			rows = append(rows, row{key: u.ID, age: stateNoTTL, state: stateNoTTL, summary: "@" + u.Username})
		}
	case store.TableUserProfiles:
		for name, u := range snap.UserProfiles {
			summary := "id " + u.ID
			if u.Profile != nil && u.Profile.Bio != "" {
				summary += ", " + truncate(u.Profile.Bio, 40)
			}
			rows = append(rows, row{key: name, age: stateNoTTL, state: stateNoTTL, summary: summary})
		}
	case store.TableFeedBlogs, store.TableUserBlogs:
		pages := snap.FeedBlogs
		if table == store.TableUserBlogs {
			pages = snap.UserBlogs
		}
		for id, p := range pages {
			age, state := stamp(p.CreatedAt)
			summary := r.number(len(p.Blogs)) + " blogs"
			if p.Pagination.HasMore {
				summary += ", more after " + p.Pagination.NextCursor
			}
			rows = append(rows, row{key: id, age: age, state: state, summary: summary})
		}
	case store.TableFollowingUsers:
		for id, p := range snap.FollowingUsers {
			age, state := stamp(p.CreatedAt)
			rows = append(rows, row{key: id, age: age, state: state, summary: r.number(len(p.Users)) + " users"})
		}
	case store.TableSuggestedUsers:
		if sug := snap.SuggestedUsers; sug != nil {
			age, state := stamp(sug.CreatedAt)
			rows = append(rows, row{key: "-", age: age, state: state, summary: r.number(len(sug.Users)) + " users"})
		}
	case store.TableUserStats:
		for id, st := range snap.UserStats {
			age, state := stamp(st.CreatedAt)
			summary := fmt.Sprintf("%s posts, %s followers, %s following",
				r.number(st.Posts), r.number(st.Followers), r.number(st.Following))
			rows = append(rows, row{key: id, age: age, state: state, summary: summary})
		}
	case store.TableFollowStatus:
		for id, st := range snap.FollowStatus {
			age, state := stamp(st.CreatedAt)
			summary := "not following"
			if st.Following {
				summary = "following"
			}
			rows = append(rows, row{key: id, age: age, state: state, summary: summary})
		}
	}

	slices.SortFunc(rows, func(a, b row) int { return strings.Compare(a.key, b.key) })
	return rows
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
