package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/blogcache/internal/store"
)

// ErrCacheMiss is returned by get when no fresh entry exists.
var ErrCacheMiss = errors.New("cache miss")

// getter reads one entry through the store's TTL-checked accessors.
type getter struct {
	needsID bool
	get     func(st *store.Store, id string) (any, bool)
}

//nolint:gochecknoglobals // Fixed lookup table.
var getters = map[string]getter{
	store.TableCurrentUser: {get: func(st *store.Store, _ string) (any, bool) {
		u := st.CurrentUser()
		return u, u != nil
	}},
	store.TableUserProfiles: {needsID: true, get: func(st *store.Store, id string) (any, bool) {
		return st.UserProfile(id)
	}},
	store.TableFeedBlogs: {needsID: true, get: func(st *store.Store, id string) (any, bool) {
		return st.FeedBlogs(id)
	}},
	store.TableUserBlogs: {needsID: true, get: func(st *store.Store, id string) (any, bool) {
		return st.UserBlogs(id)
	}},
	store.TableFollowingUsers: {needsID: true, get: func(st *store.Store, id string) (any, bool) {
		return st.FollowingUsers(id)
	}},
	store.TableSuggestedUsers: {get: func(st *store.Store, _ string) (any, bool) {
		return st.SuggestedUsers()
	}},
	store.TableUserStats: {needsID: true, get: func(st *store.Store, id string) (any, bool) {
		return st.UserStats(id)
	}},
	store.TableFollowStatus: {needsID: true, get: func(st *store.Store, id string) (any, bool) {
		return st.FollowStatus(id)
	}},
}

// newGetCmd creates the get command that prints one fresh entry as JSON.
func newGetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> [id]",
		Short: "Print one fresh entry as JSON",
		Long: `Prints the entry for id in table as JSON, the way the client would read it.
Expired entries are reported as a miss. currentUser and suggestedUsers take no
id; userProfiles is keyed by username.`,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: tableOrder,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			g, ok := getters[table]
			if !ok {
				return fmt.Errorf("unknown table %q (want one of %s)", table, strings.Join(sortedKeys(getters), ", "))
			}

			var id string
			if len(args) == 2 {
				id = args[1]
			}
			if g.needsID && id == "" {
				return errors.New("an id is required for " + table)
			}

			st, err := s.openStore(cmd)
			if err != nil {
				return err
			}

			v, found := g.get(st, id)
			if !found {
				return fmt.Errorf("%w: %s %s", ErrCacheMiss, table, id)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
