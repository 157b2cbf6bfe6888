package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/blogcache/internal/store"
)

// invalidators maps invalidate targets to store operations. suggestedUsers
// takes no id.
//
//nolint:gochecknoglobals // Fixed lookup table.
var invalidators = map[string]func(s *store.Store, id string){
	store.TableFeedBlogs:      (*store.Store).InvalidateFeedBlogs,
	store.TableUserBlogs:      (*store.Store).InvalidateUserBlogs,
	store.TableFollowingUsers: (*store.Store).InvalidateFollowingUsers,
	store.TableUserStats:      (*store.Store).InvalidateUserStats,
	store.TableFollowStatus:   (*store.Store).InvalidateFollowStatus,
	"userData":                (*store.Store).InvalidateUserData,
	store.TableSuggestedUsers: func(s *store.Store, _ string) { s.InvalidateSuggestedUsers() },
}

// newShowCmd creates the show command that prints cached entries.
func newShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:       "show [table...]",
		Short:     "Print cached entries with their age and freshness",
		ValidArgs: tableOrder,
		Args:      cobra.OnlyValidArgs,
		Example: `  # Every table
  blogcache show

  # Only feeds and stats
  blogcache show feedBlogs userStats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := s.openStore(cmd)
			if err != nil {
				return err
			}

			tables := tableOrder
			if len(args) > 0 {
				tables = args
			}

			r := newRenderer(cmd.OutOrStdout())
			snap := st.Snapshot()
			now := time.Now()
			for _, table := range tables {
				r.section(table, r.tableRows(table, snap, now, st.TTL()))
			}
			return nil
		},
	}
}

// newStatsCmd creates the stats command that prints per-table entry counts.
func newStatsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print entry counts per table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := s.openStore(cmd)
			if err != nil {
				return err
			}

			r := newRenderer(cmd.OutOrStdout())
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, r.heading.Render("TTL "+store.FormatDuration(st.TTL())))
			_, _ = fmt.Fprintf(out, "  %-16s %8s %8s %8s\n", "TABLE", "ENTRIES", "FRESH", "STALE")
			for _, ts := range st.Stats() {
				_, _ = fmt.Fprintf(out, "  %-16s %8s %8s %8s\n",
					ts.Table, r.number(ts.Entries), r.number(ts.Fresh), r.number(ts.Stale()))
			}
			return nil
		},
	}
}

// newPruneCmd creates the prune command that drops expired entries.
func newPruneCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries from the persisted state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := s.openStore(cmd)
			if err != nil {
				return err
			}

			removed := st.PruneExpired()
			if err := s.persistErr(); err != nil {
				return err
			}
			cmd.Printf("Pruned %d expired entries\n", removed)
			return nil
		},
	}
}

// newClearCmd creates the clear command.
func newClearCmd(s *session) *cobra.Command {
	var (
		all bool
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty every cache table",
		Long: `Empties every cache table. The signed-in user is kept unless --all is given.

When stdin is a terminal the command asks for confirmation unless --yes is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && stdinIsTerminal(cmd) {
				if !confirm(cmd.OutOrStdout(), cmd.InOrStdin(), "Clear the cache?") {
					cmd.Println("Aborted")
					return nil
				}
			}

			st, err := s.openStore(cmd)
			if err != nil {
				return err
			}

			st.ClearCache()
			if all {
				st.SetCurrentUser(nil)
			}
			if err := s.persistErr(); err != nil {
				return err
			}

			s.logger.Info().Bool("all", all).Msg("cache cleared")
			cmd.Println("Cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also forget the signed-in user")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

// newInvalidateCmd creates the invalidate command for single entries.
func newInvalidateCmd(s *session) *cobra.Command {
	targets := sortedKeys(invalidators)

	return &cobra.Command{
		Use:   "invalidate <table> [id]",
		Short: "Remove one cached entry",
		Long: fmt.Sprintf(`Removes the entry for id from table. Tables: %s.

userData removes every cached profile of the user id, whatever username it is
stored under. suggestedUsers takes no id.`, strings.Join(targets, ", ")),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			invalidate, ok := invalidators[table]
			if !ok {
				return fmt.Errorf("unknown table %q (want one of %s)", table, strings.Join(targets, ", "))
			}

			var id string
			if len(args) == 2 {
				id = args[1]
			}
			if id == "" && table != store.TableSuggestedUsers {
				return errors.New("an id is required for " + table)
			}

			st, err := s.openStore(cmd)
			if err != nil {
				return err
			}

			invalidate(st, id)
			if err := s.persistErr(); err != nil {
				return err
			}
			cmd.Printf("Invalidated %s %s\n", table, id)
			return nil
		},
	}
}

// stdinIsTerminal reports whether the command reads from an interactive terminal.
func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && isTerminal(f)
}
