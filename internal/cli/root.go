package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/blogcache/internal/config"
	"github.com/rshade/blogcache/internal/logging"
	"github.com/rshade/blogcache/internal/metrics"
	"github.com/rshade/blogcache/internal/persist"
	"github.com/rshade/blogcache/internal/store"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// session holds what a single CLI invocation has opened. The store is opened
// lazily so config commands never touch storage.
type session struct {
	cfgPath     string
	metricsFile string
	lookupEnv   func(string) (string, bool)
	registry    *prometheus.Registry

	cfg       *config.Config
	logger    zerolog.Logger
	logResult *logging.LogPathResult

	store   *store.Store
	mirror  *persist.Mirror
	closers []func() error
}

// NewRootCmd creates the root Cobra command for the blogcache CLI.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithEnv(ver, os.LookupEnv)
}

// NewRootCmdWithEnv creates the root command with an explicit env lookup for
// testability.
func NewRootCmdWithEnv(ver string, lookupEnv func(string) (string, bool)) *cobra.Command {
	s := &session{lookupEnv: lookupEnv, logger: zerolog.Nop(), registry: prometheus.NewRegistry()}

	cmd := &cobra.Command{
		Use:           "blogcache",
		Short:         "Inspect and maintain the persisted blog UI cache",
		Long:          "blogcache reads and maintains the cache state the blog client persists between sessions.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(s.cfgPath, s.lookupEnv)
			if err != nil {
				return err
			}
			s.cfg = cfg
			setupLogging(cmd, s)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&s.cfgPath, "config", "", "config file (default ~/.blogcache/config.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&s.metricsFile, "metrics-file", "",
		"write cache counters in Prometheus text format to this file")
	cmd.AddCommand(
		newShowCmd(s), newGetCmd(s), newStatsCmd(s), newPruneCmd(s), newClearCmd(s),
		newInvalidateCmd(s), newConfigCmd(s),
	)
	finalizeOnExit(cmd, s)

	return cmd
}

// finalizeOnExit wraps every RunE in the tree so the metrics file is written
// and the session closed whether the command succeeds or fails. cobra skips
// post-run hooks after an error.
func finalizeOnExit(cmd *cobra.Command, s *session) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) (err error) {
			defer func() {
				err = errors.Join(err, s.writeMetrics(), s.close())
			}()
			return run(c, args)
		}
	}
	for _, sub := range cmd.Commands() {
		finalizeOnExit(sub, s)
	}
}

const rootCmdExample = `  # Show every cached table
  blogcache show

  # Show one table
  blogcache show userStats

  # Print a fresh entry as JSON
  blogcache get followStatus u42

  # Entry counts, fresh and stale
  blogcache stats

  # Drop expired entries from the persisted state
  blogcache prune

  # Forget a user's follow flag
  blogcache invalidate followStatus u42

  # Clear all tables, keeping the signed-in user
  blogcache clear --yes`

// newConfigCmd creates the config command group.
func newConfigCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(newConfigInitCmd(s), newConfigValidateCmd(s))
	return cmd
}

// openStore rehydrates the store from the configured backend on first use.
func (s *session) openStore(cmd *cobra.Command) (*store.Store, error) {
	if s.store != nil {
		return s.store, nil
	}

	backend, closeBackend, err := openBackend(s.cfg.Storage)
	if err != nil {
		return nil, err
	}
	if closeBackend != nil {
		s.closers = append(s.closers, closeBackend)
	}

	ttl, err := s.cfg.TTL()
	if err != nil {
		return nil, err
	}

	s.store, s.mirror = persist.Open(cmd.Context(), backend,
		store.WithTTL(ttl),
		store.WithMetrics(metrics.NewPrometheus(s.registry)),
	)
	return s.store, nil
}

// writeMetrics dumps the counters gathered during this invocation for a
// textfile collector.
func (s *session) writeMetrics() error {
	if s.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}

// persistErr reports a failure of the last save issued by the store.
func (s *session) persistErr() error {
	if s.mirror == nil {
		return nil
	}
	if err := s.mirror.Err(); err != nil {
		return fmt.Errorf("saving cache state: %w", err)
	}
	return nil
}

func (s *session) close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	if s.logResult != nil {
		errs = append(errs, s.logResult.Close())
	}
	return errors.Join(errs...)
}

// openBackend builds the storage backend selected by cfg. The returned close
// function may be nil.
func openBackend(cfg config.StorageConfig) (persist.Backend, func() error, error) {
	switch cfg.Backend {
	case config.BackendFile:
		b, err := persist.NewFileBackend(cfg.Dir)
		return b, nil, err
	case config.BackendSQLite:
		b, err := persist.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case config.BackendBoth:
		fileBackend, err := persist.NewFileBackend(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		sqlBackend, err := persist.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		multi, err := persist.NewMultiBackend(fileBackend, sqlBackend)
		if err != nil {
			_ = sqlBackend.Close()
			return nil, nil, err
		}
		return multi, sqlBackend.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
