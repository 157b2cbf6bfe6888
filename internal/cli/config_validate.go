package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/blogcache/internal/store"
)

// newConfigValidateCmd creates the config validate command. Loading already
// validates, so reaching RunE means the configuration is usable.
func newConfigValidateCmd(s *session) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the configuration file and BLOGCACHE_* overrides: the cache TTL
must be positive and the storage backend must have the paths it needs.`,
		Example: `  # Validate current configuration
  blogcache config validate

  # Validate and show the resolved values
  blogcache config validate --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("Configuration is valid")
			if !verbose {
				return nil
			}

			// Validate has accepted the TTL by now.
			ttl, _ := s.cfg.TTL()
			cmd.Println()
			cmd.Println("Configuration details:")
			cmd.Printf("  Cache TTL: %s\n", store.FormatDuration(ttl))
			cmd.Printf("  Storage backend: %s\n", s.cfg.Storage.Backend)
			cmd.Printf("  State directory: %s\n", s.cfg.Storage.Dir)
			cmd.Printf("  SQLite path: %s\n", s.cfg.Storage.SQLitePath)
			cmd.Printf("  Logging level: %s\n", s.cfg.Logging.Level)
			cmd.Printf("  Log file: %s\n", s.cfg.Logging.File)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}
