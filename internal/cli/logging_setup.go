package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/blogcache/internal/logging"
)

// setupLogging configures logging based on config file, environment, and CLI
// flags, and stores the logger and a trace ID in the command context.
func setupLogging(cmd *cobra.Command, s *session) {
	loggingCfg := s.cfg.Logging.ToLoggingConfig()

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.File = ""
	}
	loggingCfg.Output = cmd.ErrOrStderr()

	result := logging.NewLoggerWithPath(loggingCfg)
	s.logResult = &result
	s.logger = logging.ComponentLogger(result.Logger, "cli")

	if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && result.UsingFile && isTerminal(f) {
		logging.PrintLogPathMessage(f, result.FilePath)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = s.logger.With().Str("trace_id", traceID).Logger().WithContext(ctx)
	cmd.SetContext(ctx)

	s.logger.Debug().Str("command", cmd.Name()).Str("trace_id", traceID).Msg("command started")
}
