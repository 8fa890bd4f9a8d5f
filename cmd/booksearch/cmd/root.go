// Package cmd provides the CLI commands for booksearch.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/booksearch/internal/config"
	"github.com/Aman-CERP/booksearch/internal/logging"
	"github.com/Aman-CERP/booksearch/internal/profiling"
	"github.com/Aman-CERP/booksearch/pkg/version"
)

// app holds what the root command resolves before any subcommand runs.
type app struct {
	debug    bool
	profile  profiling.Options
	cfg      *config.Config
	session  *profiling.Session
	cleanup  func()
	previous *slog.Logger
}

// NewRootCmd creates the root command for the booksearch CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "booksearch",
		Short: "Build full-text indexes over book catalogs",
		Long: `booksearch streams a book catalog CSV into an on-disk full-text index.

Each row becomes one searchable document. Rows that fail to parse are
logged and skipped, so a single bad line never stops a build.

Start with 'booksearch doctor' to check the machine, then
'booksearch index books.csv'.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.start,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.stop()
		},
	}

	cmd.SetVersionTemplate("booksearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to ~/.booksearch/logs/")
	cmd.PersistentFlags().StringVar(&a.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newInfoCmd(a))
	cmd.AddCommand(newBudgetCmd(a))
	cmd.AddCommand(newDoctorCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd, a
}

// Execute runs the root command. Cleanup also runs when a subcommand
// fails, which cobra's post-run hooks skip.
func Execute() error {
	cmd, a := newRootCmd()
	err := cmd.Execute()
	if stopErr := a.stop(); err == nil {
		err = stopErr
	}
	return err
}

// start loads configuration, then installs the logger and profiler.
func (a *app) start(cmd *cobra.Command, _ []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.previous = slog.Default()
	if a.debug {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		a.cleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	} else {
		slog.SetDefault(logging.NewConsoleLogger(cmd.ErrOrStderr(), cfg.Logging.Level))
	}

	if a.profile.Enabled() {
		session, err := profiling.Start(a.profile)
		if err != nil {
			return err
		}
		a.session = session
	}

	return nil
}

// stop flushes profiles and restores the previous logger. Safe to call twice.
func (a *app) stop() error {
	err := a.session.Stop()
	a.session = nil

	if a.cleanup != nil {
		slog.Info("debug_logging_stopped")
		a.cleanup()
		a.cleanup = nil
	}
	if a.previous != nil {
		slog.SetDefault(a.previous)
		a.previous = nil
	}

	return err
}
