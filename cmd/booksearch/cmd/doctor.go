package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/booksearch/internal/preflight"
)

// errChecksFailed is returned when a required check fails.
var errChecksFailed = errors.New("system check failed")

func newDoctorCmd(a *app) *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
		indexPath  string
	)

	cmd := &cobra.Command{
		Use:   "doctor [catalog.csv]",
		Short: "Check system requirements and diagnose issues",
		Long: `Run system diagnostics before building an index.

Checks:
  - Disk space at the index location (100MB minimum)
  - Available memory and the build budget it yields
  - Write permission where the index will be created
  - File descriptor limits (1024 minimum)
  - Leftovers from an unfinished background build
  - Catalog readability (when a catalog is given)

Memory and leftover checks only warn.`,
		Example: `  booksearch doctor
  booksearch doctor books.csv --index /data/books --verbose`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := preflight.Target{IndexPath: a.cfg.Index.Path}
			if indexPath != "" {
				target.IndexPath = indexPath
			}
			if len(args) > 0 {
				target.SourcePath = args[0]
			}
			return runDoctor(cmd, target, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&indexPath, "index", "", "Index directory (default from config: index.path)")

	return cmd
}

func runDoctor(cmd *cobra.Command, target preflight.Target, verbose, jsonOutput bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)
	results := checker.RunAll(ctx, target)

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Status string                  `json:"status"`
			Checks []preflight.CheckResult `json:"checks"`
		}{checker.SummaryStatus(results), results}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return errChecksFailed
	}
	return nil
}
