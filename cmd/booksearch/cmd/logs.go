package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/booksearch/internal/logging"
	"github.com/Aman-CERP/booksearch/internal/ui"
)

func newLogsCmd() *cobra.Command {
	var (
		lines   int
		level   string
		event   string
		noColor bool
		file    string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the debug log",
		Long: `Show the last lines of the JSON log written by --debug runs.

Builds log one event per state change and one per skipped row, so
--event row_decode_failed lists every row that failed to parse.`,
		Example: `  booksearch logs -n 100
  booksearch logs --level warn
  booksearch logs --event '^build_'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return err
			}

			cfg := logging.ViewerConfig{
				Level:   level,
				NoColor: noColor || ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()),
			}
			if event != "" {
				re, err := regexp.Compile(event)
				if err != nil {
					return fmt.Errorf("invalid event pattern: %w", err)
				}
				cfg.Event = re
			}

			viewer := logging.NewViewer(cfg, cmd.OutOrStdout())
			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to read from the end of the log")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&event, "event", "", "Only events whose name matches this regex")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&file, "file", "", "Log file (default ~/.booksearch/logs/booksearch.log)")

	return cmd
}
