package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/booksearch/internal/index"
	"github.com/Aman-CERP/booksearch/internal/store"
	"github.com/Aman-CERP/booksearch/internal/ui"
)

type indexFlags struct {
	indexPath   string
	mergePolicy string
	background  bool
	noTUI       bool
}

func newIndexCmd(a *app) *cobra.Command {
	var f indexFlags

	cmd := &cobra.Command{
		Use:   "index <catalog.csv>",
		Short: "Build an index from a catalog CSV",
		Long: `Build a full-text index from a headerless book catalog CSV.

Each row must carry, in order: id, title, author, publisher, extension,
filesize, language, year, pages, isbn, ipfs_cid. Rows that fail to parse
and documents the index rejects are logged and counted; the build goes on.

Writer threads and memory are sized from the CPUs and available memory
of this machine ('booksearch budget' shows the numbers).

Merge policies:
  always    force a single segment after the final commit (default)
  default   leave segment merging to the engine

Use --background to start the build on its own goroutine and wait for it;
a marker file next to the index records builds that never finished.`,
		Example: `  # Build ./index from books.csv
  booksearch index books.csv

  # Write somewhere else without the interactive display
  booksearch index books.csv --index /data/books --no-tui`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runIndex(ctx, cmd, a, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.indexPath, "index", "", "Index directory (default from config: index.path)")
	cmd.Flags().StringVar(&f.mergePolicy, "merge-policy", "", "Merge policy: always or default (default from config)")
	cmd.Flags().BoolVar(&f.background, "background", false, "Run the build in the background and wait for it")
	cmd.Flags().BoolVar(&f.noTUI, "no-tui", false, "Disable TUI mode, use plain text output")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, a *app, source string, f indexFlags) error {
	indexPath := a.cfg.Index.Path
	if f.indexPath != "" {
		indexPath = f.indexPath
	}
	policyName := a.cfg.Index.MergePolicy
	if f.mergePolicy != "" {
		policyName = f.mergePolicy
	}
	policy, err := store.ParseMergePolicy(policyName)
	if err != nil {
		return err
	}

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(), ui.WithForcePlain(f.noTUI)))
	defer func() { _ = renderer.Stop() }()

	var once sync.Once
	builder := index.NewBuilder(index.Options{
		IndexPath:   indexPath,
		MergePolicy: policy,
		Limits:      a.cfg.Budget.Limits(),
		OnState: func(s index.State, p *ui.Progress) {
			if p != nil {
				once.Do(func() {
					if err := renderer.Start(ctx, p); err != nil {
						slog.Warn("progress_renderer_failed", slog.String("error", err.Error()))
					}
				})
			}
			renderer.SetStage(s.String())
		},
	})

	var report index.Report
	if f.background {
		report, err = runBackground(ctx, cmd, builder, source)
	} else {
		report, err = builder.Build(ctx, source)
	}

	renderer.Complete(report.Summary(err))
	return err
}

// runBackground starts the build and waits for it. An interrupt stops the
// wait, not the build: the writer still commits before the process exits.
func runBackground(ctx context.Context, cmd *cobra.Command, builder *index.Builder, source string) (index.Report, error) {
	build, err := builder.BuildBackground(context.WithoutCancel(ctx), source)
	if err != nil {
		return index.Report{Source: source}, err
	}

	select {
	case <-build.Done():
	case <-ctx.Done():
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted, waiting for the index to be committed...")
	}
	return build.Wait()
}
