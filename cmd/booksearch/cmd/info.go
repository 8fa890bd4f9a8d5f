package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/booksearch/internal/async"
	"github.com/Aman-CERP/booksearch/internal/index"
	"github.com/Aman-CERP/booksearch/internal/store"
	"github.com/Aman-CERP/booksearch/internal/ui"
)

func newInfoCmd(a *app) *cobra.Command {
	var (
		indexPath  string
		docID      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show document count and size of an index",
		Long: `Open an index read-only and report how many documents it holds.

The index stays readable while no build is writing it. Use --doc to print
one stored document; document IDs are the 1-based catalog row numbers.`,
		Example: `  booksearch info --index /data/books
  booksearch info --doc 42 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if indexPath == "" {
				indexPath = a.cfg.Index.Path
			}
			return runInfo(cmd, indexPath, docID, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Index directory (default from config: index.path)")
	cmd.Flags().StringVar(&docID, "doc", "", "Print the stored document with this ID")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runInfo(cmd *cobra.Command, indexPath, docID string, jsonOutput bool) error {
	out := cmd.OutOrStdout()
	if async.HasIncompleteMarker(index.MarkerPath(indexPath)) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(),
			"Warning: a background build of %s did not finish; the index may be partial.\n", indexPath)
	}

	reader, err := store.OpenReader(indexPath)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	renderer := ui.NewInfoRenderer(out, ui.DetectNoColor() || !ui.IsTTY(out))

	if docID != "" {
		doc, ok, err := reader.Get(cmd.Context(), docID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("document %s not found in %s", docID, indexPath)
		}
		return renderer.RenderJSON(doc)
	}

	count, err := reader.DocCount()
	if err != nil {
		return err
	}
	size, modified := dirStats(indexPath)
	info := ui.IndexInfo{
		Path:         indexPath,
		Documents:    count,
		SizeBytes:    size,
		LastModified: modified,
	}

	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	renderer.RenderIndex(info)
	return nil
}

// dirStats sums file sizes under dir and returns the newest modification time.
func dirStats(dir string) (int64, time.Time) {
	var (
		size   int64
		latest time.Time
	)
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += info.Size()
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	return size, latest
}
