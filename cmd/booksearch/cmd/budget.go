package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/booksearch/internal/budget"
	"github.com/Aman-CERP/booksearch/internal/ui"
)

func newBudgetCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show the writer threads and memory a build would use",
		Long: `Probe this machine and print the resource budget an index build
would get: writer threads from the CPU count (capped by budget.max_threads)
and the writer arena from available memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBudget(cmd, a, budget.NewSystemProvider(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runBudget(cmd *cobra.Command, a *app, p budget.Provider, jsonOutput bool) error {
	b := a.cfg.Budget.Limits().Compute(p)

	// probe errors already fell back inside Compute
	avail, _ := p.AvailableMemory()
	cpus, _ := p.CPUCount()

	info := ui.BudgetInfo{
		CPUs:           cpus,
		AvailableBytes: avail,
		Threads:        b.Threads,
		ArenaBytes:     b.ArenaBytes,
	}

	out := cmd.OutOrStdout()
	renderer := ui.NewInfoRenderer(out, ui.DetectNoColor() || !ui.IsTTY(out))
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	renderer.RenderBudget(info)
	return nil
}
