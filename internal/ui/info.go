package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// IndexInfo describes an index on disk.
type IndexInfo struct {
	Path         string    `json:"path"`
	Documents    uint64    `json:"documents"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// BudgetInfo describes the writer budget computed for this host.
type BudgetInfo struct {
	CPUs           int    `json:"cpus"`
	AvailableBytes uint64 `json:"available_bytes"`
	Threads        int    `json:"threads"`
	ArenaBytes     uint64 `json:"arena_bytes"`
}

// InfoRenderer prints index and budget information.
type InfoRenderer struct {
	out    io.Writer
	styles Styles
}

// NewInfoRenderer creates an info renderer.
func NewInfoRenderer(out io.Writer, noColor bool) *InfoRenderer {
	return &InfoRenderer{out: out, styles: GetStyles(noColor)}
}

// RenderIndex displays index information.
func (r *InfoRenderer) RenderIndex(info IndexInfo) {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index: "+info.Path))
	_, _ = fmt.Fprintf(r.out, "  Documents:     %d\n", info.Documents)
	_, _ = fmt.Fprintf(r.out, "  Size:          %s\n", FormatBytes(info.SizeBytes))
	if !info.LastModified.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Last modified: %s\n", formatTime(info.LastModified))
	}
}

// RenderBudget displays the writer budget.
func (r *InfoRenderer) RenderBudget(info BudgetInfo) {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Writer budget"))
	_, _ = fmt.Fprintf(r.out, "  CPUs:             %d\n", info.CPUs)
	_, _ = fmt.Fprintf(r.out, "  Available memory: %s\n", FormatBytes(clampInt64(info.AvailableBytes)))
	_, _ = fmt.Fprintf(r.out, "  Writer threads:   %d\n", info.Threads)
	_, _ = fmt.Fprintf(r.out, "  Arena:            %s (%d bytes)\n", FormatBytes(clampInt64(info.ArenaBytes)), info.ArenaBytes)
}

// RenderJSON writes v as indented JSON.
func (r *InfoRenderer) RenderJSON(v any) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func clampInt64(v uint64) int64 {
	if v > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(v)
}

// formatTime formats a time relative to now.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
