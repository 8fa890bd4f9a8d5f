package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{"time":"2026-01-02T10:00:00.000Z","level":"INFO","msg":"build_started","rows":3}
{"time":"2026-01-02T10:00:01.000Z","level":"WARN","msg":"row_decode_failed","row":2,"column":"year"}
not json at all
{"time":"2026-01-02T10:00:02.000Z","level":"INFO","msg":"build_completed","added":2}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "booksearch.log")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o644))
	return path
}

func TestParseLine(t *testing.T) {
	// Given: a slog JSON line
	e := ParseLine(`{"time":"2026-01-02T10:00:01.5Z","level":"WARN","msg":"row_decode_failed","row":2}`)

	// Then: standard keys are lifted out of the attributes
	assert.True(t, e.Valid)
	assert.Equal(t, "WARN", e.Level)
	assert.Equal(t, "row_decode_failed", e.Msg)
	assert.Equal(t, 500, e.Time.Nanosecond()/1_000_000)
	assert.Equal(t, map[string]any{"row": float64(2)}, e.Attrs)

	// Given: plain text
	// Then: it is kept raw
	raw := ParseLine("panic: boom")
	assert.False(t, raw.Valid)
	assert.Equal(t, "panic: boom", raw.Raw)
}

func TestViewer_Tail(t *testing.T) {
	path := writeSample(t)

	tests := []struct {
		name string
		cfg  ViewerConfig
		n    int
		want []string
	}{
		{name: "last two lines", n: 2, want: []string{"", "build_completed"}},
		{name: "more than the file", n: 100, want: []string{"build_started", "row_decode_failed", "", "build_completed"}},
		{name: "level filter keeps raw lines", cfg: ViewerConfig{Level: "warn"}, n: 100, want: []string{"row_decode_failed", ""}},
		{name: "event filter", cfg: ViewerConfig{Event: regexp.MustCompile(`^build_`)}, n: 100, want: []string{"build_started", "build_completed"}},
		{name: "zero lines", n: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := NewViewer(tt.cfg, &bytes.Buffer{}).Tail(path, tt.n)
			require.NoError(t, err)

			var got []string
			for _, e := range entries {
				got = append(got, e.Msg)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestViewer_Tail_MissingFile(t *testing.T) {
	_, err := NewViewer(ViewerConfig{}, &bytes.Buffer{}).Tail(filepath.Join(t.TempDir(), "none.log"), 10)

	assert.Error(t, err)
}

func TestViewer_Print(t *testing.T) {
	// Given: a viewer without colors
	buf := &bytes.Buffer{}
	v := NewViewer(ViewerConfig{NoColor: true}, buf)
	entries, err := v.Tail(writeSample(t), 3)
	require.NoError(t, err)

	// When: printing
	v.Print(entries)

	// Then: attributes are sorted and raw lines pass through
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "WARN  row_decode_failed column=year row=2"), lines[0])
	assert.Equal(t, "not json at all", lines[1])
	assert.Contains(t, lines[2], "INFO  build_completed added=2")
}
