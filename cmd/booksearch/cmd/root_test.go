package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/booksearch/pkg/version"
)

// execute runs the CLI in an isolated working directory and config home.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"BOOKSEARCH_INDEX_PATH", "BOOKSEARCH_MERGE_POLICY", "BOOKSEARCH_MAX_THREADS", "BOOKSEARCH_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cmd, a := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	require.NoError(t, a.stop())
	return buf.String(), err
}

// writeCatalog writes n well-formed catalog rows and returns the path.
func writeCatalog(t *testing.T, dir string, n int) string {
	t.Helper()

	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "%d,Title %d,Author %d,Publisher,pdf,%d,en,1999,%d,978000000%04d,bafy%d\n",
			i, i, i, 1000+i, 100+i, i, i)
	}
	path := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestRootCmd_Help(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "--help")

	require.NoError(t, err)
	for _, sub := range []string{"index", "info", "budget", "doctor", "config", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	// Given: a project config with an unknown merge policy
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".booksearch.yaml", []byte("index:\n  merge_policy: sometimes\n"), 0o644))

	// When: running any command
	_, err := execute(t, "budget")

	// Then: configuration is rejected before the command runs
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge_policy")
}

func TestRootCmd_DebugLogging(t *testing.T) {
	// Given: HOME redirected so the log file lands in a temp dir
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	// When: running with --debug
	_, err := execute(t, "--debug", "version", "--short")

	// Then: the log file was created
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, ".booksearch", "logs", "booksearch.log"))
}

func TestRootCmd_ProfileFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := execute(t, "--profile-cpu", "cpu.prof", "--profile-mem", "heap.prof", "version")

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "cpu.prof"))
	assert.FileExists(t, filepath.Join(dir, "heap.prof"))
}

func TestVersionCmd(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"go_version"`)
}

func TestLogsCmd(t *testing.T) {
	// Given: a log with one warning among info events
	dir := t.TempDir()
	t.Chdir(dir)
	logFile := filepath.Join(dir, "booksearch.log")
	require.NoError(t, os.WriteFile(logFile, []byte(
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"build_started"}`+"\n"+
			`{"time":"2026-01-02T10:00:01Z","level":"WARN","msg":"row_decode_failed","row":7}`+"\n"),
		0o644))

	// When: showing warnings only
	out, err := execute(t, "logs", "--file", logFile, "--level", "warn")

	// Then: only the warning is printed
	require.NoError(t, err)
	assert.Contains(t, out, "row_decode_failed row=7")
	assert.NotContains(t, out, "build_started")
}

func TestLogsCmd_NoLogFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := execute(t, "logs")

	assert.Error(t, err)
}
