package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/booksearch/configs"
	"github.com/Aman-CERP/booksearch/internal/budget"
	"github.com/Aman-CERP/booksearch/internal/config"
	"github.com/Aman-CERP/booksearch/internal/ui"
)

func TestBudgetCmd_JSON(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "budget", "--json")
	require.NoError(t, err)

	var info ui.BudgetInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.GreaterOrEqual(t, info.Threads, 1)
	assert.LessOrEqual(t, info.Threads, budget.MaxThreads)
	assert.Greater(t, info.ArenaBytes, uint64(0))
}

func TestRunBudget_UsesConfiguredLimits(t *testing.T) {
	// Given: max_threads lowered to 2 and a 16-CPU machine with 8 GiB
	cfg := config.NewConfig()
	cfg.Budget.MaxThreads = 2
	a := &app{cfg: cfg}
	provider := &budget.StaticProvider{Memory: 8 * budget.GiB, CPUs: 16}

	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	// When: rendering the budget
	require.NoError(t, runBudget(cmd, a, provider, true))

	// Then: threads follow the configured cap
	var info ui.BudgetInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, 2, info.Threads)
	assert.Equal(t, 16, info.CPUs)
	assert.Equal(t, cfg.Budget.Limits().Compute(provider).ArenaBytes, info.ArenaBytes)
}

func TestDoctorCmd_JSON(t *testing.T) {
	// Given: a readable catalog
	dir := t.TempDir()
	t.Chdir(dir)
	source := writeCatalog(t, dir, 2)

	// When: running doctor with JSON output
	out, _ := execute(t, "doctor", source, "--json")

	// Then: every check is reported
	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name string `json:"name"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.Status)
	assert.Len(t, report.Checks, 6)
}

func TestDoctorCmd_MissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t, "doctor", filepath.Join(dir, "missing.csv"))

	assert.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out, "[FAIL] source")
}

func TestConfigCmd_InitAndShow(t *testing.T) {
	// Given: an empty working directory
	dir := t.TempDir()
	t.Chdir(dir)

	// When: writing the project template
	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	// Then: the file holds the template and loads cleanly
	data, err := os.ReadFile(filepath.Join(dir, config.ProjectConfigName))
	require.NoError(t, err)
	assert.Equal(t, configs.ConfigTemplate, string(data))

	out, err = execute(t, "config", "show", "--json")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, *config.NewConfig(), cfg)

	// And: a second init leaves the file alone
	out, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestConfigCmd_ShowYAML(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "merge_policy: always")
}

func TestConfigCmd_Path(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "config", "path")

	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("booksearch", "config.yaml"))
}
