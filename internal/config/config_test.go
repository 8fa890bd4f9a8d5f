package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/booksearch/internal/budget"
)

// isolate points the user config at an empty temp dir.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("BOOKSEARCH_INDEX_PATH", "")
	t.Setenv("BOOKSEARCH_MERGE_POLICY", "")
	t.Setenv("BOOKSEARCH_MAX_THREADS", "")
	t.Setenv("BOOKSEARCH_LOG_LEVEL", "")
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "index", cfg.Index.Path)
	assert.Equal(t, MergePolicyAlways, cfg.Index.MergePolicy)
	assert.Equal(t, 8, cfg.Budget.MaxThreads)
	assert.Equal(t, uint64(4_293_967_294), cfg.Budget.ThreadArenaCeiling)
	assert.Equal(t, uint64(100), cfg.Budget.SmallMachineHeadroomMB)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles_UsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_ProjectFileOverridesUserFile(t *testing.T) {
	// Given: a user config and a project config
	isolate(t)
	userDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "booksearch")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "config.yaml"),
		[]byte("index:\n  path: /user/index\nbudget:\n  max_threads: 4\n"), 0o644))

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigName),
		[]byte("index:\n  path: /project/index\n  merge_policy: default\n"), 0o644))

	// When: loading
	cfg, err := Load(project)

	// Then: project wins, user values fill the rest
	require.NoError(t, err)
	assert.Equal(t, "/project/index", cfg.Index.Path)
	assert.Equal(t, MergePolicyDefault, cfg.Index.MergePolicy)
	assert.Equal(t, 4, cfg.Budget.MaxThreads)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	isolate(t)
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigName),
		[]byte("index:\n  path: /project/index\n"), 0o644))
	t.Setenv("BOOKSEARCH_INDEX_PATH", "/env/index")
	t.Setenv("BOOKSEARCH_MERGE_POLICY", "DEFAULT")
	t.Setenv("BOOKSEARCH_MAX_THREADS", "2")
	t.Setenv("BOOKSEARCH_LOG_LEVEL", "debug")

	cfg, err := Load(project)

	require.NoError(t, err)
	assert.Equal(t, "/env/index", cfg.Index.Path)
	assert.Equal(t, MergePolicyDefault, cfg.Index.MergePolicy)
	assert.Equal(t, 2, cfg.Budget.MaxThreads)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidEnvThreads(t *testing.T) {
	isolate(t)
	t.Setenv("BOOKSEARCH_MAX_THREADS", "many")

	_, err := Load(t.TempDir())

	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigName),
		[]byte("index: [not, a, map"), 0o644))

	_, err := Load(project)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"default merge policy", func(c *Config) { c.Index.MergePolicy = MergePolicyDefault }, false},
		{"unknown merge policy", func(c *Config) { c.Index.MergePolicy = "sometimes" }, true},
		{"empty index path", func(c *Config) { c.Index.Path = "" }, true},
		{"zero threads", func(c *Config) { c.Budget.MaxThreads = 0 }, true},
		{"zero ceiling", func(c *Config) { c.Budget.ThreadArenaCeiling = 0 }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	isolate(t)
	project := t.TempDir()
	cfg := NewConfig()
	cfg.Index.Path = "/data/books.idx"
	cfg.Budget.MaxThreads = 3

	require.NoError(t, cfg.WriteYAML(filepath.Join(project, ProjectConfigName)))
	loaded, err := Load(project)

	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestBudgetConfig_Limits(t *testing.T) {
	// Given: the default budget section
	cfg := NewConfig()

	// When: converting it
	limits := cfg.Budget.Limits()

	// Then: it matches the package defaults, headroom in bytes
	assert.Equal(t, budget.DefaultLimits(), limits)
	assert.Equal(t, 100*budget.MiB, limits.SmallMachineHeadroom)
}
