// Package config loads booksearch configuration from YAML files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/booksearch/internal/budget"
)

// Merge policy names accepted in configuration.
const (
	MergePolicyAlways  = "always"
	MergePolicyDefault = "default"
)

// ProjectConfigName is the per-directory configuration file.
const ProjectConfigName = ".booksearch.yaml"

// Config represents the complete booksearch configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Budget  BudgetConfig  `yaml:"budget" json:"budget"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexConfig configures where and how the index is written.
type IndexConfig struct {
	// Path is the index directory.
	Path string `yaml:"path" json:"path"`
	// MergePolicy is "always" (force a single segment after commit) or
	// "default" (leave merging to the engine).
	MergePolicy string `yaml:"merge_policy" json:"merge_policy"`
}

// BudgetConfig bounds the writer memory budget derived from the host.
type BudgetConfig struct {
	// MaxThreads caps writer threads (default: 8).
	MaxThreads int `yaml:"max_threads" json:"max_threads"`
	// ThreadArenaCeiling is the largest arena a single writer thread can use.
	ThreadArenaCeiling uint64 `yaml:"thread_arena_ceiling" json:"thread_arena_ceiling"`
	// SmallMachineHeadroomMB is reserved on hosts with less than 2 GiB available.
	SmallMachineHeadroomMB uint64 `yaml:"small_machine_headroom_mb" json:"small_machine_headroom_mb"`
}

// LoggingConfig configures console logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Path:        "index",
			MergePolicy: MergePolicyAlways,
		},
		Budget: BudgetConfig{
			MaxThreads:             8,
			ThreadArenaCeiling:     4_293_967_294,
			SmallMachineHeadroomMB: 100,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/booksearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/booksearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "booksearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "booksearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "booksearch", "config.yaml")
}

// Load loads configuration for dir. Precedence, lowest first:
//  1. Defaults
//  2. User config (~/.config/booksearch/config.yaml)
//  3. Project config (.booksearch.yaml in dir)
//  4. Environment variables (BOOKSEARCH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if path := filepath.Join(dir, ProjectConfigName); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML parses path and merges its non-zero values into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Index.Path != "" {
		c.Index.Path = other.Index.Path
	}
	if other.Index.MergePolicy != "" {
		c.Index.MergePolicy = other.Index.MergePolicy
	}
	if other.Budget.MaxThreads != 0 {
		c.Budget.MaxThreads = other.Budget.MaxThreads
	}
	if other.Budget.ThreadArenaCeiling != 0 {
		c.Budget.ThreadArenaCeiling = other.Budget.ThreadArenaCeiling
	}
	if other.Budget.SmallMachineHeadroomMB != 0 {
		c.Budget.SmallMachineHeadroomMB = other.Budget.SmallMachineHeadroomMB
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

// applyEnvOverrides applies BOOKSEARCH_* variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("BOOKSEARCH_INDEX_PATH"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("BOOKSEARCH_MERGE_POLICY"); v != "" {
		c.Index.MergePolicy = strings.ToLower(v)
	}
	if v := os.Getenv("BOOKSEARCH_MAX_THREADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BOOKSEARCH_MAX_THREADS: %w", err)
		}
		c.Budget.MaxThreads = n
	}
	if v := os.Getenv("BOOKSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Index.MergePolicy) {
	case MergePolicyAlways, MergePolicyDefault:
	default:
		return fmt.Errorf("index.merge_policy must be 'always' or 'default', got %q", c.Index.MergePolicy)
	}

	if c.Index.Path == "" {
		return fmt.Errorf("index.path must not be empty")
	}
	if c.Budget.MaxThreads < 1 {
		return fmt.Errorf("budget.max_threads must be at least 1, got %d", c.Budget.MaxThreads)
	}
	if c.Budget.ThreadArenaCeiling == 0 {
		return fmt.Errorf("budget.thread_arena_ceiling must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// Limits converts the budget section for budget.Limits.Compute.
func (b BudgetConfig) Limits() budget.Limits {
	return budget.Limits{
		MaxThreads:           b.MaxThreads,
		ThreadArenaCeiling:   b.ThreadArenaCeiling,
		SmallMachineHeadroom: b.SmallMachineHeadroomMB * budget.MiB,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
