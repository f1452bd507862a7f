package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// History backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// HistoryConfig represents execution history configuration
type HistoryConfig struct {
	// Backend selects the store: "file" (JSON lines) or "sqlite"
	Backend string `yaml:"backend"`

	// Path is the history file or database path
	Path string `yaml:"path"`

	// Cooldown is how long a completed insight is skipped for
	Cooldown time.Duration `yaml:"-"`
}

// PlanningConfig represents plan synthesis configuration
type PlanningConfig struct {
	// Samples is the number of independent plans voted on per insight
	Samples int `yaml:"samples"`
}

// Config represents actuator configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// Workspace is the directory executors mutate
	Workspace string `yaml:"workspace"`

	// ActionTimeout bounds a single executor call (0 = no limit)
	ActionTimeout time.Duration `yaml:"-"`

	// History contains execution history configuration
	History HistoryConfig `yaml:"history"`

	// Planning contains plan synthesis configuration
	Planning PlanningConfig `yaml:"planning"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		LogDir:        "logs",
		Workspace:     ".",
		ActionTimeout: 0,
		History: HistoryConfig{
			Backend:  BackendFile,
			Path:     "history.jsonl",
			Cooldown: 12 * time.Hour,
		},
		Planning: PlanningConfig{
			Samples: 3,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are strings in YAML
	type yamlHistory struct {
		Backend  string `yaml:"backend"`
		Path     string `yaml:"path"`
		Cooldown string `yaml:"cooldown"`
	}
	type yamlConfig struct {
		LogLevel      string         `yaml:"log_level"`
		LogDir        string         `yaml:"log_dir"`
		Workspace     string         `yaml:"workspace"`
		ActionTimeout string         `yaml:"action_timeout"`
		History       yamlHistory    `yaml:"history"`
		Planning      PlanningConfig `yaml:"planning"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.Workspace != "" {
		cfg.Workspace = yamlCfg.Workspace
	}
	if yamlCfg.ActionTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.ActionTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid action_timeout format %q: %w", yamlCfg.ActionTimeout, err)
		}
		cfg.ActionTimeout = timeout
	}

	if yamlCfg.History.Backend != "" {
		cfg.History.Backend = yamlCfg.History.Backend
		// A backend switch without an explicit path gets that backend's default
		if yamlCfg.History.Path == "" && yamlCfg.History.Backend == BackendSQLite {
			cfg.History.Path = "history.db"
		}
	}
	if yamlCfg.History.Path != "" {
		cfg.History.Path = yamlCfg.History.Path
	}
	if yamlCfg.History.Cooldown != "" {
		cooldown, err := time.ParseDuration(yamlCfg.History.Cooldown)
		if err != nil {
			return nil, fmt.Errorf("invalid history.cooldown format %q: %w", yamlCfg.History.Cooldown, err)
		}
		cfg.History.Cooldown = cooldown
	}

	// samples: 0 is a validation error, not "unset", so detect presence
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if planning, ok := rawMap["planning"].(map[string]interface{}); ok {
			if _, exists := planning["samples"]; exists {
				cfg.Planning.Samples = yamlCfg.Planning.Samples
			}
		}
	}

	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel, logDir, workspace, historyBackend, historyPath *string, actionTimeout, cooldown *time.Duration, samples *int) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if workspace != nil {
		c.Workspace = *workspace
	}
	if historyBackend != nil {
		c.History.Backend = *historyBackend
	}
	if historyPath != nil {
		c.History.Path = *historyPath
	}
	if actionTimeout != nil {
		c.ActionTimeout = *actionTimeout
	}
	if cooldown != nil {
		c.History.Cooldown = *cooldown
	}
	if samples != nil {
		c.Planning.Samples = *samples
	}
}

// ResolvePaths makes relative paths absolute: the log directory and history
// path against home, the workspace against cwd.
func (c *Config) ResolvePaths(home, cwd string) {
	resolve := func(base, p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.LogDir = resolve(home, c.LogDir)
	c.History.Path = resolve(home, c.History.Path)
	c.Workspace = resolve(cwd, c.Workspace)
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Workspace == "" {
		return fmt.Errorf("workspace cannot be empty")
	}

	// Timeout can be 0 (no timeout) or positive, negative is invalid
	if c.ActionTimeout < 0 {
		return fmt.Errorf("action_timeout must be >= 0, got %v", c.ActionTimeout)
	}

	switch c.History.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("invalid history.backend %q, must be one of: file, sqlite", c.History.Backend)
	}
	if c.History.Path == "" {
		return fmt.Errorf("history.path cannot be empty")
	}
	if c.History.Cooldown <= 0 {
		return fmt.Errorf("history.cooldown must be > 0, got %v", c.History.Cooldown)
	}

	if c.Planning.Samples < 1 {
		return fmt.Errorf("planning.samples must be >= 1, got %d", c.Planning.Samples)
	}

	return nil
}
