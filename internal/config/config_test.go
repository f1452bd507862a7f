package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.History.Backend != BackendFile {
		t.Errorf("History.Backend = %q, want %q", cfg.History.Backend, BackendFile)
	}
	if cfg.History.Cooldown != 12*time.Hour {
		t.Errorf("History.Cooldown = %v, want 12h", cfg.History.Cooldown)
	}
	if cfg.Planning.Samples != 3 {
		t.Errorf("Planning.Samples = %d, want 3", cfg.Planning.Samples)
	}
	if cfg.ActionTimeout != 0 {
		t.Errorf("ActionTimeout = %v, want 0", cfg.ActionTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	path := writeConfig(t, `log_level: debug
log_dir: /tmp/actuator-logs
workspace: ./ws
action_timeout: 30s
history:
  backend: sqlite
  cooldown: 6h
planning:
  samples: 5
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.LogDir != "/tmp/actuator-logs" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.Workspace != "./ws" {
		t.Errorf("Workspace = %q", cfg.Workspace)
	}
	if cfg.ActionTimeout != 30*time.Second {
		t.Errorf("ActionTimeout = %v, want 30s", cfg.ActionTimeout)
	}
	if cfg.History.Backend != BackendSQLite {
		t.Errorf("History.Backend = %q, want sqlite", cfg.History.Backend)
	}
	if cfg.History.Path != "history.db" {
		t.Errorf("History.Path = %q, want the sqlite default", cfg.History.Path)
	}
	if cfg.History.Cooldown != 6*time.Hour {
		t.Errorf("History.Cooldown = %v, want 6h", cfg.History.Cooldown)
	}
	if cfg.Planning.Samples != 5 {
		t.Errorf("Planning.Samples = %d, want 5", cfg.Planning.Samples)
	}
}

// TestLoadConfigPartialFile verifies unspecified fields keep their defaults
func TestLoadConfigPartialFile(t *testing.T) {
	path := writeConfig(t, "history:\n  path: /var/lib/actuator/h.jsonl\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.History.Path != "/var/lib/actuator/h.jsonl" {
		t.Errorf("History.Path = %q", cfg.History.Path)
	}
	if cfg.History.Backend != BackendFile {
		t.Errorf("History.Backend = %q, want default", cfg.History.Backend)
	}
	if cfg.Planning.Samples != 3 {
		t.Errorf("Planning.Samples = %d, want default 3", cfg.Planning.Samples)
	}
}

// TestLoadConfigExplicitZeroSamples verifies an explicit 0 is kept so Validate can reject it
func TestLoadConfigExplicitZeroSamples(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "planning:\n  samples: 0\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Planning.Samples != 0 {
		t.Fatalf("Planning.Samples = %d, want 0", cfg.Planning.Samples)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for samples 0")
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if cfg.History.Path != "history.jsonl" {
		t.Errorf("History.Path = %q, want default", cfg.History.Path)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed yaml", content: "log_level: [unterminated", wantErr: "failed to parse config file"},
		{name: "bad action timeout", content: "action_timeout: soon", wantErr: "invalid action_timeout"},
		{name: "bad cooldown", content: "history:\n  cooldown: twelve hours", wantErr: "invalid history.cooldown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	level := "warn"
	backend := BackendSQLite
	timeout := 5 * time.Second
	samples := 1
	cfg.MergeWithFlags(&level, nil, nil, &backend, nil, &timeout, nil, &samples)

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.History.Backend != BackendSQLite {
		t.Errorf("History.Backend = %q, want sqlite", cfg.History.Backend)
	}
	if cfg.ActionTimeout != 5*time.Second {
		t.Errorf("ActionTimeout = %v", cfg.ActionTimeout)
	}
	if cfg.Planning.Samples != 1 {
		t.Errorf("Planning.Samples = %d", cfg.Planning.Samples)
	}
	if cfg.History.Cooldown != 12*time.Hour {
		t.Errorf("nil flag must not override cooldown, got %v", cfg.History.Cooldown)
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolvePaths("/home/u/.actuator", "/work")

	if cfg.LogDir != "/home/u/.actuator/logs" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.History.Path != "/home/u/.actuator/history.jsonl" {
		t.Errorf("History.Path = %q", cfg.History.Path)
	}
	if cfg.Workspace != "/work" {
		t.Errorf("Workspace = %q", cfg.Workspace)
	}

	cfg.History.Path = "/abs/h.jsonl"
	cfg.ResolvePaths("/elsewhere", "/work")
	if cfg.History.Path != "/abs/h.jsonl" {
		t.Errorf("absolute path changed to %q", cfg.History.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "invalid log_level"},
		{name: "empty workspace", mutate: func(c *Config) { c.Workspace = "" }, wantErr: "workspace"},
		{name: "negative timeout", mutate: func(c *Config) { c.ActionTimeout = -time.Second }, wantErr: "action_timeout"},
		{name: "unknown backend", mutate: func(c *Config) { c.History.Backend = "redis" }, wantErr: "history.backend"},
		{name: "empty history path", mutate: func(c *Config) { c.History.Path = "" }, wantErr: "history.path"},
		{name: "zero cooldown", mutate: func(c *Config) { c.History.Cooldown = 0 }, wantErr: "history.cooldown"},
		{name: "zero samples", mutate: func(c *Config) { c.Planning.Samples = 0 }, wantErr: "planning.samples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
