package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv names the environment variable that overrides the home directory.
const HomeEnv = "ACTUATOR_HOME"

// GetActuatorHome returns the actuator home directory
// Priority order:
//  1. ACTUATOR_HOME environment variable (if set)
//  2. The nearest ancestor of the working directory holding a .actuator-root
//     marker, joined with .actuator
//  3. .actuator under the current working directory (fallback)
//
// The directory is created if it doesn't exist
func GetActuatorHome() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create actuator home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	base := cwd
	if root, ok := findRootMarker(cwd); ok {
		base = root
	}

	home := filepath.Join(base, ".actuator")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create actuator home directory: %w", err)
	}
	return home, nil
}

// findRootMarker walks up from dir looking for a .actuator-root file.
func findRootMarker(dir string) (string, bool) {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, ".actuator-root")); err == nil {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// Load reads <home>/config.yaml and resolves its relative paths: log and
// history paths live under home, the workspace is relative to cwd.
func Load(home, cwd string) (*Config, error) {
	cfg, err := LoadConfig(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(home, cwd)
	return cfg, nil
}
