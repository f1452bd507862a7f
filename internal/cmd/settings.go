package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/actuator/internal/config"
	"github.com/harrison/actuator/internal/pipeline"
)

// addConfigFlags registers the flags shared by every subcommand.
func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default: $ACTUATOR_HOME/config.yaml)")
	flags.String("workspace", "", "Directory executors mutate")
	flags.String("history-backend", "", "History store: file or sqlite")
	flags.String("history", "", "History file or database path")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.String("log-dir", "", "Directory for run logs")
}

// loadConfig resolves configuration from the config file and CLI flags.
// Relative paths from the file resolve against the actuator home; relative
// paths from flags resolve against the working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	home, err := config.GetActuatorHome()
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	var cfg *config.Config
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		cfg.ResolvePaths(home, cwd)
	} else {
		cfg, err = config.Load(home, cwd)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	stringFlag := func(name string, path bool) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		if path && v != "" && !filepath.IsAbs(v) {
			v = filepath.Join(cwd, v)
		}
		return &v
	}
	cfg.MergeWithFlags(
		stringFlag("log-level", false),
		stringFlag("log-dir", true),
		stringFlag("workspace", true),
		stringFlag("history-backend", false),
		stringFlag("history", true),
		nil, nil, nil,
	)

	if err := mergeRunFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeRunFlags applies the execution-tuning flags when the command has them.
func mergeRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if f := flags.Lookup("action-timeout"); f != nil && f.Changed {
		d, err := flags.GetDuration("action-timeout")
		if err != nil {
			return fmt.Errorf("invalid --action-timeout: %w", err)
		}
		cfg.MergeWithFlags(nil, nil, nil, nil, nil, &d, nil, nil)
	}
	if f := flags.Lookup("cooldown"); f != nil && f.Changed {
		d, err := flags.GetDuration("cooldown")
		if err != nil {
			return fmt.Errorf("invalid --cooldown: %w", err)
		}
		cfg.MergeWithFlags(nil, nil, nil, nil, nil, nil, &d, nil)
	}
	if f := flags.Lookup("samples"); f != nil && f.Changed {
		n, err := flags.GetInt("samples")
		if err != nil {
			return fmt.Errorf("invalid --samples: %w", err)
		}
		cfg.MergeWithFlags(nil, nil, nil, nil, nil, nil, nil, &n)
	}
	return nil
}

// newEngine builds a pipeline engine from resolved configuration.
func newEngine(cfg *config.Config, log pipeline.Logger) *pipeline.Engine {
	return pipeline.New(pipeline.Config{
		Workspace:      cfg.Workspace,
		HistoryBackend: cfg.History.Backend,
		HistoryPath:    cfg.History.Path,
		Cooldown:       cfg.History.Cooldown,
		Samples:        cfg.Planning.Samples,
		ActionTimeout:  cfg.ActionTimeout,
	}, pipeline.WithLogger(log))
}
