package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/actuator/internal/logger"
	"github.com/harrison/actuator/internal/models"
	"github.com/harrison/actuator/internal/pipeline"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <insights-file|dir>...",
		Short: "Execute insights against the workspace",
		Long: `Execute insights by planning, dispatching and verifying their actions.

Insights files are YAML or JSON, either a list of insights or a mapping
with an "insights" list. Insights completed within the cooldown window are
skipped. Failed actions are analyzed, remediated and retried once.

Configuration is loaded from $ACTUATOR_HOME/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  actuator run insights.yaml
  actuator run ./insights/
  actuator run --workspace ./site --history-backend sqlite insights.json
  actuator run --samples 5 --cooldown 6h insights.yaml
  actuator run --action-timeout 30s --verbose insights.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCommand,
	}

	cmd.Flags().Duration("action-timeout", 0, "Maximum time for a single action (0 = no limit)")
	cmd.Flags().Duration("cooldown", 0, "Skip insights completed within this window (default 12h)")
	cmd.Flags().Int("samples", 0, "Number of plan samples voted on per insight (default 3)")
	cmd.Flags().Bool("verbose", false, "Show debug-level progress")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	insights, err := loadAll(args)
	if err != nil {
		return err
	}
	if len(insights) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No insights to execute.\n")
		return nil
	}

	logLevel := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logLevel = "debug"
	}

	consoleLog := logger.NewConsoleLogger(cmd.OutOrStdout(), logLevel)
	fileLog, err := logger.NewFileLoggerWithLevel(cfg.LogDir, logLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	log := &multiLogger{loggers: []pipeline.Logger{consoleLog, fileLog}}
	engine := newEngine(cfg, log)
	defer engine.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Executing %d insight(s) in %s\n\n", len(insights), cfg.Workspace)

	outcomes, runErr := engine.ProcessInsights(cmd.Context(), insights)

	printRunSummary(cmd, insights, outcomes)
	if summary, err := engine.ExecutionSummary(context.WithoutCancel(cmd.Context())); err == nil {
		log.LogSummary(*summary)
	} else if !errors.Is(err, pipeline.ErrNotInitialized) {
		log.LogWarn(fmt.Sprintf("failed to read execution history: %v", err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run log: %s\n", fileLog.RunFile())

	if runErr != nil {
		return fmt.Errorf("execution finished with errors: %w", runErr)
	}
	return nil
}

func printRunSummary(cmd *cobra.Command, insights []models.Insight, outcomes []*models.ExecutionOutcome) {
	succeeded := 0
	for _, o := range outcomes {
		if o.ExecutionSuccessful {
			succeeded++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRun Summary:\n")
	fmt.Fprintf(out, "  Insights loaded: %d\n", len(insights))
	fmt.Fprintf(out, "  Executed: %d\n", len(outcomes))
	fmt.Fprintf(out, "  Skipped: %d\n", len(insights)-len(outcomes))
	fmt.Fprintf(out, "  Successful: %d\n", succeeded)
	fmt.Fprintf(out, "  Failed: %d\n", len(outcomes)-succeeded)
}

// summaryLogger is implemented by loggers that can report history totals.
type summaryLogger interface {
	LogSummary(summary models.ExecutionSummary)
}

// multiLogger implements pipeline.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []pipeline.Logger
}

func (ml *multiLogger) LogSummary(summary models.ExecutionSummary) {
	for _, l := range ml.loggers {
		if sl, ok := l.(summaryLogger); ok {
			sl.LogSummary(summary)
		}
	}
}

func (ml *multiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

func (ml *multiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

func (ml *multiLogger) LogActionResult(action models.Action, result models.ExecutionResult) {
	for _, l := range ml.loggers {
		l.LogActionResult(action, result)
	}
}

func (ml *multiLogger) LogRepair(analysis models.FailureAnalysis, fixes []models.FixResult) {
	for _, l := range ml.loggers {
		l.LogRepair(analysis, fixes)
	}
}

func (ml *multiLogger) LogOutcome(outcome models.ExecutionOutcome) {
	for _, l := range ml.loggers {
		l.LogOutcome(outcome)
	}
}
