package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/actuator/internal/logger"
	"github.com/harrison/actuator/internal/models"
)

// NewSummaryCommand creates the summary command
func NewSummaryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show execution history statistics",
		Long: `Summary reads the execution history and prints total, successful and
failed execution counts followed by the most recent executions.

Examples:
  actuator summary
  actuator summary --limit 20
  actuator summary --json`,
		Args: cobra.NoArgs,
		RunE: summaryCommand,
	}

	cmd.Flags().Int("limit", 10, "Number of recent executions to list (0 = all)")
	cmd.Flags().Bool("json", false, "Print the full summary as JSON")

	return cmd
}

func summaryCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	engine := newEngine(cfg, logger.NewNoOpLogger())
	defer engine.Close()

	if err := engine.Initialize(cmd.Context()); err != nil {
		return err
	}
	summary, err := engine.ExecutionSummary(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	colorOutput := out == io.Writer(os.Stdout) && isatty.IsTerminal(os.Stdout.Fd())
	printSummary(out, summary, limit, colorOutput)
	return nil
}

func printSummary(out io.Writer, summary *models.ExecutionSummary, limit int, colorOutput bool) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	if colorOutput {
		for _, c := range []*color.Color{bold, green, red} {
			c.EnableColor()
		}
	} else {
		for _, c := range []*color.Color{bold, green, red} {
			c.DisableColor()
		}
	}

	fmt.Fprintf(out, "%s\n", bold.Sprint("Execution Summary:"))
	fmt.Fprintf(out, "  Total executions: %d\n", summary.Total)
	fmt.Fprintf(out, "  %s\n", green.Sprintf("Successful: %d", summary.Successful))
	if summary.Failed > 0 {
		fmt.Fprintf(out, "  %s\n", red.Sprintf("Failed: %d", summary.Failed))
	} else {
		fmt.Fprintf(out, "  Failed: %d\n", summary.Failed)
	}
	if summary.Total > 0 {
		fmt.Fprintf(out, "  Success rate: %.0f%%\n", float64(summary.Successful)*100/float64(summary.Total))
	}

	history := summary.History
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	if len(history) == 0 {
		return
	}

	fmt.Fprintf(out, "\n%s\n", bold.Sprint("Recent executions:"))
	for i := len(history) - 1; i >= 0; i-- {
		rec := history[i]
		status := red.Sprint(rec.Status)
		if rec.Completed() {
			status = green.Sprint(rec.Status)
		}
		fmt.Fprintf(out, "  %s  %-9s %s (%d action(s))\n",
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"), status, rec.InsightSummary, len(rec.ActionPlan))
	}
}
