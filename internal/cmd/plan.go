package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/actuator/internal/logger"
	"github.com/harrison/actuator/internal/models"
)

// NewPlanCommand creates the plan command
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <insights-file|dir>...",
		Short: "Show the actions insights would produce without executing them",
		Long: `Plan synthesizes the majority-vote action plan for each insight and
prints it. Nothing is dispatched and the history is not touched.

Examples:
  actuator plan insights.yaml
  actuator plan --samples 5 --verbose insights.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: planCommand,
	}

	cmd.Flags().Int("samples", 0, "Number of plan samples voted on per insight (default 3)")
	cmd.Flags().Bool("verbose", false, "Show action descriptions")

	return cmd
}

func planCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	insights, err := loadAll(args)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	engine := newEngine(cfg, logger.NewNoOpLogger())

	out := cmd.OutOrStdout()
	total := 0
	for _, insight := range insights {
		if err := insight.Validate(); err != nil {
			fmt.Fprintf(out, "Skipping invalid insight: %v\n", err)
			continue
		}

		plan := engine.SynthesizePlan([]models.Insight{insight})
		total += len(plan)

		fmt.Fprintf(out, "Insight %s: %s\n", insight.ID, insight.Summary)
		for i, action := range plan {
			fmt.Fprintf(out, "  %d. %s -> %s [%s]\n", i+1, action, action.TargetSystem, action.Priority)
			if verbose && action.Description != "" {
				fmt.Fprintf(out, "     %s\n", action.Description)
			}
		}
	}

	fmt.Fprintf(out, "\nDry-run: %d action(s) across %d insight(s), %d sample(s) per insight.\n",
		total, len(insights), cfg.Planning.Samples)
	return nil
}
