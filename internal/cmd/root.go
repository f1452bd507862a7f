package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for actuator
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actuator",
		Short: "Turn insights into verified, self-repairing actions",
		Long: `Actuator converts improvement insights into concrete actions and
executes them against a workspace.

Each insight is planned by majority vote over several samples, dispatched
to an executor, and verified against its real side effects. Failures are
analyzed, remediated and retried once. Every execution is recorded so that
insights completed within the cooldown window are not repeated.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	addConfigFlags(cmd)

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewPlanCommand())
	cmd.AddCommand(NewSummaryCommand())

	return cmd
}
