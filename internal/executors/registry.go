package executors

import (
	"context"
	"fmt"

	"github.com/harrison/actuator/internal/dispatch"
	"github.com/harrison/actuator/internal/models"
	"github.com/harrison/actuator/internal/verify"
)

// Executor is a dispatch executor that can also verify its own effect.
type Executor interface {
	Execute(ctx context.Context, action models.Action) (models.Outcome, error)
	Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error
}

// Managed workspace resources that create_missing_resources and
// fix_file_permissions maintain.
var (
	ManagedDirs  = []string{ArtifactsDir, ReportsDir, "wealthyrobots_website"}
	ManagedFiles = []string{"unified_trading_system.py", "wealthyrobots_website/index.html"}
)

// Defaults returns the built-in executor for every kind with a generic
// rendition. Kinds absent from the map stay unregistered and resolve to an
// unknown_* status at dispatch.
func Defaults(workspace string) map[models.Kind]Executor {
	marker := &MarkerExecutor{Workspace: workspace}
	artifactFor := func(name string, settings map[string]any) *ArtifactExecutor {
		return &ArtifactExecutor{Workspace: workspace, Name: name, Settings: settings}
	}
	reportFor := func(name string) *ReportExecutor {
		return &ReportExecutor{Workspace: workspace, Name: name}
	}

	return map[models.Kind]Executor{
		models.KindFixBrokenWebsiteLinks:      &MarkerExecutor{Workspace: workspace, File: "wealthyrobots_website/index.html"},
		models.KindOptimizeWebsitePerformance: artifactFor("website_performance_changes.json", map[string]any{"cache_max_age_seconds": 86400, "lazy_load_images": true}),

		models.KindAddLoggingToAgents: reportFor("agent_logging_plan.md"),

		models.KindAddTimeoutMechanisms: artifactFor("network_timeouts.json", map[string]any{"connect_timeout_seconds": 10, "read_timeout_seconds": 30}),
		models.KindAddRetryLogic:        artifactFor("retry_policy.json", map[string]any{"max_attempts": 3, "backoff": "exponential", "base_delay_ms": 200}),
		models.KindOptimizeSystemHealth: reportFor("system_health_report.md"),

		models.KindAddOpportunityDetection: marker,
		models.KindAddExecutionProtocols:   marker,
		models.KindAddProfitTracking:       marker,
		models.KindAddErrorHandling:        marker,

		models.KindOptimizeBusinessPerformance: artifactFor("business_optimization_changes.json", nil),
		models.KindOptimizeSystemPerformance:   artifactFor("system_performance_tuning.json", nil),
		models.KindGeneralTradingOptimization:  reportFor("general_optimization_report.md"),

		models.KindImplementTradingOptimizations: reportFor("trading_optimizations_fix.md"),
		models.KindImplementWebsiteOptimizations: reportFor("website_optimizations_fix.md"),
		models.KindImplementSystemOptimizations:  reportFor("system_optimizations_fix.md"),

		models.KindIncreaseTimeoutLimits:  artifactFor("timeout_limits.json", map[string]any{"timeout_multiplier": 2}),
		models.KindCreateMissingResources: &ResourceExecutor{Workspace: workspace, Dirs: ManagedDirs, Files: ManagedFiles},
		models.KindFixFilePermissions:     &PermissionsExecutor{Workspace: workspace, Dirs: ManagedDirs, Files: ManagedFiles},
	}
}

// Install registers every default executor with d and its check with g.
// Kinds already bound in d keep their executor and check.
func Install(d *dispatch.Dispatcher, g *verify.Gate, workspace string) error {
	defaults := Defaults(workspace)
	for _, kind := range models.Kinds() {
		exec, ok := defaults[kind]
		if !ok || d.Registered(kind) {
			continue
		}
		if err := d.Register(kind, exec); err != nil {
			return fmt.Errorf("register executor %s: %w", kind, err)
		}
		if err := g.Register(kind, exec); err != nil {
			return fmt.Errorf("register check %s: %w", kind, err)
		}
	}
	return nil
}
