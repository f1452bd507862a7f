package executors

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/actuator/internal/dispatch"
	"github.com/harrison/actuator/internal/models"
	"github.com/harrison/actuator/internal/verify"
)

func opportunityAction() models.Action {
	return models.NewAction(models.KindAddOpportunityDetection, "unified_trading_system.py", "Add real-time opportunity detection to trading system", models.PriorityHigh)
}

func TestMarkerExecutorFirstWriteThenAlreadyExists(t *testing.T) {
	ws := t.TempDir()
	target := filepath.Join(ws, "unified_trading_system.py")
	require.NoError(t, os.WriteFile(target, []byte("class TradingSystem:\n    pass"), 0644))

	e := &MarkerExecutor{Workspace: ws}
	ctx := context.Background()
	action := opportunityAction()

	out, err := e.Execute(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, models.StatusImplemented, out.Status)
	assert.Contains(t, out.Details["diff"], "+# >>> actuator:add_opportunity_detection")
	require.NoError(t, e.Verify(ctx, action, nil))

	afterFirst, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(afterFirst), "class TradingSystem:\n    pass\n# >>> actuator:add_opportunity_detection\n"))

	out, err = e.Execute(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAlreadyExists, out.Status)

	afterSecond, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, string(afterFirst), string(afterSecond), "second run must not mutate the file")
}

func TestMarkerExecutorMissingTarget(t *testing.T) {
	e := &MarkerExecutor{Workspace: t.TempDir()}

	out, err := e.Execute(context.Background(), opportunityAction())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, out.Status)
	assert.True(t, strings.HasPrefix(out.Error, "target_not_found: "))
	assert.Error(t, e.Verify(context.Background(), opportunityAction(), nil))
}

func TestMarkerExecutorConcurrentRunsKeepBothBlocks(t *testing.T) {
	for i := 0; i < 25; i++ {
		ws := t.TempDir()
		target := filepath.Join(ws, "unified_trading_system.py")
		require.NoError(t, os.WriteFile(target, []byte("class TradingSystem:\n    pass\n"), 0644))

		actions := []models.Action{
			opportunityAction(),
			models.NewAction(models.KindAddProfitTracking, "unified_trading_system.py", "Add profit tracking", models.PriorityHigh),
		}

		var wg sync.WaitGroup
		wg.Add(len(actions))
		for _, action := range actions {
			go func(action models.Action) {
				defer wg.Done()
				e := &MarkerExecutor{Workspace: ws}
				out, err := e.Execute(context.Background(), action)
				if err != nil || out.Status != models.StatusImplemented {
					t.Errorf("Execute(%s) = %+v, %v", action, out, err)
				}
			}(action)
		}
		wg.Wait()

		for _, action := range actions {
			require.NoError(t, (&MarkerExecutor{Workspace: ws}).Verify(context.Background(), action, nil), "iteration %d lost %s", i, action)
		}
	}
}

func TestMarkerCommentStyle(t *testing.T) {
	action := models.NewAction(models.KindFixBrokenWebsiteLinks, "wealthyrobots_website", "", "")

	begin, end := Markers("site/index.html", action)
	assert.Equal(t, "<!-- >>> actuator:fix_broken_website_links -->", begin)
	assert.Equal(t, "<!-- <<< actuator:fix_broken_website_links -->", end)

	begin, _ = Markers("main.go", action)
	assert.Equal(t, "// >>> actuator:fix_broken_website_links", begin)

	begin, _ = Markers("system.py", action)
	assert.Equal(t, "# >>> actuator:fix_broken_website_links", begin)
}

func TestArtifactExecutor(t *testing.T) {
	ws := t.TempDir()
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	e := &ArtifactExecutor{Workspace: ws, Name: "business_optimization_changes.json", Settings: map[string]any{"k": "v"}, Now: func() time.Time { return fixed }}
	action := models.NewAction(models.KindOptimizeBusinessPerformance, "business_systems", "Optimize business processes and revenue generation", models.PriorityHigh)
	ctx := context.Background()

	require.Error(t, e.Verify(ctx, action, nil), "nothing written yet")

	out, err := e.Execute(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, models.StatusImplemented, out.Status)
	require.NoError(t, e.Verify(ctx, action, nil))

	data, err := os.ReadFile(e.Path())
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "optimize_business_performance", doc["action"])
	assert.Equal(t, "business_systems", doc["target_system"])
	assert.Equal(t, "2026-03-01T08:00:00Z", doc["applied_at"])

	out, err = e.Execute(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAlreadyExists, out.Status)
}

func TestReportExecutor(t *testing.T) {
	ws := t.TempDir()
	e := &ReportExecutor{Workspace: ws, Name: "system_health_report.md"}
	action := models.NewAction(models.KindOptimizeSystemHealth, "multiple_systems", "Optimize system health and performance", models.PriorityHigh)
	ctx := context.Background()

	out, err := e.Execute(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, models.StatusImplemented, out.Status)
	require.NoError(t, e.Verify(ctx, action, nil))

	data, err := os.ReadFile(e.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "- multiple_systems")
	assert.Contains(t, string(data), "system_optimization/optimize_system_health")

	out, err = e.Execute(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAlreadyExists, out.Status)

	// A report missing a section no longer verifies.
	require.NoError(t, os.WriteFile(e.Path(), []byte("# Summary\n"), 0644))
	assert.ErrorContains(t, e.Verify(ctx, action, nil), "Targets")

	// A report written for a different action does not verify this one.
	other := models.NewAction(models.KindOptimizeSystemHealth, "multiple_systems", "", "")
	other.ActionName = "optimize_agent_health"
	require.NoError(t, os.Remove(e.Path()))
	_, err = e.Execute(ctx, other)
	require.NoError(t, err)
	assert.Error(t, e.Verify(ctx, action, nil))
}

func TestResourceExecutor(t *testing.T) {
	ws := t.TempDir()
	e := &ResourceExecutor{Workspace: ws, Dirs: ManagedDirs, Files: ManagedFiles}
	action := models.NewAction(models.KindCreateMissingResources, "system_fixes", "", "")
	ctx := context.Background()

	require.Error(t, e.Verify(ctx, action, nil))

	out, err := e.Execute(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, out.Status)
	require.NoError(t, e.Verify(ctx, action, nil))

	info, err := os.Stat(filepath.Join(ws, "unified_trading_system.py"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	out, err = e.Execute(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAlreadyExists, out.Status)
}

func TestResourceExecutorKeepsExistingContent(t *testing.T) {
	ws := t.TempDir()
	target := filepath.Join(ws, "unified_trading_system.py")
	require.NoError(t, os.WriteFile(target, []byte("keep me"), 0644))

	e := &ResourceExecutor{Workspace: ws, Files: []string{"unified_trading_system.py"}}
	out, err := e.Execute(context.Background(), models.Action{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAlreadyExists, out.Status)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestPermissionsExecutor(t *testing.T) {
	ws := t.TempDir()
	target := filepath.Join(ws, "unified_trading_system.py")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	require.NoError(t, os.Chmod(target, 0400))

	e := &PermissionsExecutor{Workspace: ws, Files: []string{"unified_trading_system.py", "absent.py"}}
	ctx := context.Background()

	require.Error(t, e.Verify(ctx, models.Action{}, nil))

	out, err := e.Execute(ctx, models.Action{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, out.Status)
	require.NoError(t, e.Verify(ctx, models.Action{}, nil))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	out, err = e.Execute(ctx, models.Action{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAlreadyExists, out.Status)
}

func TestInstall(t *testing.T) {
	ws := t.TempDir()
	d := dispatch.New()
	g := verify.NewGate()
	require.NoError(t, Install(d, g, ws))

	defaults := Defaults(ws)
	for _, kind := range models.Kinds() {
		_, want := defaults[kind]
		assert.Equal(t, want, d.Registered(kind), "kind %s", kind)
	}

	// A kind bound before Install keeps its executor.
	custom := dispatch.New()
	require.NoError(t, custom.Register(models.KindAddOpportunityDetection, dispatch.ExecutorFunc(func(ctx context.Context, action models.Action) (models.Outcome, error) {
		return models.Outcome{Status: models.StatusCompleted, Message: "custom"}, nil
	})))
	require.NoError(t, Install(custom, verify.NewGate(), ws))
	res := custom.Dispatch(context.Background(), opportunityAction())
	assert.Equal(t, "custom", res.Message)

	// Unregistered kinds surface as unknown.
	result := d.Dispatch(context.Background(), models.NewAction(models.KindReplacePrintsWithLogging, "multiple_agents", "", ""))
	assert.Equal(t, "unknown_code_action", result.Status)
}
