package executors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/actuator/internal/filelock"
	"github.com/harrison/actuator/internal/models"
	"github.com/harrison/actuator/internal/verify"
)

// ReportsDir is the workspace subdirectory holding markdown reports.
const ReportsDir = "reports"

// ReportHeadings are the sections every report must contain.
var ReportHeadings = []string{"Summary", "Targets", "Status"}

// ReportExecutor writes a markdown report for an action, once.
type ReportExecutor struct {
	Workspace string
	Name      string // file name under ReportsDir
	Now       func() time.Time
}

// Path returns the report location.
func (e *ReportExecutor) Path() string {
	return filepath.Join(e.Workspace, ReportsDir, e.Name)
}

// Execute implements dispatch.Executor.
func (e *ReportExecutor) Execute(ctx context.Context, action models.Action) (models.Outcome, error) {
	path := e.Path()

	if _, err := os.Stat(path); err == nil {
		return models.Outcome{
			Status:  models.StatusAlreadyExists,
			Message: fmt.Sprintf("report %s already written", e.Name),
			Details: map[string]any{"file": path},
		}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return models.Outcome{}, fmt.Errorf("stat %s: %w", path, err)
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Summary\n\n%s\n\n", orDefault(action.Description, action.ActionName))
	fmt.Fprintf(&b, "## Targets\n\n- %s\n\n", orDefault(action.TargetSystem, "unspecified"))
	fmt.Fprintf(&b, "## Status\n\n- action: `%s`\n- priority: %s\n- applied: %s\n",
		action, orDefault(action.Priority, models.PriorityMedium), now().Format(time.RFC3339))

	if err := filelock.LockAndWrite(path, []byte(b.String())); err != nil {
		return models.Outcome{}, fmt.Errorf("write %s: %w", path, err)
	}

	return models.Outcome{
		Status:  models.StatusImplemented,
		Message: fmt.Sprintf("wrote report %s", e.Name),
		Details: map[string]any{"file": path},
	}, nil
}

// Verify implements verify.Check: the report needs every section and the
// line naming action.
func (e *ReportExecutor) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	return verify.All{
		verify.MarkdownHeadings{Path: e.Path(), Headings: ReportHeadings},
		verify.FileContains{Path: e.Path(), Markers: []string{"- action: `" + action.String() + "`"}},
	}.Verify(ctx, action, result)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
