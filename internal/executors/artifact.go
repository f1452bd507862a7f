package executors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/actuator/internal/filelock"
	"github.com/harrison/actuator/internal/models"
	"github.com/harrison/actuator/internal/verify"
)

// ArtifactsDir is the workspace subdirectory holding JSON artifacts.
const ArtifactsDir = "artifacts"

// artifact is the JSON document written by ArtifactExecutor.
type artifact struct {
	Action       string         `json:"action"`
	Type         string         `json:"type"`
	TargetSystem string         `json:"target_system"`
	Description  string         `json:"description"`
	Priority     string         `json:"priority"`
	AppliedAt    time.Time      `json:"applied_at"`
	Settings     map[string]any `json:"settings,omitempty"`
}

// ArtifactExecutor records an action as a JSON change document, written
// once per action.
type ArtifactExecutor struct {
	Workspace string
	Name      string         // file name under ArtifactsDir
	Settings  map[string]any // copied into the artifact
	Now       func() time.Time
}

// Path returns the artifact location.
func (e *ArtifactExecutor) Path() string {
	return filepath.Join(e.Workspace, ArtifactsDir, e.Name)
}

// Execute implements dispatch.Executor.
func (e *ArtifactExecutor) Execute(ctx context.Context, action models.Action) (models.Outcome, error) {
	path := e.Path()

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		var doc artifact
		if json.Unmarshal(existing, &doc) == nil && doc.Action == action.ActionName {
			return models.Outcome{
				Status:  models.StatusAlreadyExists,
				Message: fmt.Sprintf("artifact %s already recorded", e.Name),
				Details: map[string]any{"file": path},
			}, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return models.Outcome{}, fmt.Errorf("read %s: %w", path, err)
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	doc := artifact{
		Action:       action.ActionName,
		Type:         action.Type,
		TargetSystem: action.TargetSystem,
		Description:  action.Description,
		Priority:     action.Priority,
		AppliedAt:    now(),
		Settings:     e.Settings,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return models.Outcome{}, fmt.Errorf("marshal artifact: %w", err)
	}
	if err := filelock.LockAndWrite(path, append(data, '\n')); err != nil {
		return models.Outcome{}, fmt.Errorf("write %s: %w", path, err)
	}

	return models.Outcome{
		Status:  models.StatusImplemented,
		Message: fmt.Sprintf("recorded %s", e.Name),
		Details: map[string]any{"file": path},
	}, nil
}

// Verify implements verify.Check.
func (e *ArtifactExecutor) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	return verify.JSONKeys{Path: e.Path(), Keys: []string{"action", "applied_at"}}.Verify(ctx, action, result)
}
