// Package executors provides generic, idempotent executors for the built-in
// action kinds, each paired with the check that verifies its side effect.
package executors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/harrison/actuator/internal/filelock"
	"github.com/harrison/actuator/internal/models"
	"github.com/harrison/actuator/internal/verify"
)

// MarkerExecutor appends a fenced block to a target file the first time an
// action runs. The fence markers make the edit detectable, so later runs
// report already_exists without touching the file.
type MarkerExecutor struct {
	Workspace string
	// File overrides the action's target system as the file to edit,
	// relative to Workspace.
	File string
}

// Path returns the file edited for action.
func (e *MarkerExecutor) Path(action models.Action) string {
	name := e.File
	if name == "" {
		name = action.TargetSystem
	}
	return filepath.Join(e.Workspace, name)
}

// Markers returns the opening and closing fence lines for action in path.
func Markers(path string, action models.Action) (begin, end string) {
	begin = comment(path, ">>> actuator:"+action.ActionName)
	end = comment(path, "<<< actuator:"+action.ActionName)
	return begin, end
}

func comment(path, text string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xml", ".md":
		return "<!-- " + text + " -->"
	case ".go", ".js", ".ts", ".java", ".c", ".rs":
		return "// " + text
	default:
		return "# " + text
	}
}

// Execute implements dispatch.Executor. The marker check and the write
// happen under the target's lock, so concurrent runs editing one file never
// drop each other's blocks.
func (e *MarkerExecutor) Execute(ctx context.Context, action models.Action) (models.Outcome, error) {
	path := e.Path(action)
	missing := models.Outcome{
		Status: models.StatusFailed,
		Error:  "target_not_found: " + path,
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return missing, nil
	}

	begin, end := Markers(path, action)
	var original []byte
	var updated string
	present := false

	err := filelock.LockAndUpdate(path, func(old []byte) ([]byte, bool, error) {
		original = old
		if strings.Contains(string(old), begin) {
			present = true
			return nil, false, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		updated = appendBlock(path, old, action, begin, end)
		return []byte(updated), true, nil
	})
	switch {
	case errors.Is(err, os.ErrNotExist):
		return missing, nil
	case err != nil:
		return models.Outcome{}, fmt.Errorf("update %s: %w", path, err)
	case present:
		return models.Outcome{
			Status:  models.StatusAlreadyExists,
			Message: fmt.Sprintf("%s already present in %s", action.ActionName, path),
			Details: map[string]any{"file": path},
		}, nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(updated),
		FromFile: filepath.Base(path),
		ToFile:   filepath.Base(path),
		Context:  3,
	})
	if err != nil {
		diff = ""
	}

	return models.Outcome{
		Status:  models.StatusImplemented,
		Message: fmt.Sprintf("inserted %s into %s", action.ActionName, path),
		Details: map[string]any{"file": path, "diff": diff},
	}, nil
}

func appendBlock(path string, original []byte, action models.Action, begin, end string) string {
	var b strings.Builder
	b.Write(original)
	if len(original) > 0 && !strings.HasSuffix(string(original), "\n") {
		b.WriteString("\n")
	}
	b.WriteString(begin + "\n")
	if action.Description != "" {
		b.WriteString(comment(path, action.Description) + "\n")
	}
	if action.Priority != "" {
		b.WriteString(comment(path, "priority: "+action.Priority) + "\n")
	}
	b.WriteString(end + "\n")
	return b.String()
}

// Verify implements verify.Check: both fence markers must be in the file.
func (e *MarkerExecutor) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	path := e.Path(action)
	begin, end := Markers(path, action)
	return verify.FileContains{Path: path, Markers: []string{begin, end}}.Verify(ctx, action, result)
}
