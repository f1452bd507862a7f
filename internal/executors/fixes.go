package executors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/actuator/internal/filelock"
	"github.com/harrison/actuator/internal/models"
	"github.com/harrison/actuator/internal/verify"
)

// ResourceExecutor creates the managed directories and files that are
// missing. Files are created empty; existing ones are never touched.
type ResourceExecutor struct {
	Workspace string
	Dirs      []string // relative to Workspace
	Files     []string // relative to Workspace
}

// Execute implements dispatch.Executor.
func (e *ResourceExecutor) Execute(ctx context.Context, action models.Action) (models.Outcome, error) {
	var created []string

	for _, dir := range e.Dirs {
		path := filepath.Join(e.Workspace, dir)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return models.Outcome{}, fmt.Errorf("create directory %s: %w", path, err)
		}
		created = append(created, path)
	}

	for _, file := range e.Files {
		path := filepath.Join(e.Workspace, file)
		_, err := os.Stat(path)
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return models.Outcome{}, fmt.Errorf("stat %s: %w", path, err)
		}
		if err := filelock.LockAndWrite(path, nil); err != nil {
			return models.Outcome{}, fmt.Errorf("create file %s: %w", path, err)
		}
		created = append(created, path)
	}

	if len(created) == 0 {
		return models.Outcome{
			Status:  models.StatusAlreadyExists,
			Message: "all managed resources present",
		}, nil
	}
	return models.Outcome{
		Status:  models.StatusCompleted,
		Message: fmt.Sprintf("created %d missing resources", len(created)),
		Details: map[string]any{"created": created},
	}, nil
}

// Verify implements verify.Check.
func (e *ResourceExecutor) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	return verify.FileExists{Paths: e.paths()}.Verify(ctx, action, result)
}

func (e *ResourceExecutor) paths() []string {
	paths := make([]string, 0, len(e.Dirs)+len(e.Files))
	for _, d := range e.Dirs {
		paths = append(paths, filepath.Join(e.Workspace, d))
	}
	for _, f := range e.Files {
		paths = append(paths, filepath.Join(e.Workspace, f))
	}
	return paths
}

// PermissionsExecutor restores owner read/write access on the managed
// paths that exist. Missing paths are skipped.
type PermissionsExecutor struct {
	Workspace string
	Dirs      []string
	Files     []string
}

const (
	dirMode  os.FileMode = 0755
	fileMode os.FileMode = 0644
)

// Execute implements dispatch.Executor.
func (e *PermissionsExecutor) Execute(ctx context.Context, action models.Action) (models.Outcome, error) {
	var changed []string

	fix := func(path string, want os.FileMode) error {
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Mode().Perm()&want == want {
			return nil
		}
		if err := os.Chmod(path, info.Mode().Perm()|want); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
		changed = append(changed, path)
		return nil
	}

	for _, d := range e.Dirs {
		if err := fix(filepath.Join(e.Workspace, d), dirMode); err != nil {
			return models.Outcome{}, err
		}
	}
	for _, f := range e.Files {
		if err := fix(filepath.Join(e.Workspace, f), fileMode); err != nil {
			return models.Outcome{}, err
		}
	}

	if len(changed) == 0 {
		return models.Outcome{
			Status:  models.StatusAlreadyExists,
			Message: "managed permissions already correct",
		}, nil
	}
	return models.Outcome{
		Status:  models.StatusCompleted,
		Message: fmt.Sprintf("fixed permissions on %d paths", len(changed)),
		Details: map[string]any{"changed": changed},
	}, nil
}

// Verify implements verify.Check: every existing managed path carries at
// least the managed mode bits.
func (e *PermissionsExecutor) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	check := func(path string, want os.FileMode) error {
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode().Perm()&want != want {
			return fmt.Errorf("%s has mode %v, want at least %v", path, info.Mode().Perm(), want)
		}
		return nil
	}

	for _, d := range e.Dirs {
		if err := check(filepath.Join(e.Workspace, d), dirMode); err != nil {
			return err
		}
	}
	for _, f := range e.Files {
		if err := check(filepath.Join(e.Workspace, f), fileMode); err != nil {
			return err
		}
	}
	return nil
}
