// Package repair turns a failure analysis into remedial actions and gives
// every originally failed action exactly one more attempt.
package repair

import (
	"context"

	"github.com/harrison/actuator/internal/models"
)

// Runner dispatches and verifies one action. The returned result is never
// nil; the error reports an executor fault and is informational only.
type Runner interface {
	Run(ctx context.Context, action models.Action) (*models.ExecutionResult, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, action models.Action) (*models.ExecutionResult, error)

// Run calls f(ctx, action).
func (f RunnerFunc) Run(ctx context.Context, action models.Action) (*models.ExecutionResult, error) {
	return f(ctx, action)
}
