// Package verify re-checks dispatched actions against their external side
// effects. The gate can only downgrade a result; it never turns a failure
// into a success.
package verify

import (
	"context"
	"fmt"
	"sync"

	"github.com/harrison/actuator/internal/models"
)

// Check inspects external state for evidence that action took effect.
// A nil error means the evidence was found.
type Check interface {
	Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc func(ctx context.Context, action models.Action, result *models.ExecutionResult) error

// Verify calls f(ctx, action, result).
func (f CheckFunc) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	return f(ctx, action, result)
}

// StatusCheck is the fallback used when no check is registered for a kind.
// It accepts the executor's own completed or implemented claim.
var StatusCheck = CheckFunc(func(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	switch result.Status {
	case models.StatusCompleted, models.StatusImplemented:
		return nil
	default:
		return fmt.Errorf("status %q is not accepted without a registered check", result.Status)
	}
})

// Gate holds the per-kind verification checks.
type Gate struct {
	mu       sync.RWMutex
	checks   map[models.Kind]Check
	fallback Check
}

// NewGate creates a gate whose unregistered kinds fall back to StatusCheck.
func NewGate() *Gate {
	return &Gate{
		checks:   make(map[models.Kind]Check),
		fallback: StatusCheck,
	}
}

// Register binds a check to a kind, replacing any previous binding.
func (g *Gate) Register(kind models.Kind, check Check) error {
	if kind == models.KindUnknown {
		return fmt.Errorf("cannot register check for unknown kind")
	}
	if check == nil {
		return fmt.Errorf("check for %s cannot be nil", kind)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks[kind] = check
	return nil
}

// Verify runs the check for action and reports whether it passed.
// The error carries the reason for a failed check.
func (g *Gate) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) (bool, error) {
	if result == nil {
		return false, fmt.Errorf("no result to verify")
	}

	g.mu.RLock()
	check, ok := g.checks[action.Kind()]
	g.mu.RUnlock()
	if !ok {
		check = g.fallback
	}

	if err := check.Verify(ctx, action, result); err != nil {
		return false, err
	}
	return true, nil
}

// Apply verifies result in place and returns it.
//
// Results already failed or of an unknown kind are left untouched. A passed
// check sets Verified and normalizes implemented to completed. A failed
// check downgrades any success claim to failed and records the reason in
// VerificationError.
func (g *Gate) Apply(ctx context.Context, action models.Action, result *models.ExecutionResult) *models.ExecutionResult {
	if result == nil {
		return nil
	}

	switch {
	case result.Status == models.StatusFailed:
		result.Verified = false
		return result
	case models.IsUnknownStatus(result.Status):
		result.Verified = false
		return result
	}

	ok, err := g.Verify(ctx, action, result)
	if ok {
		result.Verified = true
		if result.Status == models.StatusImplemented {
			result.Status = models.StatusCompleted
		}
		return result
	}

	result.Verified = false
	result.Status = models.StatusFailed
	if err != nil {
		result.VerificationError = err.Error()
	} else {
		result.VerificationError = "verification failed"
	}
	return result
}
