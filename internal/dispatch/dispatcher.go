// Package dispatch maps actions onto registered executors and normalizes
// every executor fault into a failed result, so one action can never abort
// the batch it belongs to.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harrison/actuator/internal/models"
)

// Executor applies one action to external state.
//
// Executors should be idempotent: when the mutation is already present they
// report models.StatusAlreadyExists instead of applying it again.
type Executor interface {
	Execute(ctx context.Context, action models.Action) (models.Outcome, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, action models.Action) (models.Outcome, error)

// Execute calls f(ctx, action).
func (f ExecutorFunc) Execute(ctx context.Context, action models.Action) (models.Outcome, error) {
	return f(ctx, action)
}

// Dispatcher routes actions to executors by kind.
type Dispatcher struct {
	mu        sync.RWMutex
	executors map[models.Kind]Executor
	timeout   time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithActionTimeout bounds each executor call. Zero means no bound.
// Executors that ignore their context are not interrupted.
func WithActionTimeout(d time.Duration) Option {
	return func(d2 *Dispatcher) {
		d2.timeout = d
	}
}

// New creates an empty Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		executors: make(map[models.Kind]Executor),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register binds an executor to a kind, replacing any previous binding.
func (d *Dispatcher) Register(kind models.Kind, exec Executor) error {
	if kind == models.KindUnknown {
		return fmt.Errorf("cannot register executor for unknown kind")
	}
	if exec == nil {
		return fmt.Errorf("executor for %s cannot be nil", kind)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.executors[kind] = exec
	return nil
}

// Registered reports whether an executor is bound to kind.
func (d *Dispatcher) Registered(kind models.Kind) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.executors[kind]
	return ok
}

// Try runs the executor for action.
//
// The returned result is always non-nil and already carries a definite
// status. The error is non-nil only when the executor itself faulted
// (*ExecutorError or *TimeoutError); the result then has status failed.
// Actions with no executor resolve to an unknown_* status and a nil error.
func (d *Dispatcher) Try(ctx context.Context, action models.Action) (*models.ExecutionResult, error) {
	kind := action.Kind()

	var exec Executor
	switch kind {
	case models.KindUnknown:
		return unknownResult(action), nil
	default:
		d.mu.RLock()
		exec = d.executors[kind]
		d.mu.RUnlock()
		if exec == nil {
			return unknownResult(action), nil
		}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := d.invoke(ctx, exec, action)
	duration := time.Since(start)

	if err != nil {
		return &models.ExecutionResult{
			Action:   action.ActionName,
			Status:   models.StatusFailed,
			Error:    FaultText(err),
			Duration: duration,
		}, err
	}

	result := &models.ExecutionResult{
		Action:   action.ActionName,
		Status:   outcome.Status,
		Message:  outcome.Message,
		Error:    outcome.Error,
		Details:  outcome.Details,
		Duration: duration,
	}
	if result.Status == "" {
		result.Status = models.StatusFailed
		if result.Error == "" {
			result.Error = "executor returned no status"
		}
	}
	if result.Status == models.StatusFailed && result.Error == "" {
		result.Error = "executor reported failure without error text"
	}
	return result, nil
}

// Dispatch runs the executor for action and folds any executor fault into
// the returned failed result.
func (d *Dispatcher) Dispatch(ctx context.Context, action models.Action) *models.ExecutionResult {
	result, _ := d.Try(ctx, action)
	return result
}

// invoke calls the executor, converting panics and errors to typed errors.
func (d *Dispatcher) invoke(ctx context.Context, exec Executor, action models.Action) (outcome models.Outcome, err error) {
	name := action.String()

	defer func() {
		if r := recover(); r != nil {
			ee := NewExecutorError(name, fmt.Sprintf("executor panicked: %v", r), nil)
			ee.Panicked = true
			outcome = models.Outcome{}
			err = ee
		}
	}()

	outcome, err = exec.Execute(ctx, action)
	if err == nil {
		return outcome, nil
	}

	if d.timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
		return models.Outcome{}, NewTimeoutError(name, d.timeout)
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return models.Outcome{}, te
	}
	var ee *ExecutorError
	if errors.As(err, &ee) {
		return models.Outcome{}, ee
	}
	return models.Outcome{}, NewExecutorError(name, "executor failed", err)
}

func unknownResult(action models.Action) *models.ExecutionResult {
	t := models.ParseActionType(action.Type)
	return &models.ExecutionResult{
		Action:  action.ActionName,
		Status:  t.UnknownStatus(),
		Message: fmt.Sprintf("no executor registered for %s", action),
	}
}
