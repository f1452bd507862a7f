package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ExecutorError is returned by Try when an executor fails by returning an
// error or by panicking. It never escapes Dispatch.
type ExecutorError struct {
	Action    string    // "type/action" of the failing action
	Message   string    // Human-readable error message
	Err       error     // Underlying error (optional)
	Panicked  bool      // Executor panicked instead of returning
	Timestamp time.Time // When the error occurred
}

// NewExecutorError creates an ExecutorError with the current timestamp.
func NewExecutorError(action, msg string, err error) *ExecutorError {
	return &ExecutorError{
		Action:    action,
		Message:   msg,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for ExecutorError.
func (e *ExecutorError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("action %s: %s", e.Action, e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Reason returns the executor's own failure text without the action
// prefix: the wrapped error when there is one, otherwise the message.
func (e *ExecutorError) Reason() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ExecutorError) Unwrap() error {
	return e.Err
}

// TimeoutError reports an action that exceeded the configured action timeout.
type TimeoutError struct {
	Action          string
	TimeoutDuration time.Duration
	Timestamp       time.Time
}

// NewTimeoutError creates a TimeoutError with the current timestamp.
func NewTimeoutError(action string, d time.Duration) *TimeoutError {
	return &TimeoutError{
		Action:          action,
		TimeoutDuration: d,
		Timestamp:       time.Now(),
	}
}

// Error implements the error interface for TimeoutError.
// The text always contains "timeout" so failure analysis can classify it.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("action %s: %s", e.Action, e.Reason())
}

// Reason returns the timeout text without the action prefix.
func (e *TimeoutError) Reason() string {
	return fmt.Sprintf("timeout after %v", e.TimeoutDuration)
}

// Unwrap returns context.DeadlineExceeded to support error wrapping.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// IsExecutorError checks if the error is or wraps an ExecutorError.
func IsExecutorError(err error) bool {
	if err == nil {
		return false
	}
	var ee *ExecutorError
	return errors.As(err, &ee)
}

// IsTimeoutError checks if the error is or wraps a TimeoutError or
// context.DeadlineExceeded.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// FaultText returns the text recorded on a failed result for an executor
// fault. It never includes the action identity, which would otherwise feed
// keywords from the action name into failure classification.
func FaultText(err error) string {
	var te *TimeoutError
	if errors.As(err, &te) {
		return te.Reason()
	}
	var ee *ExecutorError
	if errors.As(err, &ee) {
		return ee.Reason()
	}
	return err.Error()
}
