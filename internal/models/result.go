package models

import (
	"strings"
	"time"
)

// Execution status constants
const (
	StatusCompleted     = "completed"      // Executor applied the mutation
	StatusImplemented   = "implemented"    // Executor claims the mutation, pending verification
	StatusAlreadyExists = "already_exists" // Executor found the mutation already applied
	StatusFailed        = "failed"         // Execution or verification failed

	StatusRetrySuccess   = "retry_success"
	StatusRetryFailed    = "retry_failed"
	StatusRetryException = "retry_exception"

	StatusUnknownActionType = "unknown_action_type"
)

// Record status constants
const (
	RecordCompleted = "completed"
	RecordFailed    = "failed"
)

// IsUnknownStatus reports whether status marks an action no executor handles.
func IsUnknownStatus(status string) bool {
	return strings.HasPrefix(status, "unknown_")
}

// Outcome is what an executor reports for a single action.
type Outcome struct {
	Status  string         // completed, implemented, already_exists or failed
	Message string         // Human-readable summary
	Error   string         // Error text when Status is failed
	Details map[string]any // Executor-specific fields
}

// ExecutionResult is the normalized result of dispatching one action.
// The verification gate may downgrade it; the retry merge may upgrade it to
// retry_success.
type ExecutionResult struct {
	Action            string         `json:"action"`
	Status            string         `json:"status"`
	Verified          bool           `json:"verified"`
	Message           string         `json:"message,omitempty"`
	Error             string         `json:"error,omitempty"`
	VerificationError string         `json:"verification_error,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
	Duration          time.Duration  `json:"duration_ns,omitempty"`
	Retry             *RetryOutcome  `json:"retry_result,omitempty"`
}

// Succeeded reports whether the result is a verified success.
func (r *ExecutionResult) Succeeded() bool {
	if r == nil || !r.Verified {
		return false
	}
	switch r.Status {
	case StatusCompleted, StatusAlreadyExists, StatusRetrySuccess:
		return true
	default:
		return false
	}
}

// Failed reports whether the result should enter failure analysis and retry.
func (r *ExecutionResult) Failed() bool {
	return r != nil && r.Status == StatusFailed
}

// RetryOutcome is the result of re-dispatching an originally failed action.
type RetryOutcome struct {
	Status string           `json:"status"` // retry_success, retry_failed or retry_exception
	Result *ExecutionResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`

	// TimedOut marks an exception caused by the action timeout.
	TimedOut bool `json:"timed_out,omitempty"`
}

// ActionResult pairs an action with its (mutable) result.
type ActionResult struct {
	Action Action
	Result *ExecutionResult
}
