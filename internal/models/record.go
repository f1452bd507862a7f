package models

import "time"

// ExecutionRecord is the history entry for one top-level insight execution.
type ExecutionRecord struct {
	ID               string            `json:"id,omitempty"`
	InsightID        string            `json:"insight_id"`
	InsightSummary   string            `json:"insight_summary"`
	ActionPlan       []Action          `json:"action_plan"`
	ExecutionResults []ExecutionResult `json:"execution_results"`
	Timestamp        time.Time         `json:"timestamp"`
	Status           string            `json:"status"`
	Error            string            `json:"error,omitempty"`
}

// Completed reports whether the record counts as a successful execution.
func (r ExecutionRecord) Completed() bool {
	return r.Status == RecordCompleted
}

// FixResult is the outcome of dispatching one remedial action.
type FixResult struct {
	Fix    FixRecommendation `json:"fix"`
	Status string            `json:"status"` // success, failed or exception
	Result *ExecutionResult  `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`

	// TimedOut marks an exception caused by the action timeout.
	TimedOut bool `json:"timed_out,omitempty"`
}

// Fix result status constants
const (
	FixSuccess   = "success"
	FixFailed    = "failed"
	FixException = "exception"
)

// ExecutionOutcome is returned from a full pipeline run for one insight.
type ExecutionOutcome struct {
	ExecutionSuccessful bool             `json:"execution_successful"`
	ActionsExecuted     int              `json:"actions_executed"`
	SuccessfulActions   int              `json:"successful_actions"`
	FailedActions       int              `json:"failed_actions"`
	SuccessRate         float64          `json:"success_rate"`
	RealChangesMade     bool             `json:"real_changes_made"`
	Record              ExecutionRecord  `json:"execution_record"`
	Analysis            *FailureAnalysis `json:"failure_analysis,omitempty"`
	Fixes               []FixResult      `json:"fix_results,omitempty"`
}

// ExecutionSummary aggregates the whole execution history.
type ExecutionSummary struct {
	Total         int               `json:"total_executions"`
	Successful    int               `json:"successful_executions"`
	Failed        int               `json:"failed_executions"`
	LastExecution *ExecutionRecord  `json:"last_execution,omitempty"`
	History       []ExecutionRecord `json:"execution_history"`
}
