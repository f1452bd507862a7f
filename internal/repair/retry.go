package repair

import (
	"context"

	"github.com/harrison/actuator/internal/dispatch"
	"github.com/harrison/actuator/internal/models"
)

// RetryCoordinator re-submits failed actions once after fixes have run.
type RetryCoordinator struct {
	runner Runner
}

// NewRetryCoordinator creates a coordinator that retries through runner.
func NewRetryCoordinator(runner Runner) *RetryCoordinator {
	return &RetryCoordinator{runner: runner}
}

// Retry runs each failed action exactly once and returns one outcome per
// input, in order. Entries whose result is not failed get a nil outcome.
func (c *RetryCoordinator) Retry(ctx context.Context, failed []models.ActionResult) []*models.RetryOutcome {
	outcomes := make([]*models.RetryOutcome, len(failed))

	for i, ar := range failed {
		if !ar.Result.Failed() {
			continue
		}

		result, err := c.runner.Run(ctx, ar.Action)
		outcome := &models.RetryOutcome{Result: result}
		switch {
		case err != nil:
			outcome.Status = models.StatusRetryException
			outcome.Error = err.Error()
			outcome.TimedOut = dispatch.IsTimeoutError(err)
		case result.Succeeded():
			outcome.Status = models.StatusRetrySuccess
		default:
			outcome.Status = models.StatusRetryFailed
			if result != nil {
				outcome.Error = firstNonEmpty(result.Error, result.VerificationError, result.Status)
			}
		}
		outcomes[i] = outcome
	}
	return outcomes
}

// Merge folds retry outcomes back into the original results in place.
//
// A successful retry replaces the result with the retry's payload under
// status retry_success. Any other outcome keeps the original failed result
// and attaches the outcome as Retry.
func Merge(failed []models.ActionResult, outcomes []*models.RetryOutcome) {
	for i, ar := range failed {
		if i >= len(outcomes) || outcomes[i] == nil || ar.Result == nil {
			continue
		}
		outcome := outcomes[i]

		switch outcome.Status {
		case models.StatusRetrySuccess:
			merged := *outcome.Result
			merged.Status = models.StatusRetrySuccess
			merged.Verified = true
			merged.Retry = &models.RetryOutcome{Status: models.StatusRetrySuccess}
			*ar.Result = merged
		default:
			ar.Result.Retry = outcome
		}
	}
}

// RetryAndMerge runs Retry and merges its outcomes into failed.
func (c *RetryCoordinator) RetryAndMerge(ctx context.Context, failed []models.ActionResult) {
	Merge(failed, c.Retry(ctx, failed))
}
