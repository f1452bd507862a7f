package repair

import (
	"context"

	"github.com/harrison/actuator/internal/dispatch"
	"github.com/harrison/actuator/internal/models"
)

// FixTarget is the target system recorded on every remedial action.
const FixTarget = "system_fixes"

// FixPlanner converts recommendations into actions and runs each once.
type FixPlanner struct {
	runner Runner
}

// NewFixPlanner creates a planner that runs fixes through runner.
func NewFixPlanner(runner Runner) *FixPlanner {
	return &FixPlanner{runner: runner}
}

// Plan maps each recommendation onto an action, preserving order and
// duplicates.
func (p *FixPlanner) Plan(recs []models.FixRecommendation) []models.Action {
	actions := make([]models.Action, 0, len(recs))
	for _, rec := range recs {
		actions = append(actions, fixAction(rec))
	}
	return actions
}

// Apply runs every recommendation once, in order. A failing fix never stops
// the remaining ones.
func (p *FixPlanner) Apply(ctx context.Context, recs []models.FixRecommendation) []models.FixResult {
	results := make([]models.FixResult, 0, len(recs))

	for _, rec := range recs {
		result, err := p.runner.Run(ctx, fixAction(rec))

		fr := models.FixResult{Fix: rec, Result: result}
		switch {
		case err != nil:
			fr.Status = models.FixException
			fr.Error = err.Error()
			fr.TimedOut = dispatch.IsTimeoutError(err)
		case result.Succeeded():
			fr.Status = models.FixSuccess
		default:
			fr.Status = models.FixFailed
			if result != nil {
				fr.Error = firstNonEmpty(result.Error, result.VerificationError, result.Status)
			}
		}
		results = append(results, fr)
	}
	return results
}

func fixAction(rec models.FixRecommendation) models.Action {
	actionType := rec.Type
	if actionType == "" {
		actionType = models.ActionTypeGeneral.String()
	}
	priority := rec.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	return models.Action{
		Type:         actionType,
		ActionName:   rec.Action,
		TargetSystem: FixTarget,
		Description:  rec.Description,
		Priority:     priority,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
