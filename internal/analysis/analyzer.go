// Package analysis classifies failed actions and aggregates recurring
// failures into remediation targets.
package analysis

import (
	"sort"
	"strings"

	"github.com/harrison/actuator/internal/models"
)

// patternKeywords is checked in order; the first keyword found in the
// lowercased error text wins.
var patternKeywords = []struct {
	keyword string
	pattern models.PatternKind
}{
	{"timeout", models.PatternTimeout},
	{"permission", models.PatternPermission},
	{"not_found", models.PatternMissingResource},
	{"syntax", models.PatternCodeSyntax},
	{"import", models.PatternDependency},
}

// Analyze builds the failure analysis for one batch of failed actions.
// Entries whose result is not failed are ignored.
func Analyze(failed []models.ActionResult) *models.FailureAnalysis {
	analysis := &models.FailureAnalysis{
		FailurePatterns:  make([]models.FailurePattern, 0, len(failed)),
		RootCauses:       make([]models.RootCause, 0, len(failed)),
		CommonPatterns:   []models.CommonPattern{},
		SystemicIssues:   []models.SystemicIssue{},
		RecommendedFixes: []models.FixRecommendation{},
	}

	for _, ar := range failed {
		if !ar.Result.Failed() {
			continue
		}
		analysis.FailurePatterns = append(analysis.FailurePatterns, ClassifyPattern(ar.Action, ar.Result))
		analysis.RootCauses = append(analysis.RootCauses, IdentifyRootCause(ar.Action, ar.Result))
	}

	analysis.CommonPatterns = FindCommonPatterns(analysis.FailurePatterns)
	analysis.SystemicIssues = IdentifySystemicIssues(analysis.RootCauses)
	analysis.RecommendedFixes = RecommendFixes(analysis.CommonPatterns, analysis.SystemicIssues)
	return analysis
}

// ClassifyPattern buckets one failure by substring match on its error text.
func ClassifyPattern(action models.Action, result *models.ExecutionResult) models.FailurePattern {
	errText := errorText(result)
	lower := strings.ToLower(errText)

	pattern := models.PatternUnknown
	for _, pk := range patternKeywords {
		if strings.Contains(lower, pk.keyword) {
			pattern = pk.pattern
			break
		}
	}

	status := "unknown"
	if result != nil {
		status = result.Status
	}

	return models.FailurePattern{
		ActionType: action.Type,
		ActionName: action.ActionName,
		Pattern:    pattern,
		Error:      errText,
		Status:     status,
	}
}

// IdentifyRootCause attributes one failure to a cause based on the action's
// identity alone.
func IdentifyRootCause(action models.Action, result *models.ExecutionResult) models.RootCause {
	var cause models.RootCauseKind

	switch models.ParseActionType(action.Type) {
	case models.ActionTypeTrading:
		switch {
		case strings.Contains(action.ActionName, "opportunity_detection"):
			cause = models.CauseMissingTradingOptimization
		case strings.Contains(action.ActionName, "profit_tracking"):
			cause = models.CauseMissingProfitTracking
		case strings.Contains(action.ActionName, "error_handling"):
			cause = models.CauseMissingErrorHandling
		default:
			cause = models.CauseIncompleteTradingConnector
		}
	case models.ActionTypeWebsite:
		cause = models.CauseMissingWebsiteMethods
	case models.ActionTypeSystem:
		cause = models.CauseMissingSystemMethods
	default:
		cause = models.CauseUnknown
	}

	return models.RootCause{
		ActionType: action.Type,
		ActionName: action.ActionName,
		RootCause:  cause,
		Error:      errorText(result),
	}
}

// FindCommonPatterns returns the patterns seen more than once, most
// frequent first. Ties keep first-seen order.
func FindCommonPatterns(patterns []models.FailurePattern) []models.CommonPattern {
	keys := make([]string, 0, len(patterns))
	for _, p := range patterns {
		keys = append(keys, string(p.Pattern))
	}

	common := []models.CommonPattern{}
	for _, c := range recurring(keys) {
		common = append(common, models.CommonPattern{
			Pattern:   models.PatternKind(c.key),
			Frequency: c.count,
			Priority:  priorityFor(c.count),
		})
	}
	return common
}

// IdentifySystemicIssues returns the root causes affecting more than one
// action, most frequent first. Ties keep first-seen order.
func IdentifySystemicIssues(causes []models.RootCause) []models.SystemicIssue {
	keys := make([]string, 0, len(causes))
	for _, c := range causes {
		keys = append(keys, string(c.RootCause))
	}

	issues := []models.SystemicIssue{}
	for _, c := range recurring(keys) {
		issues = append(issues, models.SystemicIssue{
			Issue:           models.RootCauseKind(c.key),
			AffectedActions: c.count,
			Priority:        priorityFor(c.count),
		})
	}
	return issues
}

type keyCount struct {
	key   string
	count int
}

// recurring counts keys and keeps those seen more than once.
func recurring(keys []string) []keyCount {
	index := make(map[string]int)
	var counts []keyCount
	for _, k := range keys {
		if i, ok := index[k]; ok {
			counts[i].count++
			continue
		}
		index[k] = len(counts)
		counts = append(counts, keyCount{key: k, count: 1})
	}

	out := make([]keyCount, 0, len(counts))
	for _, c := range counts {
		if c.count > 1 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].count > out[j].count
	})
	return out
}

func priorityFor(frequency int) string {
	if frequency >= 3 {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}

func errorText(result *models.ExecutionResult) string {
	switch {
	case result == nil:
		return "unknown"
	case result.Error != "":
		return result.Error
	case result.VerificationError != "":
		return result.VerificationError
	default:
		return "unknown"
	}
}
