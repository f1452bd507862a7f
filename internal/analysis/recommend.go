package analysis

import "github.com/harrison/actuator/internal/models"

type fixTemplate struct {
	kind        models.Kind
	description string
}

var patternFixes = map[models.PatternKind]fixTemplate{
	models.PatternTimeout:         {models.KindIncreaseTimeoutLimits, "Increase timeout limits for network operations"},
	models.PatternPermission:      {models.KindFixFilePermissions, "Fix file and directory permissions"},
	models.PatternMissingResource: {models.KindCreateMissingResources, "Create missing files and directories"},
	models.PatternCodeSyntax:      {models.KindRepairCodeSyntax, "Repair syntax errors in generated code"},
	models.PatternDependency:      {models.KindInstallMissingDependencies, "Install missing dependencies"},
	models.PatternUnknown:         {models.KindOptimizeSystemHealth, "Run a general system health pass"},
}

var issueFixes = map[models.RootCauseKind]fixTemplate{
	models.CauseMissingTradingOptimization: {models.KindImplementTradingOptimizations, "Implement missing trading system optimization methods"},
	models.CauseMissingProfitTracking:      {models.KindImplementTradingOptimizations, "Implement missing trading system optimization methods"},
	models.CauseMissingErrorHandling:       {models.KindImplementTradingOptimizations, "Implement missing trading system optimization methods"},
	models.CauseIncompleteTradingConnector: {models.KindImplementTradingOptimizations, "Implement missing trading system optimization methods"},
	models.CauseMissingWebsiteMethods:      {models.KindImplementWebsiteOptimizations, "Implement missing website optimization methods"},
	models.CauseMissingSystemMethods:       {models.KindImplementSystemOptimizations, "Implement missing system optimization methods"},
	models.CauseUnknown:                    {models.KindOptimizeSystemHealth, "Run a general system health pass"},
}

// RecommendFixes emits one fix per common pattern followed by one fix per
// systemic issue. Duplicates are kept: two entries naming the same fix are
// both dispatched.
func RecommendFixes(patterns []models.CommonPattern, issues []models.SystemicIssue) []models.FixRecommendation {
	recs := make([]models.FixRecommendation, 0, len(patterns)+len(issues))

	for _, p := range patterns {
		tmpl, ok := patternFixes[p.Pattern]
		if !ok {
			continue
		}
		recs = append(recs, tmpl.recommendation(p.Priority))
	}
	for _, issue := range issues {
		tmpl, ok := issueFixes[issue.Issue]
		if !ok {
			continue
		}
		recs = append(recs, tmpl.recommendation(issue.Priority))
	}
	return recs
}

func (t fixTemplate) recommendation(priority string) models.FixRecommendation {
	return models.FixRecommendation{
		Type:        t.kind.Type().String(),
		Action:      t.kind.Name(),
		Priority:    priority,
		Description: t.description,
	}
}
