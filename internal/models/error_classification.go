package models

// PatternKind is one of the failure buckets an error text is classified into.
type PatternKind string

// Failure pattern buckets
const (
	PatternTimeout         PatternKind = "timeout_failure"
	PatternPermission      PatternKind = "permission_failure"
	PatternMissingResource PatternKind = "missing_resource_failure"
	PatternCodeSyntax      PatternKind = "code_syntax_failure"
	PatternDependency      PatternKind = "dependency_failure"
	PatternUnknown         PatternKind = "unknown_failure"
)

// RootCauseKind is a failure cause derived from the action identity.
type RootCauseKind string

// Root causes
const (
	CauseMissingTradingOptimization RootCauseKind = "missing_trading_optimization_method"
	CauseMissingProfitTracking      RootCauseKind = "missing_profit_tracking_implementation"
	CauseMissingErrorHandling       RootCauseKind = "missing_error_handling_implementation"
	CauseIncompleteTradingConnector RootCauseKind = "incomplete_trading_system_connectors"
	CauseMissingWebsiteMethods      RootCauseKind = "missing_website_optimization_methods"
	CauseMissingSystemMethods       RootCauseKind = "missing_system_optimization_methods"
	CauseUnknown                    RootCauseKind = "unknown_root_cause"
)

// FailurePattern classifies one failed action. Recomputed per run.
type FailurePattern struct {
	ActionType string      `json:"action_type"`
	ActionName string      `json:"action_name"`
	Pattern    PatternKind `json:"pattern"`
	Error      string      `json:"error"`
	Status     string      `json:"status"`
}

// RootCause attributes one failed action to a cause.
type RootCause struct {
	ActionType string        `json:"action_type"`
	ActionName string        `json:"action_name"`
	RootCause  RootCauseKind `json:"root_cause"`
	Error      string        `json:"error"`
}

// CommonPattern is a failure pattern seen on more than one action.
type CommonPattern struct {
	Pattern   PatternKind `json:"pattern"`
	Frequency int         `json:"frequency"`
	Priority  string      `json:"priority"`
}

// SystemicIssue is a root cause recurring across more than one action.
type SystemicIssue struct {
	Issue           RootCauseKind `json:"issue"`
	AffectedActions int           `json:"affected_actions"`
	Priority        string        `json:"priority"`
}

// FixRecommendation is a remedial action synthesized from a common pattern
// or a systemic issue.
type FixRecommendation struct {
	Type        string `json:"type"`
	Action      string `json:"action"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

// FailureAnalysis is the aggregated view over one batch of failures.
type FailureAnalysis struct {
	FailurePatterns  []FailurePattern    `json:"failure_patterns"`
	RootCauses       []RootCause         `json:"root_causes"`
	CommonPatterns   []CommonPattern     `json:"common_patterns"`
	SystemicIssues   []SystemicIssue     `json:"systemic_issues"`
	RecommendedFixes []FixRecommendation `json:"recommended_fixes"`
}
