// Package planner turns insights into action plans and drops insights that
// already succeeded recently.
package planner

import (
	"strings"

	"github.com/harrison/actuator/internal/models"
)

// Classifier produces one candidate plan for a single insight. Classifiers
// may be non-deterministic; Synthesizer votes across repeated samples.
type Classifier interface {
	Classify(insight models.Insight) []models.Action
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(insight models.Insight) []models.Action

// Classify calls f(insight).
func (f ClassifierFunc) Classify(insight models.Insight) []models.Action {
	return f(insight)
}

// ActionTemplate is one action a rule can emit.
type ActionTemplate struct {
	Kind        models.Kind
	Target      string
	Description string
	Priority    string
}

// Rule maps an insight domain onto candidate actions.
//
// A rule matches when the insight type equals Type, or when both summary and
// implication mention Keyword. A matching rule emits the templates whose
// action name appears in the insight's action field: only the first such
// template when Exclusive, every one otherwise.
type Rule struct {
	Type      models.ActionType
	Keyword   string
	Exclusive bool
	Actions   []ActionTemplate
}

func (r Rule) matches(insightType, summary, implication string) bool {
	if insightType == r.Type.String() {
		return true
	}
	return strings.Contains(summary, r.Keyword) && strings.Contains(implication, r.Keyword)
}

func (r Rule) emit(requested string) []models.Action {
	var actions []models.Action
	for _, tmpl := range r.Actions {
		if !strings.Contains(requested, tmpl.Kind.Name()) {
			continue
		}
		actions = append(actions, models.NewAction(tmpl.Kind, tmpl.Target, tmpl.Description, tmpl.Priority))
		if r.Exclusive {
			break
		}
	}
	return actions
}

// Fallback is emitted when no rule produces an action.
var Fallback = ActionTemplate{
	Kind:        models.KindGeneralTradingOptimization,
	Target:      "unified_trading_system.py",
	Description: "General system optimization based on insights",
	Priority:    models.PriorityMedium,
}

// DefaultRules is the built-in domain table, checked in order.
var DefaultRules = []Rule{
	{
		Type: models.ActionTypeWebsite, Keyword: "website", Exclusive: true,
		Actions: []ActionTemplate{
			{models.KindFixBrokenWebsiteLinks, "wealthyrobots_website", "Fix broken website links identified in testing", models.PriorityHigh},
			{models.KindOptimizeWebsitePerformance, "wealthyrobots_website", "Optimize website performance and SEO", models.PriorityMedium},
		},
	},
	{
		Type: models.ActionTypeAgent, Keyword: "agent", Exclusive: true,
		Actions: []ActionTemplate{
			{models.KindAddLoggingToAgents, "multiple_agents", "Add proper logging to agents identified in capability scorecard", models.PriorityMedium},
		},
	},
	{
		Type: models.ActionTypeSystem, Keyword: "system", Exclusive: true,
		Actions: []ActionTemplate{
			{models.KindAddTimeoutMechanisms, "multiple_systems", "Add timeout mechanisms for network operations", models.PriorityMedium},
			{models.KindAddRetryLogic, "multiple_systems", "Add retry logic with exponential backoff", models.PriorityMedium},
			{models.KindOptimizeSystemHealth, "multiple_systems", "Optimize system health and performance", models.PriorityHigh},
		},
	},
	{
		Type: models.ActionTypeCode, Keyword: "code", Exclusive: true,
		Actions: []ActionTemplate{
			{models.KindReplacePrintsWithLogging, "multiple_agents", "Replace excessive print statements with proper logging levels", models.PriorityLow},
		},
	},
	{
		Type: models.ActionTypeTrading, Keyword: "trading", Exclusive: false,
		Actions: []ActionTemplate{
			{models.KindAddOpportunityDetection, "unified_trading_system.py", "Add real-time opportunity detection to trading system", models.PriorityHigh},
			{models.KindAddExecutionProtocols, "unified_trading_system.py", "Add execution protocols for automated trading", models.PriorityHigh},
			{models.KindAddProfitTracking, "unified_trading_system.py", "Add profit tracking and performance analytics", models.PriorityHigh},
			{models.KindAddErrorHandling, "unified_trading_system.py", "Add comprehensive error handling and recovery", models.PriorityHigh},
		},
	},
	{
		Type: models.ActionTypeBusiness, Keyword: "business", Exclusive: true,
		Actions: []ActionTemplate{
			{models.KindOptimizeBusinessPerformance, "business_systems", "Optimize business processes and revenue generation", models.PriorityHigh},
		},
	},
	{
		Type: models.ActionTypePerformance, Keyword: "performance", Exclusive: true,
		Actions: []ActionTemplate{
			{models.KindOptimizeSystemPerformance, "system_infrastructure", "Optimize system performance and scalability", models.PriorityMedium},
		},
	},
}

// RuleClassifier classifies insights with an ordered rule table. Only the
// first matching rule is consulted.
type RuleClassifier struct {
	Rules    []Rule
	Fallback ActionTemplate
}

// NewRuleClassifier returns a classifier over DefaultRules.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{Rules: DefaultRules, Fallback: Fallback}
}

// Classify implements Classifier. It never returns an empty plan.
func (c *RuleClassifier) Classify(insight models.Insight) []models.Action {
	insightType := strings.ToLower(insight.Type)
	summary := strings.ToLower(insight.Summary)
	implication := strings.ToLower(insight.Implication)

	var actions []models.Action
	for _, rule := range c.Rules {
		if rule.matches(insightType, summary, implication) {
			actions = rule.emit(insight.Action)
			break
		}
	}

	if len(actions) == 0 {
		fb := c.Fallback
		actions = append(actions, models.NewAction(fb.Kind, fb.Target, fb.Description, fb.Priority))
	}
	return actions
}
