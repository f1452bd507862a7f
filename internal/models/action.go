package models

import "fmt"

// ActionType is the closed set of action domains an insight can map to.
type ActionType int

const (
	ActionTypeUnknown ActionType = iota
	ActionTypeWebsite
	ActionTypeAgent
	ActionTypeSystem
	ActionTypeCode
	ActionTypeTrading
	ActionTypeBusiness
	ActionTypePerformance
	ActionTypeGeneral
)

var actionTypeNames = map[ActionType]string{
	ActionTypeWebsite:     "website_optimization",
	ActionTypeAgent:       "agent_optimization",
	ActionTypeSystem:      "system_optimization",
	ActionTypeCode:        "code_optimization",
	ActionTypeTrading:     "trading_optimization",
	ActionTypeBusiness:    "business_optimization",
	ActionTypePerformance: "performance_optimization",
	ActionTypeGeneral:     "general_optimization",
}

// String returns the wire name of the action type.
func (t ActionType) String() string {
	if name, ok := actionTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseActionType maps a wire name onto the closed set.
// Unrecognized names yield ActionTypeUnknown.
func ParseActionType(name string) ActionType {
	for t, n := range actionTypeNames {
		if n == name {
			return t
		}
	}
	return ActionTypeUnknown
}

// UnknownStatus is the status recorded when no executor handles an action of
// this type.
func (t ActionType) UnknownStatus() string {
	switch t {
	case ActionTypeWebsite:
		return "unknown_website_action"
	case ActionTypeAgent:
		return "unknown_agent_action"
	case ActionTypeSystem:
		return "unknown_system_action"
	case ActionTypeCode:
		return "unknown_code_action"
	case ActionTypeTrading:
		return "unknown_trading_action"
	case ActionTypeBusiness:
		return "unknown_business_action"
	case ActionTypePerformance:
		return "unknown_performance_action"
	case ActionTypeGeneral:
		return "unknown_general_action"
	default:
		return StatusUnknownActionType
	}
}

// Kind identifies one dispatchable (type, action name) pair.
type Kind int

const (
	KindUnknown Kind = iota

	KindFixBrokenWebsiteLinks
	KindOptimizeWebsitePerformance

	KindAddLoggingToAgents

	KindAddTimeoutMechanisms
	KindAddRetryLogic
	KindOptimizeSystemHealth
	KindIncreaseTimeoutLimits
	KindFixFilePermissions
	KindCreateMissingResources
	KindInstallMissingDependencies

	KindReplacePrintsWithLogging
	KindImplementTradingOptimizations
	KindImplementWebsiteOptimizations
	KindImplementSystemOptimizations
	KindRepairCodeSyntax

	KindAddOpportunityDetection
	KindAddExecutionProtocols
	KindAddProfitTracking
	KindAddErrorHandling

	KindOptimizeBusinessPerformance
	KindOptimizeSystemPerformance
	KindGeneralTradingOptimization
)

type kindSpec struct {
	Type ActionType
	Name string
}

var kindSpecs = map[Kind]kindSpec{
	KindFixBrokenWebsiteLinks:      {ActionTypeWebsite, "fix_broken_website_links"},
	KindOptimizeWebsitePerformance: {ActionTypeWebsite, "optimize_website_performance"},

	KindAddLoggingToAgents: {ActionTypeAgent, "add_logging_to_agents"},

	KindAddTimeoutMechanisms:       {ActionTypeSystem, "add_timeout_mechanisms"},
	KindAddRetryLogic:              {ActionTypeSystem, "add_retry_logic"},
	KindOptimizeSystemHealth:       {ActionTypeSystem, "optimize_system_health"},
	KindIncreaseTimeoutLimits:      {ActionTypeSystem, "increase_timeout_limits"},
	KindFixFilePermissions:         {ActionTypeSystem, "fix_file_permissions"},
	KindCreateMissingResources:     {ActionTypeSystem, "create_missing_resources"},
	KindInstallMissingDependencies: {ActionTypeSystem, "install_missing_dependencies"},

	KindReplacePrintsWithLogging:      {ActionTypeCode, "replace_prints_with_logging"},
	KindImplementTradingOptimizations: {ActionTypeCode, "implement_trading_optimizations"},
	KindImplementWebsiteOptimizations: {ActionTypeCode, "implement_website_optimizations"},
	KindImplementSystemOptimizations:  {ActionTypeCode, "implement_system_optimizations"},
	KindRepairCodeSyntax:              {ActionTypeCode, "repair_code_syntax"},

	KindAddOpportunityDetection: {ActionTypeTrading, "add_opportunity_detection"},
	KindAddExecutionProtocols:   {ActionTypeTrading, "add_execution_protocols"},
	KindAddProfitTracking:       {ActionTypeTrading, "add_profit_tracking"},
	KindAddErrorHandling:        {ActionTypeTrading, "add_error_handling"},

	KindOptimizeBusinessPerformance: {ActionTypeBusiness, "optimize_business_performance"},
	KindOptimizeSystemPerformance:   {ActionTypePerformance, "optimize_system_performance"},
	KindGeneralTradingOptimization:  {ActionTypeGeneral, "general_trading_optimization"},
}

// ParseKind resolves a (type, action name) pair. Pairs outside the closed set
// resolve to KindUnknown.
func ParseKind(actionType, actionName string) Kind {
	t := ParseActionType(actionType)
	if t == ActionTypeUnknown {
		return KindUnknown
	}
	for k, spec := range kindSpecs {
		if spec.Type == t && spec.Name == actionName {
			return k
		}
	}
	return KindUnknown
}

// Type returns the action domain of the kind.
func (k Kind) Type() ActionType {
	if spec, ok := kindSpecs[k]; ok {
		return spec.Type
	}
	return ActionTypeUnknown
}

// Name returns the action name of the kind.
func (k Kind) Name() string {
	if spec, ok := kindSpecs[k]; ok {
		return spec.Name
	}
	return "unknown"
}

// String returns "type/name".
func (k Kind) String() string {
	return fmt.Sprintf("%s/%s", k.Type(), k.Name())
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindSpecs))
	for k := KindFixBrokenWebsiteLinks; k <= KindGeneralTradingOptimization; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Action is a concrete, dispatchable unit of mutation derived from one or
// more insights.
type Action struct {
	Type         string `json:"type" yaml:"type"`
	ActionName   string `json:"action" yaml:"action"`
	TargetSystem string `json:"target_system" yaml:"target_system"`
	Description  string `json:"description" yaml:"description"`
	Priority     string `json:"priority" yaml:"priority"`
}

// ActionKey is the identity used when voting on and merging actions.
type ActionKey struct {
	Type         string
	ActionName   string
	TargetSystem string
}

// Key returns the (type, action name, target system) identity.
func (a Action) Key() ActionKey {
	return ActionKey{Type: a.Type, ActionName: a.ActionName, TargetSystem: a.TargetSystem}
}

// Kind resolves the action into the closed kind set.
func (a Action) Kind() Kind {
	return ParseKind(a.Type, a.ActionName)
}

// String returns "type/action".
func (a Action) String() string {
	return fmt.Sprintf("%s/%s", a.Type, a.ActionName)
}

// NewAction builds an action for a known kind.
func NewAction(k Kind, target, description, priority string) Action {
	return Action{
		Type:         k.Type().String(),
		ActionName:   k.Name(),
		TargetSystem: target,
		Description:  description,
		Priority:     priority,
	}
}
