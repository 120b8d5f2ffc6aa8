package models

// Decision is the output contract. Field names are stable for downstream
// consumers (alerting, narrative generation); do not rename lightly.
type Decision struct {
	Brand          string             `json:"brand"`
	Period         string             `json:"period"`
	State          string             `json:"state"`
	StateLabel     string             `json:"state_label"`
	RevenueCurrent float64            `json:"revenue_current"`
	RevenueYoYPct  *float64           `json:"revenue_yoy_pct"`
	Why            Why                `json:"why"`
	How            How                `json:"how"`
	WhatIf         WhatIf             `json:"what_if"`
	Confidence     DecisionConfidence `json:"confidence"`
	Guardrails     Guardrails         `json:"guardrails"`
}

// Brand states.
const (
	StateUp     = "up"
	StateDown   = "down"
	StateStable = "stable"
)

// Strategy labels.
const (
	StrategyRecovery   = "recovery"
	StrategyScaling    = "scaling"
	StrategyActivation = "activation"
)

type Why struct {
	Summary       string                       `json:"summary"`
	PrimaryDriver *DriverContribution          `json:"primary_driver"`
	Drivers       []DriverContribution         `json:"drivers"`
	Anomalies     []Anomaly                    `json:"anomalies"`
	Momentum      MomentumScore                `json:"momentum"`
	WeeklyTrends  map[string]WeeklyTrendSeries `json:"weekly_trends"`
}

type Action struct {
	ID                    string   `json:"id"`
	Category              string   `json:"category"`
	Priority              string   `json:"priority"`
	Action                string   `json:"action"`
	ExpectedImpact        string   `json:"expected_impact"`
	ExpectedImpactDollars *float64 `json:"expected_impact_dollars"`
	ImpactedMetric        string   `json:"impacted_metric"`
	DependencyOrder       int      `json:"dependency_order"`
	Evidence              []string `json:"evidence"`
}

type How struct {
	Strategy     string   `json:"strategy"`
	Actions      []Action `json:"actions"`
	Dependencies []string `json:"dependencies"`
}

type Scenario struct {
	Name          string   `json:"name"`
	ImpactLow     float64  `json:"impact_low"`
	ImpactMid     float64  `json:"impact_mid"`
	ImpactHigh    float64  `json:"impact_high"`
	Confidence    string   `json:"confidence"`
	Assumptions   []string `json:"assumptions"`
	TimeHorizon   string   `json:"time_horizon"`
	Blocked       bool     `json:"blocked"`
	BlockedReason string   `json:"blocked_reason,omitempty"`
}

type WhatIf struct {
	Scenarios              []Scenario `json:"scenarios"`
	TotalAddressableUpside float64    `json:"total_addressable_upside"`
}

type DecisionConfidence struct {
	Overall                  string          `json:"overall"`
	DataSources              map[string]bool `json:"data_sources"`
	DecompositionCoveragePct float64         `json:"decomposition_coverage_pct"`
}

type PricingViolations struct {
	BelowMinimum   int      `json:"below_minimum"`
	BelowCost      int      `json:"below_cost"`
	BlockedActions []string `json:"blocked_actions"`
}

type Guardrails struct {
	PricingViolations    PricingViolations `json:"pricing_violations"`
	LowConfidenceSignals []string          `json:"low_confidence_signals"`
}
