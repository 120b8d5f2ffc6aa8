package decision

import (
	"fmt"
	"math"
	"sort"

	"BrandPulse/internal/domain/models"
	"BrandPulse/internal/domain/repository"
	"BrandPulse/pkg/config"
)

// Engine turns a finished diagnosis into the WHY/HOW/WHAT-IF/guardrails
// contract. It is pure: one diagnosis in, one decision out.
type Engine struct {
	cfg config.Engine
}

func NewEngine(cfg config.Engine) *Engine {
	return &Engine{cfg: cfg}
}

// stateBoundaryPct is the YoY band treated as stable.
const stateBoundaryPct = 10.0

func (e *Engine) Decide(diag *models.Diagnosis) *models.Decision {
	yoy := diag.Decomposition.RevenueDeltaPct
	state, stateLabel := brandState(yoy)

	whyDrivers := append([]models.DriverContribution{}, diag.Decomposition.Drivers...)
	if margin := marginDriver(diag); margin != nil {
		// supplementary: informs the narrative but stays out of the additive sum
		whyDrivers = append(whyDrivers, *margin)
	}

	primary := primaryDriver(diag.Decomposition.Drivers)

	roasDeclining := adsTrendDeclining(diag.WeeklyTrends)
	actions, dependencies := buildActions(diag, state, roasDeclining)

	d := &models.Decision{
		Brand:          diag.Brand,
		Period:         diag.Period,
		State:          state,
		StateLabel:     stateLabel,
		RevenueCurrent: diag.Current.Revenue,
		RevenueYoYPct:  yoy,
		Why: models.Why{
			Summary:       buildSummary(diag, state),
			PrimaryDriver: primary,
			Drivers:       whyDrivers,
			Anomalies:     diag.Anomalies,
			Momentum:      diag.Momentum,
			WeeklyTrends:  diag.WeeklyTrends,
		},
		How: models.How{
			Strategy:     strategyFor(state),
			Actions:      actions,
			Dependencies: dependencies,
		},
		WhatIf:     buildWhatIf(diag, roasDeclining),
		Confidence: buildConfidence(diag),
		Guardrails: buildGuardrails(diag),
	}
	return d
}

func brandState(yoy *float64) (string, string) {
	if yoy == nil {
		return models.StateStable, "No prior-year baseline"
	}
	switch {
	case *yoy < -stateBoundaryPct:
		return models.StateDown, fmt.Sprintf("Declining %.0f%% YoY", math.Abs(*yoy))
	case *yoy > stateBoundaryPct:
		return models.StateUp, fmt.Sprintf("Growing %.0f%% YoY", *yoy)
	default:
		return models.StateStable, fmt.Sprintf("Stable %+.0f%% YoY", *yoy)
	}
}

func strategyFor(state string) string {
	switch state {
	case models.StateDown:
		return models.StrategyRecovery
	case models.StateUp:
		return models.StrategyScaling
	default:
		return models.StrategyActivation
	}
}

// primaryDriver picks the largest-dollar driver that is not low confidence,
// falling back to the largest regardless of confidence.
func primaryDriver(drivers []models.DriverContribution) *models.DriverContribution {
	if len(drivers) == 0 {
		return nil
	}
	sorted := append([]models.DriverContribution{}, drivers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Dollars) > math.Abs(sorted[j].Dollars)
	})
	for i := range sorted {
		if sorted[i].Confidence != models.ConfidenceLow {
			return &sorted[i]
		}
	}
	return &sorted[0]
}

// marginDriver reports gross-margin movement valued at current revenue. It is
// informational, not part of the additive decomposition.
func marginDriver(diag *models.Diagnosis) *models.DriverContribution {
	if diag.Current.GrossMarginPct == nil || diag.Prior.GrossMarginPct == nil {
		return nil
	}
	changePP := *diag.Current.GrossMarginPct - *diag.Prior.GrossMarginPct
	if changePP == 0 {
		return nil
	}
	dollars := changePP * diag.Current.Revenue / 100
	conf := models.ConfidenceMedium
	if diag.Current.CostCoveragePct > 50 {
		conf = models.ConfidenceHigh
	}
	dir := models.DirectionPositive
	if dollars < 0 {
		dir = models.DirectionNegative
	}
	return &models.DriverContribution{
		Driver:     models.DriverMargin,
		Dollars:    math.Round(dollars*100) / 100,
		Direction:  dir,
		Confidence: conf,
		Explanation: fmt.Sprintf("Gross margin moved %.1f pp YoY, worth $%.0f at current revenue",
			changePP, math.Abs(dollars)),
	}
}

func adsTrendDeclining(trends map[string]models.WeeklyTrendSeries) bool {
	t, ok := trends[string(repository.MetricAdsROAS)]
	if !ok {
		return false
	}
	return t.Label == models.TrendDeclining || t.Label == models.TrendAcceleratingDecline
}

func buildConfidence(diag *models.Diagnosis) models.DecisionConfidence {
	sources := map[string]bool{
		"orders":     diag.Current.Orders > 0,
		"cogs":       diag.Current.CostCoveragePct > 0,
		"ads":        diag.Ads.SpendCurrent > 0 || diag.Ads.SpendPrior > 0,
		"demand":     diag.Demand.ClicksCurrent > 0 || diag.Demand.ClicksPrior > 0,
		"conversion": diag.Funnel.ViewsCurrent > 0,
		"pricing":    diag.Pricing.TrackedSKUs > 0,
	}
	var available int
	for _, ok := range sources {
		if ok {
			available++
		}
	}
	overall := models.ConfidenceLow
	switch {
	case available >= 4:
		overall = models.ConfidenceHigh
	case available >= 2:
		overall = models.ConfidenceMedium
	}
	return models.DecisionConfidence{
		Overall:                  overall,
		DataSources:              sources,
		DecompositionCoveragePct: diag.Decomposition.CoveragePct,
	}
}

func buildGuardrails(diag *models.Diagnosis) models.Guardrails {
	g := models.Guardrails{
		PricingViolations: models.PricingViolations{
			BelowMinimum:   diag.Pricing.BelowMinimumCount,
			BelowCost:      diag.Pricing.LosingMoneyCount,
			BlockedActions: []string{},
		},
		LowConfidenceSignals: []string{},
	}
	if diag.Pricing.BelowMinimumCount > 0 {
		g.PricingViolations.BlockedActions = append(g.PricingViolations.BlockedActions, "lower_prices_further")
	}
	if diag.Pricing.LosingMoneyCount > 0 {
		g.PricingViolations.BlockedActions = append(g.PricingViolations.BlockedActions, "discount_below_cost")
	}
	for _, d := range diag.Decomposition.Drivers {
		if d.Confidence == models.ConfidenceLow {
			g.LowConfidenceSignals = append(g.LowConfidenceSignals, d.Driver)
		}
	}
	return g
}
