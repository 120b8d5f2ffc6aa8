package decision

import (
	"fmt"
	"math"

	"BrandPulse/internal/domain/models"
)

// buildWhatIf assembles the scenario projections. Blocked scenarios stay in
// the output (so callers can explain why) but contribute nothing to the
// addressable upside.
func buildWhatIf(diag *models.Diagnosis, roasDeclining bool) models.WhatIf {
	scenarios := []models.Scenario{}

	if diag.Ads.SpendCurrent > 0 {
		scenarios = append(scenarios, scaleAdsScenario(diag, roasDeclining))
		if roasDeclining && diag.Ads.ROASPrior > diag.Ads.ROASCurrent {
			scenarios = append(scenarios, restoreROASScenario(diag))
		}
	}
	if s, ok := pricingScenario(diag); ok {
		scenarios = append(scenarios, s)
	}
	if s, ok := conversionScenario(diag); ok {
		scenarios = append(scenarios, s)
	}

	var upside float64
	for _, s := range scenarios {
		if !s.Blocked {
			upside += s.ImpactMid
		}
	}
	return models.WhatIf{
		Scenarios:              scenarios,
		TotalAddressableUpside: round2(upside),
	}
}

func scaleAdsScenario(diag *models.Diagnosis, roasDeclining bool) models.Scenario {
	mid := diag.Ads.SpendCurrent * 0.2 * diag.Ads.ROASCurrent
	confidence := models.ConfidenceMedium
	if diag.Ads.SpendCurrent > 500 {
		confidence = models.ConfidenceHigh
	}
	s := models.Scenario{
		Name:       "Scale ads +20%",
		ImpactLow:  round2(mid * 0.7),
		ImpactMid:  round2(mid),
		ImpactHigh: round2(mid * 1.2),
		Confidence: confidence,
		Assumptions: []string{
			"ROAS holds at the current level",
			"Auction inventory is available at similar CPCs",
		},
		TimeHorizon: "4-6 weeks",
	}
	if roasDeclining {
		s.Blocked = true
		s.BlockedReason = "ads ROAS is in a declining trend; scaling spend would amplify the inefficiency"
	}
	return s
}

func restoreROASScenario(diag *models.Diagnosis) models.Scenario {
	mid := diag.Ads.SpendCurrent * (diag.Ads.ROASPrior - diag.Ads.ROASCurrent)
	return models.Scenario{
		Name:       "Restore ROAS to prior level",
		ImpactLow:  round2(mid * 0.5),
		ImpactMid:  round2(mid),
		ImpactHigh: round2(mid * 1.2),
		Confidence: models.ConfidenceMedium,
		Assumptions: []string{
			fmt.Sprintf("ROAS recoverable from %.1f to %.1f at current spend", diag.Ads.ROASCurrent, diag.Ads.ROASPrior),
		},
		TimeHorizon: "6-8 weeks",
	}
}

func pricingScenario(diag *models.Diagnosis) (models.Scenario, bool) {
	p := diag.Pricing
	if p.LosingMoneyCount == 0 || p.TrackedSKUs == 0 || p.AvgMarginPct == nil {
		return models.Scenario{}, false
	}
	// approximate the revenue on violating SKUs by their share of the range
	violatingRevenue := diag.Current.Revenue * float64(p.LosingMoneyCount) / float64(p.TrackedSKUs)
	point := violatingRevenue * math.Abs(*p.AvgMarginPct) / 100
	return models.Scenario{
		Name:       "Fix pricing violations",
		ImpactLow:  round2(point * 0.5),
		ImpactMid:  round2(point * 0.75),
		ImpactHigh: round2(point),
		Confidence: models.ConfidenceMedium,
		Assumptions: []string{
			fmt.Sprintf("%d below-cost SKUs repriced to average margin", p.LosingMoneyCount),
			"No material volume loss from corrected prices",
		},
		TimeHorizon: "2-4 weeks",
	}, true
}

func conversionScenario(diag *models.Diagnosis) (models.Scenario, bool) {
	if diag.Funnel.ViewsCurrent == 0 || diag.Current.Orders == 0 {
		return models.Scenario{}, false
	}
	aov := diag.Current.Revenue / float64(diag.Current.Orders)
	point := float64(diag.Funnel.ViewsCurrent) * 0.01 * aov
	confidence := models.ConfidenceLow
	if diag.Funnel.ViewsCurrent > 1000 {
		confidence = models.ConfidenceMedium
	}
	return models.Scenario{
		Name:       "Improve conversion +1pp",
		ImpactLow:  round2(point * 0.5),
		ImpactMid:  round2(point),
		ImpactHigh: round2(point * 1.5),
		Confidence: confidence,
		Assumptions: []string{
			"View-to-cart improves one percentage point on current traffic",
			fmt.Sprintf("Average order value holds at $%.0f", aov),
		},
		TimeHorizon: "4-8 weeks",
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
