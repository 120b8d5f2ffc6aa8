package decision

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"BrandPulse/internal/domain/models"
)

// Action categories (the output taxonomy).
const (
	CategoryAssortment = "assortment"
	CategoryAds        = "ads"
	CategoryPricing    = "pricing"
	CategoryFunnel     = "funnel"
)

// Action priorities.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

var priorityRank = map[string]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

var impactedMetric = map[string]string{
	CategoryAssortment: "revenue",
	CategoryAds:        "roas",
	CategoryPricing:    "margin",
	CategoryFunnel:     "conversion_rate",
}

const maxActions = 8

func dependencyOrderFor(category, priority string) int {
	switch {
	case category == CategoryPricing:
		return 1
	case category == CategoryAssortment && priority == PriorityCritical:
		return 1
	case category == CategoryAds:
		return 3
	default:
		return 4
	}
}

// buildActions applies the cross-signal recommendation rules and returns the
// prioritized action list plus the ordering dependencies between them.
func buildActions(diag *models.Diagnosis, state string, roasDeclining bool) ([]models.Action, []string) {
	actions := []models.Action{}
	add := func(id, category, priority, text, impact string, dollars *float64, evidence []string) {
		actions = append(actions, models.Action{
			ID:                    id,
			Category:              category,
			Priority:              priority,
			Action:                text,
			ExpectedImpact:        impact,
			ExpectedImpactDollars: dollars,
			ImpactedMetric:        impactedMetric[category],
			DependencyOrder:       dependencyOrderFor(category, priority),
			Evidence:              capEvidence(evidence),
		})
	}

	oosRate := 0.0
	if diag.Stock.OOSRatePct != nil {
		oosRate = *diag.Stock.OOSRatePct
	}

	// demand is up, revenue is down, and a big slice of the range is dark
	if state == models.StateDown && derefF(diag.Demand.ClicksChangePct) > 0 && oosRate > 20 {
		add("restock_out_of_stock", CategoryAssortment, PriorityCritical,
			fmt.Sprintf("Restock %d out-of-stock products; search demand is up while revenue falls", diag.Stock.OOSCount),
			"Recover demand currently hitting unavailable products", nil,
			append([]string{
				fmt.Sprintf("%.0f%% of tracked SKUs are out of stock", oosRate),
				fmt.Sprintf("search clicks up %.0f%% YoY", derefF(diag.Demand.ClicksChangePct)),
			}, diag.Stock.GateReasons...))
	}

	if roasDeclining && diag.Ads.SpendCurrent > 0 {
		add("audit_declining_roas_campaigns", CategoryAds, PriorityCritical,
			auditActionText(diag.Ads.Campaigns),
			"Stop efficiency bleed before any budget increase", nil,
			campaignEvidence(diag.Ads.Campaigns))
	} else if diag.Ads.ROASCurrent >= 3 && diag.Ads.ImpressionSharePct != nil && *diag.Ads.ImpressionSharePct < 70 {
		upside := diag.Ads.SpendCurrent * 0.2 * diag.Ads.ROASCurrent
		add("scale_ads", CategoryAds, PriorityHigh,
			fmt.Sprintf("Increase ad budget; ROAS %.1f with only %.0f%% impression share", diag.Ads.ROASCurrent, *diag.Ads.ImpressionSharePct),
			"Capture impression share currently lost", &upside,
			[]string{
				fmt.Sprintf("ROAS %.1f", diag.Ads.ROASCurrent),
				fmt.Sprintf("impression share %.0f%%", *diag.Ads.ImpressionSharePct),
				fmt.Sprintf("budget-lost share %.0f%%", derefF(diag.Ads.BudgetLostSharePct)),
			})
	}

	if diag.Ads.ROASCurrent > 0 && diag.Ads.ROASCurrent < 2 && diag.Ads.SpendCurrent > 500 {
		add("rework_underperforming_ads", CategoryAds, PriorityHigh,
			fmt.Sprintf("Pause or rework campaigns; blended ROAS %.1f on $%.0f spend", diag.Ads.ROASCurrent, diag.Ads.SpendCurrent),
			"Redirect unprofitable spend", nil,
			campaignEvidence(diag.Ads.Campaigns))
	}

	if diag.Pricing.LosingMoneyCount > 0 {
		add("fix_below_cost_pricing", CategoryPricing, PriorityCritical,
			fmt.Sprintf("Raise prices on %d SKUs selling below cost", diag.Pricing.LosingMoneyCount),
			"Stop direct margin loss", nil,
			[]string{fmt.Sprintf("%d SKUs below cost", diag.Pricing.LosingMoneyCount)})
	}
	if diag.Pricing.BelowMinimumCount > 0 {
		add("fix_below_minimum_pricing", CategoryPricing, PriorityHigh,
			fmt.Sprintf("Correct %d SKUs priced below their configured minimum", diag.Pricing.BelowMinimumCount),
			"Restore pricing policy compliance", nil,
			[]string{fmt.Sprintf("%d SKUs below minimum", diag.Pricing.BelowMinimumCount)})
	}
	if idx := diag.Pricing.AvgPriceIndex; idx != nil && *idx > 110 {
		add("review_price_competitiveness", CategoryPricing, PriorityMedium,
			fmt.Sprintf("Prices average %.0f%% of the cheapest competitor; review competitiveness", *idx),
			"Reduce lost sales to cheaper competitors", nil,
			[]string{fmt.Sprintf("avg price index %.0f", *idx)})
	}

	if v2c := diag.Funnel.ViewToCartCurrentPct; v2c != nil && *v2c < 3 && diag.Funnel.ViewsCurrent > 1000 {
		add("improve_product_pages", CategoryFunnel, PriorityHigh,
			fmt.Sprintf("Improve product pages; view-to-cart is %.1f%% on %d views", *v2c, diag.Funnel.ViewsCurrent),
			"Lift conversion on existing traffic", nil,
			[]string{
				fmt.Sprintf("view-to-cart %.1f%%", *v2c),
				fmt.Sprintf("%d product views", diag.Funnel.ViewsCurrent),
			})
	}

	if mix := findMix(diag.Decomposition.Drivers); mix != nil {
		if mix.StructuralDollars > 0 && mix.StructuralProducts > 0 {
			add("reintroduce_lost_products", CategoryAssortment, PriorityHigh,
				fmt.Sprintf("Reintroduce or replace %d discontinued products worth $%.0f in prior-period revenue",
					mix.StructuralProducts, mix.StructuralDollars),
				"Recover structurally lost revenue", &mix.StructuralDollars,
				[]string{fmt.Sprintf("$%.0f structural lost-product revenue", mix.StructuralDollars)})
		}
		if mix.NewProducts > 0 && state != models.StateDown {
			add("scale_new_products", CategoryAssortment, PriorityLow,
				fmt.Sprintf("Scale distribution and ads behind %d new products", mix.NewProducts),
				"Compound new-product momentum", nil,
				[]string{fmt.Sprintf("%d new products this period", mix.NewProducts)})
		}
	}

	if diag.Current.GrossMarginPct != nil && diag.Prior.GrossMarginPct != nil {
		if drop := *diag.Current.GrossMarginPct - *diag.Prior.GrossMarginPct; drop < -2 {
			add("review_margin_erosion", CategoryPricing, PriorityMedium,
				fmt.Sprintf("Review cost and discounting; gross margin down %.1f pp YoY", math.Abs(drop)),
				"Stop margin erosion", nil,
				[]string{fmt.Sprintf("gross margin %.1f%% vs %.1f%% prior",
					*diag.Current.GrossMarginPct, *diag.Prior.GrossMarginPct)})
		}
	}

	// ads efficiency comes first: push assortment work behind the audit
	if roasDeclining {
		for i := range actions {
			if actions[i].Category == CategoryAssortment {
				actions[i].DependencyOrder++
			}
			if actions[i].ID == "audit_declining_roas_campaigns" {
				actions[i].DependencyOrder = 1
			}
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		if priorityRank[actions[i].Priority] != priorityRank[actions[j].Priority] {
			return priorityRank[actions[i].Priority] < priorityRank[actions[j].Priority]
		}
		return actions[i].DependencyOrder < actions[j].DependencyOrder
	})
	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}

	dependencies := []string{}
	if diag.Pricing.LosingMoneyCount+diag.Pricing.BelowMinimumCount > 0 {
		dependencies = append(dependencies, "Fix pricing violations before scaling ad spend")
	}
	if roasDeclining {
		dependencies = append(dependencies, "Restore ad efficiency before scaling traffic")
	}
	if v2c := diag.Funnel.ViewToCartCurrentPct; v2c != nil && *v2c < 3 {
		dependencies = append(dependencies, "Resolve conversion friction before scaling traffic")
	}

	return actions, dependencies
}

// auditActionText names the campaigns to audit, flagging the ones whose last
// activity predates the most recent matched campaign as paused.
func auditActionText(campaigns []models.Campaign) string {
	if len(campaigns) == 0 {
		return "Audit declining-ROAS campaigns"
	}
	var latest time.Time
	for _, c := range campaigns {
		if c.LastActivity.After(latest) {
			latest = c.LastActivity
		}
	}
	sorted := append([]models.Campaign{}, campaigns...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Spend > sorted[j].Spend })
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	names := make([]string, 0, len(sorted))
	for _, c := range sorted {
		status := c.Status
		if c.LastActivity.Before(latest) {
			status = "paused"
		}
		names = append(names, fmt.Sprintf("%s (%s)", c.Name, status))
	}
	return "Audit declining-ROAS campaigns: " + strings.Join(names, ", ")
}

func campaignEvidence(campaigns []models.Campaign) []string {
	sorted := append([]models.Campaign{}, campaigns...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Spend > sorted[j].Spend })
	out := make([]string, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, fmt.Sprintf("%s: $%.0f spend, ROAS %.1f", c.Name, c.Spend, c.ROAS))
	}
	return out
}

func capEvidence(ev []string) []string {
	if len(ev) > 3 {
		return ev[:3]
	}
	return ev
}

func findMix(drivers []models.DriverContribution) *models.MixBreakdown {
	for _, d := range drivers {
		if d.Driver == models.DriverProductMix {
			return d.Mix
		}
	}
	return nil
}

func derefF(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
