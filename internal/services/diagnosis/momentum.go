package diagnosis

import (
	"BrandPulse/internal/domain/models"
	"BrandPulse/internal/domain/repository"
	"BrandPulse/pkg/config"
)

// Momentum labels.
const (
	MomentumAccelerating   = "accelerating"
	MomentumStablePositive = "stable_positive"
	MomentumNeutral        = "neutral"
	MomentumDecelerating   = "decelerating"
	MomentumDeclining      = "declining"
)

// MomentumInput collects the YoY deltas and weekly trends the score blends.
// Missing inputs contribute zero, so an all-missing diagnosis scores the
// baseline 50.
type MomentumInput struct {
	RevenueYoYPct          *float64
	ClicksYoYPct           *float64
	ROASYoYPct             *float64
	ViewToCartChangePP     *float64
	CartToPurchaseChangePP *float64
	WeeklyTrends           map[string]models.WeeklyTrendSeries
}

// trendScore maps a weekly trend label to its momentum contribution.
func trendScore(label string) float64 {
	switch label {
	case models.TrendAcceleratingDecline:
		return -20
	case models.TrendDeclining:
		return -15
	case models.TrendStabilizing:
		return -5
	case models.TrendRecovering:
		return 10
	case models.TrendAcceleratingGrowth:
		return 20
	default: // flat, mixed, insufficient_data
		return 0
	}
}

// Momentum computes the forward-looking 0-100 composite score: a baseline of
// 50 moved by capped contributions from revenue trajectory, demand, ads
// efficiency, conversion, and the weekly trend blend.
func Momentum(in MomentumInput, cfg config.Engine) models.MomentumScore {
	m := cfg.Momentum
	components := map[string]float64{
		"revenue_trajectory": clamp(deref(in.RevenueYoYPct)*m.RevenueWeight, -25, 25),
		"demand_trend":       clamp(deref(in.ClicksYoYPct)*m.DemandWeight, -20, 20),
		"ads_efficiency":     clamp(deref(in.ROASYoYPct)*m.AdsWeight, -15, 15),
		"conversion_trend": clamp(
			deref(in.ViewToCartChangePP)*m.ViewToCartWeight+
				deref(in.CartToPurchaseChangePP)*m.CartToBuyWeight, -20, 20),
	}

	var weekly float64
	if in.WeeklyTrends != nil {
		weekly = trendScore(in.WeeklyTrends[string(repository.MetricRevenue)].Label)*m.WeeklyRevenueShare +
			trendScore(in.WeeklyTrends[string(repository.MetricAdsROAS)].Label)*m.WeeklyAdsShare +
			trendScore(in.WeeklyTrends[string(repository.MetricSearchClicks)].Label)*m.WeeklySearchShare
	}
	components["weekly_momentum"] = round2(weekly)

	score := 50.0
	for _, c := range components {
		score += c
	}
	score = clamp(score, 0, 100)

	return models.MomentumScore{
		Score:      round2(score),
		Label:      momentumLabel(score),
		Components: components,
	}
}

func momentumLabel(score float64) string {
	switch {
	case score >= 70:
		return MomentumAccelerating
	case score >= 55:
		return MomentumStablePositive
	case score >= 45:
		return MomentumNeutral
	case score >= 30:
		return MomentumDecelerating
	default:
		return MomentumDeclining
	}
}
