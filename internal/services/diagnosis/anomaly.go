package diagnosis

import (
	"fmt"
	"math"

	"BrandPulse/internal/domain/models"
	"BrandPulse/internal/domain/repository"
	"BrandPulse/pkg/config"
)

// AnomalyInput is the slice of diagnosis output the threshold rules read.
type AnomalyInput struct {
	RevenueYoYPct *float64
	Pricing       models.PricingSignal
	Ads           models.AdsSignal
	Demand        models.DemandSignal
	Funnel        models.FunnelSignal
	Fulfillment   models.FulfillmentSignal
	WeeklyTrends  map[string]models.WeeklyTrendSeries
}

// DetectAnomalies runs the stateless rule list over the diagnostic outputs.
// No match yields an empty list, never nil checks downstream.
func DetectAnomalies(in AnomalyInput, cfg config.Engine) []models.Anomaly {
	a := cfg.Anomaly
	out := []models.Anomaly{}

	if v := in.RevenueYoYPct; v != nil && math.Abs(*v) > a.RevenueYoYPct {
		desc := fmt.Sprintf("Revenue surged %.0f%% YoY", *v)
		if *v < 0 {
			desc = fmt.Sprintf("Revenue collapsed %.0f%% YoY", math.Abs(*v))
		}
		out = append(out, models.Anomaly{
			Signal: "revenue", Value: round2(*v), Threshold: ptr(a.RevenueYoYPct), Description: desc,
		})
	}

	if in.Pricing.LosingMoneyCount > a.LosingMoneySKUs {
		out = append(out, models.Anomaly{
			Signal:      "pricing",
			Value:       float64(in.Pricing.LosingMoneyCount),
			Threshold:   ptr(float64(a.LosingMoneySKUs)),
			Description: fmt.Sprintf("%d SKUs are selling below cost", in.Pricing.LosingMoneyCount),
		})
	}

	if v := in.Ads.ROASChangePct; v != nil && math.Abs(*v) > a.ROASYoYPct {
		word := "improved"
		if *v < 0 {
			word = "deteriorated"
		}
		out = append(out, models.Anomaly{
			Signal: "ads", Value: round2(*v), Threshold: ptr(a.ROASYoYPct),
			Description: fmt.Sprintf("Ad ROAS %s %.0f%% YoY", word, math.Abs(*v)),
		})
	}

	if v := in.Demand.ClicksChangePct; v != nil && math.Abs(*v) > a.ClicksYoYPct {
		word := "rose"
		if *v < 0 {
			word = "fell"
		}
		out = append(out, models.Anomaly{
			Signal: "demand", Value: round2(*v), Threshold: ptr(a.ClicksYoYPct),
			Description: fmt.Sprintf("Branded search clicks %s %.0f%% YoY", word, math.Abs(*v)),
		})
	}

	if v := in.Funnel.ViewToCartChangePP; v != nil && math.Abs(*v) > a.ViewToCartPP {
		out = append(out, models.Anomaly{
			Signal: "conversion", Value: round2(*v), Threshold: ptr(a.ViewToCartPP),
			Description: fmt.Sprintf("View-to-cart rate moved %.1f pp YoY", *v),
		})
	}

	if v := in.Fulfillment.RefundRateChangePP; v != nil && math.Abs(*v) > a.RefundRatePP {
		out = append(out, models.Anomaly{
			Signal: "fulfillment", Value: round2(*v), Threshold: ptr(a.RefundRatePP),
			Description: fmt.Sprintf("Refund rate moved %.1f pp YoY", *v),
		})
	}

	// Trend-derived anomalies.
	if t, ok := in.WeeklyTrends[string(repository.MetricAdsROAS)]; ok {
		if t.Label == models.TrendDeclining || t.Label == models.TrendAcceleratingDecline {
			out = append(out, models.Anomaly{
				Signal:      "ads_roas_trend",
				Value:       lastPoint(t.Points),
				Description: fmt.Sprintf("Ad ROAS is in a %d-week declining trend", len(t.Points)),
			})
		}
	}
	if t, ok := in.WeeklyTrends[string(repository.MetricRevenue)]; ok {
		if t.Label == models.TrendAcceleratingDecline {
			out = append(out, models.Anomaly{
				Signal:      "revenue_trend",
				Value:       lastPoint(t.Points),
				Description: "Revenue decline is accelerating week over week",
			})
		}
	}

	return out
}

func lastPoint(points []models.WeeklyPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Value
}
