package diagnosis

import (
	"math"
	"testing"

	"BrandPulse/internal/domain/models"
)

func TestAdsStrengthWorkedExample(t *testing.T) {
	// spend +40%, ROAS +10%, budget-lost 15% -> 0.32 + 0.08 + 0.2 = 0.6
	s := BuildAdsSignal(
		models.CampaignMetrics{Spend: 140, ROAS: 11, BudgetLostShare: ptr(15)},
		models.CampaignMetrics{Spend: 100, ROAS: 10},
	)
	if math.Abs(s.Strength-0.6) > 1e-9 {
		t.Fatalf("strength = %v, want 0.6", s.Strength)
	}
	if StrengthConfidence(s.Strength) != models.ConfidenceMedium {
		t.Fatalf("0.6 must grade medium, not high")
	}
}

func TestAdsStrengthNoSpend(t *testing.T) {
	s := BuildAdsSignal(models.CampaignMetrics{}, models.CampaignMetrics{})
	if s.Strength != 0 {
		t.Fatalf("strength = %v, want 0 with no spend either period", s.Strength)
	}
}

func TestAdsStrengthNewSpend(t *testing.T) {
	// spend appeared from nothing: spend movement saturates
	s := BuildAdsSignal(models.CampaignMetrics{Spend: 500, ROAS: 2}, models.CampaignMetrics{})
	if s.SpendChangePct != nil {
		t.Fatalf("spend change pct must be nil with zero prior spend")
	}
	if math.Abs(s.Strength-0.4) > 1e-9 {
		t.Fatalf("strength = %v, want 0.4", s.Strength)
	}
}

func TestAdsStrengthCapped(t *testing.T) {
	s := BuildAdsSignal(
		models.CampaignMetrics{Spend: 300, ROAS: 30, BudgetLostShare: ptr(40)},
		models.CampaignMetrics{Spend: 100, ROAS: 10},
	)
	if s.Strength != 1 {
		t.Fatalf("strength = %v, want capped at 1", s.Strength)
	}
}

func TestStrengthConfidenceBoundaries(t *testing.T) {
	for _, tc := range []struct {
		strength float64
		want     string
	}{
		{0.61, models.ConfidenceHigh},
		{0.6, models.ConfidenceMedium},
		{0.21, models.ConfidenceMedium},
		{0.2, models.ConfidenceLow},
		{0, models.ConfidenceLow},
	} {
		if got := StrengthConfidence(tc.strength); got != tc.want {
			t.Fatalf("confidence(%v) = %v, want %v", tc.strength, got, tc.want)
		}
	}
}

func TestDemandStrength(t *testing.T) {
	s := BuildDemandSignal(models.SearchDemand{Clicks: 600}, models.SearchDemand{Clicks: 1000})
	// -40% / 40 -> saturated at 1
	if s.Strength != 1 {
		t.Fatalf("strength = %v, want 1", s.Strength)
	}
	s = BuildDemandSignal(models.SearchDemand{Clicks: 900}, models.SearchDemand{Clicks: 1000})
	if math.Abs(s.Strength-0.25) > 1e-9 {
		t.Fatalf("strength = %v, want 0.25", s.Strength)
	}
	s = BuildDemandSignal(models.SearchDemand{}, models.SearchDemand{})
	if s.Strength != 0 {
		t.Fatalf("strength = %v, want 0 with no clicks", s.Strength)
	}
}

func TestConversionStrengthLowTrafficGate(t *testing.T) {
	s := BuildFunnelSignal(
		models.FunnelTotals{Views: 100, AddToCart: 1, Purchases: 1},
		models.FunnelTotals{Views: 100, AddToCart: 10, Purchases: 5},
	)
	if s.Strength != 0 {
		t.Fatalf("strength = %v, want 0 at <=100 views", s.Strength)
	}
}

func TestConversionStrength(t *testing.T) {
	// v2c 10% -> 5% (-5pp saturates), c2p 50% -> 50% (0pp)
	s := BuildFunnelSignal(
		models.FunnelTotals{Views: 2000, AddToCart: 100, Purchases: 50},
		models.FunnelTotals{Views: 1000, AddToCart: 100, Purchases: 50},
	)
	if math.Abs(deref(s.ViewToCartChangePP)-(-5)) > 1e-9 {
		t.Fatalf("v2c change = %v, want -5", deref(s.ViewToCartChangePP))
	}
	if math.Abs(s.Strength-0.5) > 1e-9 {
		t.Fatalf("strength = %v, want 0.5", s.Strength)
	}
}

func TestFulfillmentStrength(t *testing.T) {
	s := BuildFulfillmentSignal(
		models.FulfillmentTotals{RefundRatePct: ptr(7), CancellationRatePct: ptr(4)},
		models.FulfillmentTotals{RefundRatePct: ptr(2), CancellationRatePct: ptr(1)},
	)
	// refund +5pp saturates 0.6 share, cancel +3pp saturates 0.4 share
	if s.Strength != 1 {
		t.Fatalf("strength = %v, want 1", s.Strength)
	}
	s = BuildFulfillmentSignal(models.FulfillmentTotals{}, models.FulfillmentTotals{})
	if s.Strength != 0 {
		t.Fatalf("strength = %v, want 0 with no rates", s.Strength)
	}
}

func TestBuildPricingSignal(t *testing.T) {
	rows := []models.PricingRow{
		{SKU: "a", CurrentPrice: 100, LowestCompetitorPrice: ptr(80), MarginPct: ptr(20), LosingMoney: true},
		{SKU: "b", CurrentPrice: 50, LowestCompetitorPrice: ptr(50), MarginPct: ptr(40), BelowMinimum: true},
		{SKU: "c", CurrentPrice: 10},
	}
	s := BuildPricingSignal(rows)
	if s.TrackedSKUs != 3 || s.LosingMoneyCount != 1 || s.BelowMinimumCount != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if deref(s.AvgMarginPct) != 30 {
		t.Fatalf("avg margin = %v, want 30", deref(s.AvgMarginPct))
	}
	if deref(s.AvgPriceIndex) != 112.5 {
		t.Fatalf("avg price index = %v, want 112.5", deref(s.AvgPriceIndex))
	}
	empty := BuildPricingSignal(nil)
	if empty.AvgMarginPct != nil || empty.AvgPriceIndex != nil {
		t.Fatalf("empty snapshot must yield nil averages")
	}
}
