package decision

import (
	"math"
	"strings"
	"testing"

	"BrandPulse/internal/domain/models"
	"BrandPulse/internal/domain/repository"
	"BrandPulse/pkg/config"

	"github.com/creasty/defaults"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	var e config.Engine
	if err := defaults.Set(&e); err != nil {
		t.Fatalf("engine defaults: %v", err)
	}
	return NewEngine(e)
}

func fp(v float64) *float64 { return &v }

func baseDiagnosis() *models.Diagnosis {
	return &models.Diagnosis{
		Brand:   "Acme",
		Period:  "2025-02-13 to 2025-03-15",
		Current: models.PeriodAggregate{Revenue: 80000, Orders: 900, CostCoveragePct: 80, GrossMarginPct: fp(35)},
		Prior:   models.PeriodAggregate{Revenue: 100000, GrossMarginPct: fp(38)},
		Decomposition: models.Decomposition{
			RevenueCurrent:  80000,
			RevenuePrior:    100000,
			RevenueDelta:    -20000,
			RevenueDeltaPct: fp(-20),
			CoveragePct:     100,
			Drivers: []models.DriverContribution{
				{Driver: models.DriverVolume, Dollars: -12000, Direction: models.DirectionNegative, Confidence: models.ConfidenceHigh},
				{Driver: models.DriverProductMix, Dollars: -6000, Direction: models.DirectionNegative, Confidence: models.ConfidenceMedium,
					Mix: &models.MixBreakdown{NewProducts: 2, LostProducts: 5, StructuralDollars: 5000, StructuralProducts: 3}},
				{Driver: models.DriverAds, Dollars: -2000, Direction: models.DirectionNegative, Confidence: models.ConfidenceLow},
			},
		},
		Pricing:      models.PricingSignal{TrackedSKUs: 40, LosingMoneyCount: 2, BelowMinimumCount: 1, AvgMarginPct: fp(30)},
		Ads:          models.AdsSignal{SpendCurrent: 2000, SpendPrior: 1800, ROASCurrent: 2.5, ROASPrior: 4, ROASChangePct: fp(-37.5)},
		Demand:       models.DemandSignal{ClicksCurrent: 5000, ClicksPrior: 4000, ClicksChangePct: fp(25)},
		Funnel:       models.FunnelSignal{ViewsCurrent: 50000, ViewToCartCurrentPct: fp(4.5)},
		Fulfillment:  models.FulfillmentSignal{},
		Stock:        models.StockSignal{TotalSKUs: 40, OOSCount: 12, OOSRatePct: fp(30), Weight: 0.01},
		Anomalies:    []models.Anomaly{},
		WeeklyTrends: map[string]models.WeeklyTrendSeries{},
		Momentum:     models.MomentumScore{Score: 38, Label: "decelerating"},
	}
}

func TestBrandState(t *testing.T) {
	for _, tc := range []struct {
		yoy       *float64
		wantState string
	}{
		{fp(-10.1), models.StateDown},
		{fp(-10), models.StateStable},
		{fp(10), models.StateStable},
		{fp(10.1), models.StateUp},
		{nil, models.StateStable},
	} {
		state, _ := brandState(tc.yoy)
		if state != tc.wantState {
			t.Fatalf("brandState(%v) = %v, want %v", tc.yoy, state, tc.wantState)
		}
	}
	_, label := brandState(fp(-23.4))
	if label != "Declining 23% YoY" {
		t.Fatalf("unexpected label %q", label)
	}
}

func TestDecideBasicShape(t *testing.T) {
	e := testEngine(t)
	d := e.Decide(baseDiagnosis())

	if d.State != models.StateDown || d.How.Strategy != models.StrategyRecovery {
		t.Fatalf("state=%v strategy=%v, want down/recovery", d.State, d.How.Strategy)
	}
	if d.Why.PrimaryDriver == nil || d.Why.PrimaryDriver.Driver != models.DriverVolume {
		t.Fatalf("primary driver = %+v, want volume", d.Why.PrimaryDriver)
	}
	if !strings.Contains(d.Why.Summary, "Acme revenue decreased 20% year-on-year") {
		t.Fatalf("unexpected summary: %q", d.Why.Summary)
	}
	if !strings.Contains(d.Why.Summary, "unit volume") {
		t.Fatalf("summary must name the top negative driver: %q", d.Why.Summary)
	}
	if !strings.Contains(d.Why.Summary, "product mix (2 new, 5 lost products)") {
		t.Fatalf("summary must use the rich mix label: %q", d.Why.Summary)
	}
}

func TestPrimaryDriverSkipsLowConfidence(t *testing.T) {
	drivers := []models.DriverContribution{
		{Driver: models.DriverProductMix, Dollars: -9000, Confidence: models.ConfidenceLow},
		{Driver: models.DriverVolume, Dollars: -4000, Confidence: models.ConfidenceMedium},
	}
	p := primaryDriver(drivers)
	if p == nil || p.Driver != models.DriverVolume {
		t.Fatalf("primary = %+v, want volume (mix is low confidence)", p)
	}
	// all-low falls back to largest
	for i := range drivers {
		drivers[i].Confidence = models.ConfidenceLow
	}
	p = primaryDriver(drivers)
	if p == nil || p.Driver != models.DriverProductMix {
		t.Fatalf("fallback primary = %+v, want product_mix", p)
	}
}

func TestMarginDriverSupplementary(t *testing.T) {
	e := testEngine(t)
	diag := baseDiagnosis()
	d := e.Decide(diag)

	var margin *models.DriverContribution
	for i := range d.Why.Drivers {
		if d.Why.Drivers[i].Driver == models.DriverMargin {
			margin = &d.Why.Drivers[i]
		}
	}
	if margin == nil {
		t.Fatalf("expected margin driver in WHY")
	}
	// -3pp at $80k revenue
	if math.Abs(margin.Dollars-(-2400)) > 0.01 {
		t.Fatalf("margin dollars = %v, want -2400", margin.Dollars)
	}
	if margin.Confidence != models.ConfidenceHigh {
		t.Fatalf("margin confidence = %v, want high at 80%% cost coverage", margin.Confidence)
	}
	// but it must not appear in the additive decomposition itself
	for _, drv := range diag.Decomposition.Drivers {
		if drv.Driver == models.DriverMargin {
			t.Fatalf("margin leaked into the decomposition")
		}
	}
}

func TestDecideConfidenceSources(t *testing.T) {
	e := testEngine(t)
	d := e.Decide(baseDiagnosis())
	// orders, cogs, ads, demand, conversion, pricing all present
	if d.Confidence.Overall != models.ConfidenceHigh {
		t.Fatalf("overall = %v, want high", d.Confidence.Overall)
	}

	sparse := baseDiagnosis()
	sparse.Current.Orders = 0
	sparse.Current.CostCoveragePct = 0
	sparse.Ads = models.AdsSignal{}
	sparse.Demand = models.DemandSignal{}
	sparse.Funnel = models.FunnelSignal{}
	d = e.Decide(sparse)
	// only pricing remains
	if d.Confidence.Overall != models.ConfidenceLow {
		t.Fatalf("overall = %v, want low with one source", d.Confidence.Overall)
	}
	if !d.Confidence.DataSources["pricing"] || d.Confidence.DataSources["ads"] {
		t.Fatalf("unexpected sources: %+v", d.Confidence.DataSources)
	}
}

func TestDecideGuardrails(t *testing.T) {
	e := testEngine(t)
	d := e.Decide(baseDiagnosis())

	g := d.Guardrails
	if g.PricingViolations.BelowCost != 2 || g.PricingViolations.BelowMinimum != 1 {
		t.Fatalf("unexpected violations: %+v", g.PricingViolations)
	}
	blocked := strings.Join(g.PricingViolations.BlockedActions, ",")
	if !strings.Contains(blocked, "lower_prices_further") || !strings.Contains(blocked, "discount_below_cost") {
		t.Fatalf("unexpected blocked actions: %v", g.PricingViolations.BlockedActions)
	}
	if len(g.LowConfidenceSignals) != 1 || g.LowConfidenceSignals[0] != models.DriverAds {
		t.Fatalf("unexpected low-confidence signals: %v", g.LowConfidenceSignals)
	}
}

func TestTrendNarrativeFallback(t *testing.T) {
	diag := baseDiagnosis()
	// no weekly trends at all, but ROAS moved more than 30%
	s := trendNarrative(diag)
	if !strings.Contains(s, "deteriorated 38% YoY") {
		t.Fatalf("unexpected fallback narrative: %q", s)
	}

	diag.WeeklyTrends = map[string]models.WeeklyTrendSeries{
		string(repository.MetricAdsROAS): {Label: models.TrendDeclining},
	}
	s = trendNarrative(diag)
	if !strings.Contains(s, "multi-week decline") {
		t.Fatalf("unexpected trend narrative: %q", s)
	}
}
