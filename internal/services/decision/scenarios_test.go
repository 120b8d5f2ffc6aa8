package decision

import (
	"math"
	"testing"

	"BrandPulse/internal/domain/models"
	"BrandPulse/internal/domain/repository"
)

func scenarioByName(w models.WhatIf, name string) *models.Scenario {
	for i := range w.Scenarios {
		if w.Scenarios[i].Name == name {
			return &w.Scenarios[i]
		}
	}
	return nil
}

// Scale-ads must be blocked for every positive spend while ROAS declines.
func TestScaleAdsBlockedWheneverROASDeclines(t *testing.T) {
	for _, spend := range []float64{0.01, 100, 501, 2000, 1e6} {
		diag := baseDiagnosis()
		diag.Ads.SpendCurrent = spend
		w := buildWhatIf(diag, true)
		s := scenarioByName(w, "Scale ads +20%")
		if s == nil {
			t.Fatalf("spend=%v: scenario missing", spend)
		}
		if !s.Blocked || s.BlockedReason == "" {
			t.Fatalf("spend=%v: scenario must be blocked with a reason: %+v", spend, s)
		}
	}
}

func TestScaleAdsScenarioRanges(t *testing.T) {
	diag := baseDiagnosis() // spend 2000, ROAS 2.5
	w := buildWhatIf(diag, false)
	s := scenarioByName(w, "Scale ads +20%")
	if s == nil {
		t.Fatalf("scenario missing")
	}
	// mid = 2000 * 0.2 * 2.5 = 1000
	if s.ImpactMid != 1000 || s.ImpactLow != 700 || s.ImpactHigh != 1200 {
		t.Fatalf("unexpected ranges: %+v", s)
	}
	if s.Confidence != models.ConfidenceHigh {
		t.Fatalf("confidence = %v, want high for spend > 500", s.Confidence)
	}
	diag.Ads.SpendCurrent = 400
	w = buildWhatIf(diag, false)
	if s := scenarioByName(w, "Scale ads +20%"); s.Confidence != models.ConfidenceMedium {
		t.Fatalf("confidence = %v, want medium for small spend", s.Confidence)
	}
}

func TestRestoreROASScenario(t *testing.T) {
	diag := baseDiagnosis() // spend 2000, ROAS 2.5 vs prior 4
	w := buildWhatIf(diag, true)
	s := scenarioByName(w, "Restore ROAS to prior level")
	if s == nil {
		t.Fatalf("expected restore scenario while blocked")
	}
	// 2000 * (4 - 2.5) = 3000
	if s.ImpactMid != 3000 || s.ImpactLow != 1500 || s.ImpactHigh != 3600 {
		t.Fatalf("unexpected ranges: %+v", s)
	}

	// no restore scenario when ROAS already at or above prior
	diag.Ads.ROASPrior = 2.0
	w = buildWhatIf(diag, true)
	if scenarioByName(w, "Restore ROAS to prior level") != nil {
		t.Fatalf("restore scenario must require prior > current ROAS")
	}
}

func TestBlockedScenarioExcludedFromUpside(t *testing.T) {
	diag := baseDiagnosis()
	open := buildWhatIf(diag, false)
	blocked := buildWhatIf(diag, true)

	scale := scenarioByName(open, "Scale ads +20%")
	if scale == nil || scale.Blocked {
		t.Fatalf("baseline scenario should be open")
	}
	// blocked run swaps scale-ads upside for the restore estimate
	restore := scenarioByName(blocked, "Restore ROAS to prior level")
	diff := blocked.TotalAddressableUpside - (open.TotalAddressableUpside - scale.ImpactMid)
	if math.Abs(diff-restore.ImpactMid) > 0.01 {
		t.Fatalf("upside accounting off: open=%v blocked=%v", open.TotalAddressableUpside, blocked.TotalAddressableUpside)
	}
}

func TestPricingScenario(t *testing.T) {
	diag := baseDiagnosis() // revenue 80000, 2/40 losing, avg margin 30
	w := buildWhatIf(diag, false)
	s := scenarioByName(w, "Fix pricing violations")
	if s == nil {
		t.Fatalf("expected pricing scenario")
	}
	// point = 80000 * 2/40 * 0.30 = 1200 -> mid 900
	if s.ImpactMid != 900 || s.ImpactLow != 600 || s.ImpactHigh != 1200 {
		t.Fatalf("unexpected ranges: %+v", s)
	}

	diag.Pricing.LosingMoneyCount = 0
	w = buildWhatIf(diag, false)
	if scenarioByName(w, "Fix pricing violations") != nil {
		t.Fatalf("pricing scenario must require violations")
	}
}

func TestConversionScenario(t *testing.T) {
	diag := baseDiagnosis() // views 50000, revenue 80000, orders 900
	w := buildWhatIf(diag, false)
	s := scenarioByName(w, "Improve conversion +1pp")
	if s == nil {
		t.Fatalf("expected conversion scenario")
	}
	aov := 80000.0 / 900.0
	want := round2(50000 * 0.01 * aov)
	if s.ImpactMid != want {
		t.Fatalf("mid = %v, want %v", s.ImpactMid, want)
	}
	if s.Confidence != models.ConfidenceMedium {
		t.Fatalf("confidence = %v, want medium for >1000 views", s.Confidence)
	}

	diag.Funnel.ViewsCurrent = 800
	w = buildWhatIf(diag, false)
	if s := scenarioByName(w, "Improve conversion +1pp"); s.Confidence != models.ConfidenceLow {
		t.Fatalf("confidence = %v, want low for thin traffic", s.Confidence)
	}
}

// keep repository import live for trend-label driven cases below
func TestWhatIfUsesAdsTrendLabel(t *testing.T) {
	diag := baseDiagnosis()
	diag.WeeklyTrends = map[string]models.WeeklyTrendSeries{
		string(repository.MetricAdsROAS): {Label: models.TrendAcceleratingDecline},
	}
	e := testEngine(t)
	d := e.Decide(diag)
	s := scenarioByName(d.WhatIf, "Scale ads +20%")
	if s == nil || !s.Blocked {
		t.Fatalf("accelerating ROAS decline must block scaling: %+v", s)
	}
}
