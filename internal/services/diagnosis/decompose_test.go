package diagnosis

import (
	"math"
	"testing"

	"BrandPulse/internal/domain/models"
	"BrandPulse/pkg/config"

	"github.com/creasty/defaults"
)

func testEngine(t *testing.T) config.Engine {
	t.Helper()
	var e config.Engine
	if err := defaults.Set(&e); err != nil {
		t.Fatalf("engine defaults: %v", err)
	}
	return e
}

func findDriver(t *testing.T, d models.Decomposition, name string) models.DriverContribution {
	t.Helper()
	for _, drv := range d.Drivers {
		if drv.Driver == name {
			return drv
		}
	}
	t.Fatalf("driver %q not found", name)
	return models.DriverContribution{}
}

func driverSum(d models.Decomposition) float64 {
	var sum float64
	for _, drv := range d.Drivers {
		sum += drv.Dollars
	}
	return sum
}

// Worked example: +$20k delta fully explained mechanically, so the residual
// is zero, no soft drivers appear, and coverage lands on 100.
func TestDecomposeFullyMechanical(t *testing.T) {
	eng := testEngine(t)
	in := DecomposeInput{
		Current: models.PeriodAggregate{Revenue: 120000},
		Prior:   models.PeriodAggregate{Revenue: 100000},
		ProductsCurrent: []models.ProductAggregate{
			{ProductID: "A", Revenue: 18000, Units: 180, AvgPrice: 100},
			{ProductID: "B", Revenue: 12000, Units: 200, AvgPrice: 60},
			{ProductID: "N", Revenue: 15000, Units: 10, AvgPrice: 1500},
		},
		ProductsPrior: []models.ProductAggregate{
			{ProductID: "A", Revenue: 10000, Units: 100, AvgPrice: 100},
			{ProductID: "B", Revenue: 10000, Units: 200, AvgPrice: 50},
			{ProductID: "L", Revenue: 5000, Units: 120, AvgPrice: 41.67},
		},
		TrailingUnits:    map[string]int{"L": 120},
		Ads:              models.AdsSignal{Strength: 0.5},
		NoiseP0Threshold: eng.NoiseP0Threshold,
	}
	d := Decompose(in)

	if d.RevenueDelta != 20000 {
		t.Fatalf("delta = %v, want 20000", d.RevenueDelta)
	}
	if got := findDriver(t, d, models.DriverVolume).Dollars; got != 8000 {
		t.Fatalf("volume = %v, want 8000", got)
	}
	if got := findDriver(t, d, models.DriverPrice).Dollars; got != 2000 {
		t.Fatalf("price = %v, want 2000", got)
	}
	mix := findDriver(t, d, models.DriverProductMix)
	if mix.Dollars != 10000 {
		t.Fatalf("mix = %v, want 10000", mix.Dollars)
	}
	if mix.Mix == nil || mix.Mix.NewProducts != 1 || mix.Mix.LostProducts != 1 {
		t.Fatalf("unexpected mix breakdown: %+v", mix.Mix)
	}
	// lost product had real trailing cadence, so its loss is structural
	if mix.Mix.StructuralDollars != 5000 || mix.Mix.VarianceDollars != 0 {
		t.Fatalf("unexpected split: %+v", mix.Mix)
	}
	// residual zero: no soft drivers despite nonzero ads strength
	for _, drv := range d.Drivers {
		if drv.Driver == models.DriverAds {
			t.Fatalf("unexpected ads driver with zero residual: %+v", drv)
		}
	}
	if math.Abs(driverSum(d)-d.RevenueDelta) > 0.01 {
		t.Fatalf("drivers sum %v != delta %v", driverSum(d), d.RevenueDelta)
	}
	if math.Abs(d.CoveragePct-100) > 0.05 {
		t.Fatalf("coverage = %v, want ~100", d.CoveragePct)
	}
}

// The residual is split across soft domains proportionally to evidence
// strength, and driver dollars still sum back to the delta.
func TestDecomposeResidualAllocation(t *testing.T) {
	eng := testEngine(t)
	in := DecomposeInput{
		Current: models.PeriodAggregate{Revenue: 110000},
		Prior:   models.PeriodAggregate{Revenue: 100000},
		ProductsCurrent: []models.ProductAggregate{
			{ProductID: "A", Revenue: 104000, Units: 1040, AvgPrice: 100},
		},
		ProductsPrior: []models.ProductAggregate{
			{ProductID: "A", Revenue: 100000, Units: 1000, AvgPrice: 100},
		},
		Ads:              models.AdsSignal{Strength: 0.6},
		Demand:           models.DemandSignal{Strength: 0.2},
		Funnel:           models.FunnelSignal{Strength: 0.2},
		NoiseP0Threshold: eng.NoiseP0Threshold,
	}
	d := Decompose(in)

	// mechanical: volume +4000, price 0, mix 0 -> residual 6000
	ads := findDriver(t, d, models.DriverAds)
	if ads.Dollars != 3600 {
		t.Fatalf("ads allocation = %v, want 3600", ads.Dollars)
	}
	demand := findDriver(t, d, models.DriverDemand)
	if demand.Dollars != 1200 {
		t.Fatalf("demand allocation = %v, want 1200", demand.Dollars)
	}
	if math.Abs(driverSum(d)-d.RevenueDelta) > 0.01 {
		t.Fatalf("drivers sum %v != delta %v", driverSum(d), d.RevenueDelta)
	}
	// confidence follows strength thresholds: 0.6 is not > 0.6
	if ads.Confidence != models.ConfidenceMedium {
		t.Fatalf("ads confidence = %v, want medium", ads.Confidence)
	}
	if demand.Confidence != models.ConfidenceLow {
		t.Fatalf("demand confidence = %v, want low", demand.Confidence)
	}
}

// With zero total evidence the residual folds back into product mix instead
// of being dropped.
func TestDecomposeResidualFoldsIntoMix(t *testing.T) {
	eng := testEngine(t)
	in := DecomposeInput{
		Current: models.PeriodAggregate{Revenue: 90000},
		Prior:   models.PeriodAggregate{Revenue: 100000},
		ProductsCurrent: []models.ProductAggregate{
			{ProductID: "A", Revenue: 95000, Units: 950, AvgPrice: 100},
		},
		ProductsPrior: []models.ProductAggregate{
			{ProductID: "A", Revenue: 100000, Units: 1000, AvgPrice: 100},
		},
		NoiseP0Threshold: eng.NoiseP0Threshold,
	}
	d := Decompose(in)

	// volume -5000, residual -5000 folded into mix
	mix := findDriver(t, d, models.DriverProductMix)
	if mix.Dollars != -5000 {
		t.Fatalf("mix = %v, want -5000", mix.Dollars)
	}
	if math.Abs(driverSum(d)-d.RevenueDelta) > 0.01 {
		t.Fatalf("drivers sum %v != delta %v", driverSum(d), d.RevenueDelta)
	}
}

// A noise-dominated mix driver is graded low, but promoted to medium when it
// ranks in the top two by absolute dollars.
func TestDecomposeTopTwoPromotion(t *testing.T) {
	eng := testEngine(t)
	lost := []models.ProductAggregate{
		{ProductID: "L1", Revenue: 20000, Units: 2, AvgPrice: 10000},
		{ProductID: "L2", Revenue: 18000, Units: 1, AvgPrice: 18000},
	}
	in := DecomposeInput{
		Current: models.PeriodAggregate{Revenue: 62000},
		Prior:   models.PeriodAggregate{Revenue: 100000},
		ProductsCurrent: []models.ProductAggregate{
			{ProductID: "A", Revenue: 62000, Units: 620, AvgPrice: 100},
		},
		ProductsPrior: append([]models.ProductAggregate{
			{ProductID: "A", Revenue: 62000, Units: 620, AvgPrice: 100},
		}, lost...),
		// both lost products have tiny trailing velocity -> noise
		TrailingUnits:    map[string]int{"L1": 2, "L2": 1},
		NoiseP0Threshold: eng.NoiseP0Threshold,
	}
	d := Decompose(in)

	mix := findDriver(t, d, models.DriverProductMix)
	if mix.Mix.VarianceDollars != 38000 {
		t.Fatalf("variance dollars = %v, want 38000", mix.Mix.VarianceDollars)
	}
	// variance share 100% would grade low, but mix is the top driver
	if mix.Confidence != models.ConfidenceMedium {
		t.Fatalf("mix confidence = %v, want medium after promotion", mix.Confidence)
	}
}

func TestDecomposeSharedCountConfidence(t *testing.T) {
	eng := testEngine(t)
	mk := func(n int) ([]models.ProductAggregate, []models.ProductAggregate) {
		var cur, prior []models.ProductAggregate
		for i := 0; i < n; i++ {
			id := string(rune('A' + i))
			cur = append(cur, models.ProductAggregate{ProductID: id, Revenue: 1100, Units: 11, AvgPrice: 100})
			prior = append(prior, models.ProductAggregate{ProductID: id, Revenue: 1000, Units: 10, AvgPrice: 100})
		}
		return cur, prior
	}

	for _, tc := range []struct {
		shared int
		want   string
	}{
		{1, models.ConfidenceLow},
		{2, models.ConfidenceMedium},
		{5, models.ConfidenceMedium},
		{6, models.ConfidenceHigh},
	} {
		cur, prior := mk(tc.shared)
		in := DecomposeInput{
			Current:          models.PeriodAggregate{Revenue: float64(tc.shared) * 1100},
			Prior:            models.PeriodAggregate{Revenue: float64(tc.shared) * 1000},
			ProductsCurrent:  cur,
			ProductsPrior:    prior,
			NoiseP0Threshold: eng.NoiseP0Threshold,
		}
		d := Decompose(in)
		if got := findDriver(t, d, models.DriverVolume).Confidence; got != tc.want {
			t.Fatalf("shared=%d: volume confidence = %v, want %v", tc.shared, got, tc.want)
		}
	}
}
