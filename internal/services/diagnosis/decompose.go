package diagnosis

import (
	"math"
	"sort"

	"BrandPulse/internal/domain/models"
)

// DecomposeInput carries everything the decomposition needs, already fetched
// and already shaped by the per-domain signal builders.
type DecomposeInput struct {
	Current         models.PeriodAggregate
	Prior           models.PeriodAggregate
	ProductsCurrent []models.ProductAggregate
	ProductsPrior   []models.ProductAggregate
	// Trailing-12-month unit sales per product id, for lost-product classification.
	TrailingUnits    map[string]int
	Ads              models.AdsSignal
	Demand           models.DemandSignal
	Funnel           models.FunnelSignal
	Fulfillment      models.FulfillmentSignal
	NoiseP0Threshold float64
}

// Decompose attributes the YoY revenue delta to additive drivers. Mechanical
// effects (volume, price, product mix) are computed from the product overlap;
// whatever they cannot explain is allocated across the soft domains
// proportionally to their evidence strength, so the driver dollars always sum
// back to the delta.
func Decompose(in DecomposeInput) models.Decomposition {
	delta := in.Current.Revenue - in.Prior.Revenue

	curByID := indexProducts(in.ProductsCurrent)
	priorByID := indexProducts(in.ProductsPrior)

	var volumeEffect, priceEffect float64
	var sharedCount int
	for id, cur := range curByID {
		prior, ok := priorByID[id]
		if !ok {
			continue
		}
		sharedCount++
		volumeEffect += float64(cur.Units-prior.Units) * prior.AvgPrice
		priceEffect += (cur.AvgPrice - prior.AvgPrice) * float64(prior.Units)
	}

	var newRevenue float64
	var newCount int
	for id, cur := range curByID {
		if _, ok := priorByID[id]; !ok {
			newRevenue += cur.Revenue
			newCount++
		}
	}
	var lost []models.ProductAggregate
	var lostRevenue float64
	for id, prior := range priorByID {
		if _, ok := curByID[id]; !ok {
			lost = append(lost, prior)
			lostRevenue += prior.Revenue
		}
	}

	split := ClassifyLostProducts(lost, in.TrailingUnits, in.NoiseP0Threshold)
	mixEffect := newRevenue - lostRevenue
	residual := delta - (volumeEffect + priceEffect + mixEffect)

	strengths := []struct {
		name     string
		strength float64
	}{
		{models.DriverAds, in.Ads.Strength},
		{models.DriverDemand, in.Demand.Strength},
		{models.DriverConversion, in.Funnel.Strength},
		{models.DriverFulfillment, in.Fulfillment.Strength},
	}
	var totalStrength float64
	for _, s := range strengths {
		totalStrength += s.strength
	}
	if totalStrength == 0 {
		// nothing to pin the residual on; fold it back into product mix
		mixEffect += residual
		residual = 0
	}

	pctOf := func(dollars float64) float64 {
		return round2(dollars / math.Max(math.Abs(delta), 1) * 100)
	}
	direction := func(dollars float64) string {
		if dollars < 0 {
			return models.DirectionNegative
		}
		return models.DirectionPositive
	}

	sharedConf := models.ConfidenceLow
	switch {
	case sharedCount > 5:
		sharedConf = models.ConfidenceHigh
	case sharedCount >= 2:
		sharedConf = models.ConfidenceMedium
	}

	drivers := []models.DriverContribution{
		{
			Driver:      models.DriverVolume,
			Dollars:     round2(volumeEffect),
			PctOfChange: pctOf(volumeEffect),
			Direction:   direction(volumeEffect),
			Confidence:  sharedConf,
			Explanation: volumeExplanation(volumeEffect, sharedCount),
		},
		{
			Driver:      models.DriverPrice,
			Dollars:     round2(priceEffect),
			PctOfChange: pctOf(priceEffect),
			Direction:   direction(priceEffect),
			Confidence:  sharedConf,
			Explanation: priceExplanation(priceEffect, sharedCount),
		},
		{
			Driver:      models.DriverProductMix,
			Dollars:     round2(mixEffect),
			PctOfChange: pctOf(mixEffect),
			Direction:   direction(mixEffect),
			Confidence:  MixConfidence(split, mixEffect),
			Explanation: mixExplanation(newCount, len(lost), newRevenue, lostRevenue),
			Mix: &models.MixBreakdown{
				NewProducts:        newCount,
				LostProducts:       len(lost),
				StructuralDollars:  round2(split.StructuralDollars),
				VarianceDollars:    round2(split.VarianceDollars),
				StructuralProducts: split.StructuralProducts,
				VarianceProducts:   split.VarianceProducts,
			},
		},
	}

	if totalStrength > 0 {
		for _, s := range strengths {
			dollars := residual * s.strength / totalStrength
			if math.Abs(dollars) < 0.005 {
				continue
			}
			drivers = append(drivers, models.DriverContribution{
				Driver:      s.name,
				Dollars:     round2(dollars),
				PctOfChange: pctOf(dollars),
				Direction:   direction(dollars),
				Confidence:  StrengthConfidence(s.strength),
				Explanation: softExplanation(s.name, in),
			})
		}
	}

	sort.SliceStable(drivers, func(i, j int) bool {
		return math.Abs(drivers[i].Dollars) > math.Abs(drivers[j].Dollars)
	})

	// A dominant dollar driver should not read as unreliable just because its
	// underlying SKUs are individually low-volume.
	for i := 0; i < len(drivers) && i < 2; i++ {
		if drivers[i].Driver == models.DriverProductMix && drivers[i].Confidence == models.ConfidenceLow {
			drivers[i].Confidence = models.ConfidenceMedium
		}
	}

	var coverage float64
	for _, d := range drivers {
		coverage += d.PctOfChange
	}

	return models.Decomposition{
		RevenueCurrent:  in.Current.Revenue,
		RevenuePrior:    in.Prior.Revenue,
		RevenueDelta:    round2(delta),
		RevenueDeltaPct: PctChange(in.Current.Revenue, in.Prior.Revenue),
		Drivers:         drivers,
		CoveragePct:     round2(coverage),
	}
}

func indexProducts(products []models.ProductAggregate) map[string]models.ProductAggregate {
	m := make(map[string]models.ProductAggregate, len(products))
	for _, p := range products {
		m[p.ProductID] = p
	}
	return m
}
