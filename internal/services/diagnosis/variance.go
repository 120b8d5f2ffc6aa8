package diagnosis

import (
	"math"

	"BrandPulse/internal/domain/models"
)

// LostSplit is the structural vs statistical-noise split of lost-product revenue.
type LostSplit struct {
	StructuralDollars  float64
	VarianceDollars    float64
	StructuralProducts int
	VarianceProducts   int
}

// ZeroSalesProbability returns the Poisson probability of zero sales in a
// 30-day window given trailing-12-month unit volume. Zero trailing volume
// means a quiet month is certain, so P0 is 1.
func ZeroSalesProbability(unitsTrailing12m int) float64 {
	if unitsTrailing12m <= 0 {
		return 1
	}
	lambda := float64(unitsTrailing12m) / 12
	return math.Exp(-lambda)
}

// ClassifyLostProducts splits the products present only in the prior period
// into structurally lost vs statistical noise. A product whose trailing
// velocity makes a zero-sales month unsurprising (P0 above the threshold) is
// noise; a product with a real trailing cadence that went silent is
// structural.
func ClassifyLostProducts(lost []models.ProductAggregate, trailingUnits map[string]int, p0Threshold float64) LostSplit {
	var out LostSplit
	for _, p := range lost {
		p0 := ZeroSalesProbability(trailingUnits[p.ProductID])
		if p0 > p0Threshold {
			out.VarianceDollars += p.Revenue
			out.VarianceProducts++
		} else {
			out.StructuralDollars += p.Revenue
			out.StructuralProducts++
		}
	}
	return out
}

// MixConfidence grades the product-mix driver by how much of its dollar value
// is statistical noise rather than structural change.
func MixConfidence(split LostSplit, mixEffect float64) string {
	abs := math.Abs(mixEffect)
	if abs == 0 {
		return models.ConfidenceHigh
	}
	ratio := math.Abs(split.VarianceDollars) / abs
	switch {
	case ratio > 0.6:
		return models.ConfidenceLow
	case ratio > 0.3:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceHigh
	}
}
