package diagnosis

import (
	"math"

	"BrandPulse/internal/domain/models"
)

// Evidence strength estimators map each domain's YoY deltas to a [0,1] weight.
// The weights drive residual allocation in the decomposition and the
// confidence label on the resulting driver.

// StrengthConfidence maps an evidence strength to a confidence label.
func StrengthConfidence(strength float64) string {
	switch {
	case strength > 0.6:
		return models.ConfidenceHigh
	case strength > 0.2:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// BuildPricingSignal summarizes the latest pricing snapshot.
func BuildPricingSignal(rows []models.PricingRow) models.PricingSignal {
	s := models.PricingSignal{TrackedSKUs: len(rows)}
	var marginSum float64
	var marginN int
	var indexSum float64
	var indexN int
	for _, r := range rows {
		if r.LosingMoney {
			s.LosingMoneyCount++
		}
		if r.BelowMinimum {
			s.BelowMinimumCount++
		}
		if r.MarginPct != nil {
			marginSum += *r.MarginPct
			marginN++
		}
		if r.LowestCompetitorPrice != nil && *r.LowestCompetitorPrice > 0 {
			indexSum += r.CurrentPrice / *r.LowestCompetitorPrice * 100
			indexN++
		}
	}
	if marginN > 0 {
		s.AvgMarginPct = ptr(round2(marginSum / float64(marginN)))
	}
	if indexN > 0 {
		s.AvgPriceIndex = ptr(round2(indexSum / float64(indexN)))
	}
	return s
}

// BuildAdsSignal compares the brand-matched campaign rollups of two windows.
func BuildAdsSignal(cur, prior models.CampaignMetrics) models.AdsSignal {
	s := models.AdsSignal{
		SpendCurrent:       cur.Spend,
		SpendPrior:         prior.Spend,
		SpendChangePct:     PctChange(cur.Spend, prior.Spend),
		ROASCurrent:        cur.ROAS,
		ROASPrior:          prior.ROAS,
		ROASChangePct:      PctChange(cur.ROAS, prior.ROAS),
		Impressions:        cur.Impressions,
		ImpressionSharePct: cur.ImpressionShare,
		BudgetLostSharePct: cur.BudgetLostShare,
		RankLostSharePct:   cur.RankLostShare,
		Campaigns:          cur.Campaigns,
	}
	s.Strength = AdsStrength(s)
	return s
}

// AdsStrength weighs spend movement and ROAS movement equally, with a bonus
// when impression share is being lost to budget or rank.
func AdsStrength(s models.AdsSignal) float64 {
	if s.SpendCurrent == 0 && s.SpendPrior == 0 {
		return 0
	}
	spendMove := math.Abs(deref(s.SpendChangePct))
	if s.SpendPrior == 0 {
		// spend appeared from nothing; maximal movement
		spendMove = 100
	}
	roasMove := math.Abs(deref(s.ROASChangePct))
	strength := 0.4*math.Min(spendMove, 50)/50 + 0.4*math.Min(roasMove, 50)/50
	strength = math.Min(1, strength)
	if deref(s.BudgetLostSharePct) > 10 || deref(s.RankLostSharePct) > 10 {
		strength = math.Min(1, strength+0.2)
	}
	return strength
}

// BuildDemandSignal compares search demand between two windows.
func BuildDemandSignal(cur, prior models.SearchDemand) models.DemandSignal {
	s := models.DemandSignal{
		ClicksCurrent:      cur.Clicks,
		ClicksPrior:        prior.Clicks,
		ClicksChangePct:    PctChange(float64(cur.Clicks), float64(prior.Clicks)),
		ImpressionsCurrent: cur.Impressions,
		ImpressionsPrior:   prior.Impressions,
	}
	s.Strength = DemandStrength(s)
	return s
}

func DemandStrength(s models.DemandSignal) float64 {
	if s.ClicksCurrent == 0 && s.ClicksPrior == 0 {
		return 0
	}
	move := math.Abs(deref(s.ClicksChangePct))
	if s.ClicksPrior == 0 {
		move = 100
	}
	return math.Min(1, move/40)
}

// BuildFunnelSignal compares conversion funnels between two windows.
func BuildFunnelSignal(cur, prior models.FunnelTotals) models.FunnelSignal {
	s := models.FunnelSignal{
		ViewsCurrent:             cur.Views,
		ViewsPrior:               prior.Views,
		AddToCartCurrent:         cur.AddToCart,
		AddToCartPrior:           prior.AddToCart,
		PurchasesCurrent:         cur.Purchases,
		PurchasesPrior:           prior.Purchases,
		ViewToCartCurrentPct:     RatePct(cur.AddToCart, cur.Views),
		ViewToCartPriorPct:       RatePct(prior.AddToCart, prior.Views),
		CartToPurchaseCurrentPct: RatePct(cur.Purchases, cur.AddToCart),
		CartToPurchasePriorPct:   RatePct(prior.Purchases, prior.AddToCart),
	}
	s.ViewToCartChangePP = DiffPP(s.ViewToCartCurrentPct, s.ViewToCartPriorPct)
	s.CartToPurchaseChangePP = DiffPP(s.CartToPurchaseCurrentPct, s.CartToPurchasePriorPct)
	s.Strength = ConversionStrength(s)
	return s
}

func ConversionStrength(s models.FunnelSignal) float64 {
	if s.ViewsCurrent <= 100 {
		return 0
	}
	v2c := math.Abs(deref(s.ViewToCartChangePP))
	c2p := math.Abs(deref(s.CartToPurchaseChangePP))
	return math.Min(1, 0.5*math.Min(v2c, 5)/5+0.5*math.Min(c2p, 3)/3)
}

// BuildFulfillmentSignal compares refund/cancellation behavior between two windows.
func BuildFulfillmentSignal(cur, prior models.FulfillmentTotals) models.FulfillmentSignal {
	s := models.FulfillmentSignal{
		RefundRateCurrentPct:       cur.RefundRatePct,
		RefundRatePriorPct:         prior.RefundRatePct,
		RefundRateChangePP:         DiffPP(cur.RefundRatePct, prior.RefundRatePct),
		CancellationRateCurrentPct: cur.CancellationRatePct,
		CancellationRatePriorPct:   prior.CancellationRatePct,
		CancellationRateChangePP:   DiffPP(cur.CancellationRatePct, prior.CancellationRatePct),
		RefundCountCurrent:         cur.RefundCount,
		RefundCountPrior:           prior.RefundCount,
	}
	s.Strength = FulfillmentStrength(s)
	return s
}

func FulfillmentStrength(s models.FulfillmentSignal) float64 {
	refund := math.Abs(deref(s.RefundRateChangePP))
	cancel := math.Abs(deref(s.CancellationRateChangePP))
	return math.Min(1, 0.6*math.Min(refund, 5)/5+0.4*math.Min(cancel, 3)/3)
}
