package diagnosis

import (
	"fmt"
	"math"

	"BrandPulse/internal/domain/models"
)

// Human-readable one-liners attached to each driver. Downstream consumers
// render these verbatim, so keep them short and concrete.

func gainedOrLost(dollars float64) string {
	if dollars < 0 {
		return "removed"
	}
	return "added"
}

func volumeExplanation(dollars float64, shared int) string {
	return fmt.Sprintf("Unit volume on %d continuing products %s $%.0f",
		shared, gainedOrLost(dollars), math.Abs(dollars))
}

func priceExplanation(dollars float64, shared int) string {
	return fmt.Sprintf("Selling-price changes on %d continuing products %s $%.0f",
		shared, gainedOrLost(dollars), math.Abs(dollars))
}

func mixExplanation(newCount, lostCount int, newRevenue, lostRevenue float64) string {
	return fmt.Sprintf("%d new products added $%.0f while %d discontinued products removed $%.0f",
		newCount, newRevenue, lostCount, lostRevenue)
}

func softExplanation(driver string, in DecomposeInput) string {
	switch driver {
	case models.DriverAds:
		return fmt.Sprintf("Ad spend moved %.1f%% and ROAS moved %.1f%% YoY",
			deref(in.Ads.SpendChangePct), deref(in.Ads.ROASChangePct))
	case models.DriverDemand:
		return fmt.Sprintf("Branded search clicks moved %.1f%% YoY (%d vs %d)",
			deref(in.Demand.ClicksChangePct), in.Demand.ClicksCurrent, in.Demand.ClicksPrior)
	case models.DriverConversion:
		return fmt.Sprintf("View-to-cart moved %.1f pp and cart-to-purchase moved %.1f pp YoY",
			deref(in.Funnel.ViewToCartChangePP), deref(in.Funnel.CartToPurchaseChangePP))
	case models.DriverFulfillment:
		return fmt.Sprintf("Refund rate moved %.1f pp and cancellation rate moved %.1f pp YoY",
			deref(in.Fulfillment.RefundRateChangePP), deref(in.Fulfillment.CancellationRateChangePP))
	default:
		return ""
	}
}
