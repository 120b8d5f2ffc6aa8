package diagnosis

import (
	"fmt"
	"math"

	"BrandPulse/internal/domain/models"
	"BrandPulse/pkg/config"
)

// BuildStockSignal evaluates the inventory-shortage explanation. Stock is
// never a default cause: without an independent corroborating gate the signal
// keeps the floor weight and stays out of top-reason eligibility no matter
// how high the out-of-stock rate is.
func BuildStockSignal(
	inv []models.InventoryRow,
	ev models.StockEvidence,
	funnel models.FunnelSignal,
	cfg config.Engine,
) models.StockSignal {
	s := models.StockSignal{TotalSKUs: len(inv), Weight: cfg.Stock.FloorWeight}

	var unpurchasable int
	for _, row := range inv {
		if row.Quantity == nil {
			continue
		}
		switch {
		case *row.Quantity <= 0:
			s.OOSCount++
			if row.ProductStatus != "active" || !row.Published {
				unpurchasable++
			}
		case *row.Quantity <= cfg.Stock.LowStockUnits:
			s.LowStockCount++
		}
	}
	if s.TotalSKUs > 0 {
		s.OOSRatePct = ptr(round2(float64(s.OOSCount) / float64(s.TotalSKUs) * 100))
	}

	// Gate 1: OOS SKUs are not purchasable at all.
	if unpurchasable > 0 {
		s.GateReasons = append(s.GateReasons,
			fmt.Sprintf("%d out-of-stock products are inactive or unpublished", unpurchasable))
	}
	// Gate 2: previously advertised OOS products lost all ad impressions.
	if s.OOSCount > 0 && ev.PriorAdImpressionProducts > 0 && ev.CurrentAdImpressionProducts == 0 {
		s.GateReasons = append(s.GateReasons,
			fmt.Sprintf("%d previously advertised out-of-stock products have no current ad impressions", ev.PriorAdImpressionProducts))
	}
	// Gate 3: add-to-cart rate collapsed.
	if v2c := funnel.ViewToCartChangePP; v2c != nil && *v2c < -cfg.Stock.AddToCartCollapsePP {
		s.GateReasons = append(s.GateReasons,
			fmt.Sprintf("add-to-cart rate collapsed %.1f pp YoY", math.Abs(*v2c)))
	}
	// Gate 4: refunds on OOS products spiked YoY.
	if s.OOSCount > 0 && ev.RefundsPrior > 0 {
		spike := float64(ev.RefundsCurrent-ev.RefundsPrior) / float64(ev.RefundsPrior) * 100
		if spike > cfg.Stock.RefundSpikePct {
			s.GateReasons = append(s.GateReasons,
				fmt.Sprintf("refunds on out-of-stock products spiked %.0f%% YoY", spike))
		}
	}

	if len(s.GateReasons) > 0 {
		s.GatePassed = true
		s.Weight = math.Max(cfg.Stock.FloorWeight,
			math.Min(cfg.Stock.MaxWeight, deref(s.OOSRatePct)/100))
	}
	return s
}
