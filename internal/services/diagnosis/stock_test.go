package diagnosis

import (
	"testing"

	"BrandPulse/internal/domain/models"
)

func intp(v int) *int { return &v }

func TestStockFloorWithoutGates(t *testing.T) {
	eng := testEngine(t)
	// 50% OOS but every gate fails: weight stays at the floor
	inv := []models.InventoryRow{
		{SKU: "a", Quantity: intp(0), ProductStatus: "active", Published: true},
		{SKU: "b", Quantity: intp(10), ProductStatus: "active", Published: true},
	}
	s := BuildStockSignal(inv, models.StockEvidence{}, models.FunnelSignal{}, eng)
	if s.GatePassed {
		t.Fatalf("no gate should pass: %+v", s)
	}
	if s.Weight != eng.Stock.FloorWeight {
		t.Fatalf("weight = %v, want floor %v", s.Weight, eng.Stock.FloorWeight)
	}
	if deref(s.OOSRatePct) != 50 {
		t.Fatalf("oos rate = %v, want 50", deref(s.OOSRatePct))
	}
}

func TestStockGateUnpurchasable(t *testing.T) {
	eng := testEngine(t)
	inv := []models.InventoryRow{
		{SKU: "a", Quantity: intp(0), ProductStatus: "archived", Published: false},
		{SKU: "b", Quantity: intp(5), ProductStatus: "active", Published: true},
	}
	s := BuildStockSignal(inv, models.StockEvidence{}, models.FunnelSignal{}, eng)
	if !s.GatePassed || len(s.GateReasons) == 0 {
		t.Fatalf("expected gate pass with reason: %+v", s)
	}
	if s.Weight <= eng.Stock.FloorWeight || s.Weight > eng.Stock.MaxWeight {
		t.Fatalf("weight = %v, want in (floor, max]", s.Weight)
	}
}

func TestStockGateLostAdImpressions(t *testing.T) {
	eng := testEngine(t)
	inv := []models.InventoryRow{
		{SKU: "a", Quantity: intp(0), ProductStatus: "active", Published: true},
	}
	ev := models.StockEvidence{PriorAdImpressionProducts: 3, CurrentAdImpressionProducts: 0}
	s := BuildStockSignal(inv, ev, models.FunnelSignal{}, eng)
	if !s.GatePassed {
		t.Fatalf("expected ad-impression gate to pass: %+v", s)
	}
}

func TestStockGateFunnelCollapse(t *testing.T) {
	eng := testEngine(t)
	inv := []models.InventoryRow{
		{SKU: "a", Quantity: intp(0), ProductStatus: "active", Published: true},
		{SKU: "b", Quantity: intp(8), ProductStatus: "active", Published: true},
	}
	funnel := models.FunnelSignal{ViewToCartChangePP: ptr(-6)}
	s := BuildStockSignal(inv, models.StockEvidence{}, funnel, eng)
	if !s.GatePassed {
		t.Fatalf("expected funnel-collapse gate to pass: %+v", s)
	}
	// -5pp exactly is not a collapse
	s = BuildStockSignal(inv, models.StockEvidence{}, models.FunnelSignal{ViewToCartChangePP: ptr(-5)}, eng)
	if s.GatePassed {
		t.Fatalf("boundary -5pp must not pass the gate")
	}
}

func TestStockGateRefundSpike(t *testing.T) {
	eng := testEngine(t)
	inv := []models.InventoryRow{
		{SKU: "a", Quantity: intp(0), ProductStatus: "active", Published: true},
	}
	ev := models.StockEvidence{RefundsCurrent: 16, RefundsPrior: 10}
	s := BuildStockSignal(inv, ev, models.FunnelSignal{}, eng)
	if !s.GatePassed {
		t.Fatalf("expected refund-spike gate to pass: %+v", s)
	}
	// +50% exactly is not a spike
	s = BuildStockSignal(inv, models.StockEvidence{RefundsCurrent: 15, RefundsPrior: 10}, models.FunnelSignal{}, eng)
	if s.GatePassed {
		t.Fatalf("boundary +50%% must not pass the gate")
	}
}

func TestStockWeightBounds(t *testing.T) {
	eng := testEngine(t)
	// all SKUs OOS and unpurchasable: weight capped at max
	var inv []models.InventoryRow
	for i := 0; i < 10; i++ {
		inv = append(inv, models.InventoryRow{SKU: "s", Quantity: intp(0), ProductStatus: "archived"})
	}
	s := BuildStockSignal(inv, models.StockEvidence{}, models.FunnelSignal{}, eng)
	if s.Weight != eng.Stock.MaxWeight {
		t.Fatalf("weight = %v, want max %v", s.Weight, eng.Stock.MaxWeight)
	}
}

func TestStockLowStockCount(t *testing.T) {
	eng := testEngine(t)
	inv := []models.InventoryRow{
		{SKU: "a", Quantity: intp(2), ProductStatus: "active", Published: true},
		{SKU: "b", Quantity: intp(3), ProductStatus: "active", Published: true},
		{SKU: "c", Quantity: intp(4), ProductStatus: "active", Published: true},
	}
	s := BuildStockSignal(inv, models.StockEvidence{}, models.FunnelSignal{}, eng)
	if s.LowStockCount != 2 {
		t.Fatalf("low stock count = %v, want 2", s.LowStockCount)
	}
}

func TestEmptyStockSignalKeepsFloor(t *testing.T) {
	s := models.EmptyStockSignal()
	if s.Weight != 0.01 {
		t.Fatalf("empty stock weight = %v, want 0.01", s.Weight)
	}
}
