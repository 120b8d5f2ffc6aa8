package repository

import (
	"context"
	"time"

	"BrandPulse/internal/domain/models"
)

// MetricsAggregator provides read-only access to materialized period
// aggregates. All blocking I/O for a diagnosis happens behind this interface;
// the engine itself stays pure.
type MetricsAggregator interface {
	BrandTotals(ctx context.Context, brand string, w models.Window) (models.PeriodAggregate, error)
	ProductBreakdown(ctx context.Context, brand string, w models.Window) ([]models.ProductAggregate, error)
	PricingSnapshot(ctx context.Context, brand string) ([]models.PricingRow, error)
	AdsCampaignMetrics(ctx context.Context, brand string, w models.Window) (models.CampaignMetrics, error)
	SearchDemand(ctx context.Context, brand string, w models.Window) (models.SearchDemand, error)
	FunnelMetrics(ctx context.Context, brand string, w models.Window) (models.FunnelTotals, error)
	FulfillmentMetrics(ctx context.Context, brand string, w models.Window) (models.FulfillmentTotals, error)
	InventorySnapshot(ctx context.Context, brand string) ([]models.InventoryRow, error)
	WeeklySeries(ctx context.Context, brand string, metric WeeklyMetric, numWeeks int) ([]models.WeeklyPoint, error)
	// TrailingUnits returns 12-month unit sales per product ending at end.
	TrailingUnits(ctx context.Context, brand string, productIDs []string, end time.Time) (map[string]int, error)
	// StockEvidence gathers gate corroboration for out-of-stock products.
	StockEvidence(ctx context.Context, brand string, oosProductIDs []string, cur, prior models.Window) (models.StockEvidence, error)
}
