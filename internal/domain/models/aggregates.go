package models

import "time"

// Window is a half-open [Start, End) date interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// PeriodAggregate is one brand's commerce totals over a window. Two instances
// feed every analysis: the current window and the same window one year back.
type PeriodAggregate struct {
	Revenue         float64  `json:"revenue"`
	Units           int      `json:"units"`
	Orders          int      `json:"orders"`
	COGS            float64  `json:"cogs"`
	GrossMarginPct  *float64 `json:"gross_margin_pct"`
	CostCoveragePct float64  `json:"cost_coverage_pct"`
}

// ProductAggregate is one product's totals within a window.
type ProductAggregate struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	SKU       string  `json:"sku"`
	Revenue   float64 `json:"revenue"`
	Units     int     `json:"units"`
	AvgPrice  float64 `json:"avg_price"`
}

// PricingRow is one SKU's latest pricing position.
type PricingRow struct {
	SKU                   string   `json:"sku"`
	CurrentPrice          float64  `json:"current_price"`
	MinimumPrice          *float64 `json:"minimum_price"`
	RRP                   *float64 `json:"rrp"`
	LowestCompetitorPrice *float64 `json:"lowest_competitor_price"`
	MarginPct             *float64 `json:"margin_pct"`
	LosingMoney           bool     `json:"losing_money"`
	BelowMinimum          bool     `json:"below_minimum"`
}

type Campaign struct {
	Name         string    `json:"name"`
	Spend        float64   `json:"spend"`
	ROAS         float64   `json:"roas"`
	Status       string    `json:"status"`
	LastActivity time.Time `json:"last_activity"`
}

// CampaignMetrics is the brand-matched ads rollup for one window.
type CampaignMetrics struct {
	Spend           float64    `json:"spend"`
	Revenue         float64    `json:"revenue"`
	ROAS            float64    `json:"roas"`
	Impressions     int64      `json:"impressions"`
	ImpressionShare *float64   `json:"impression_share"`
	BudgetLostShare *float64   `json:"budget_lost_share"`
	RankLostShare   *float64   `json:"rank_lost_share"`
	Campaigns       []Campaign `json:"campaigns"`
}

type SearchDemand struct {
	Clicks      int64 `json:"clicks"`
	Impressions int64 `json:"impressions"`
}

type FunnelTotals struct {
	Views     int64 `json:"views"`
	AddToCart int64 `json:"add_to_cart"`
	Purchases int64 `json:"purchases"`
}

type FulfillmentTotals struct {
	RefundRatePct       *float64 `json:"refund_rate_pct"`
	CancellationRatePct *float64 `json:"cancellation_rate_pct"`
	RefundCount         int      `json:"refund_count"`
}

// InventoryRow is one SKU's stock position at snapshot time.
type InventoryRow struct {
	SKU           string `json:"sku"`
	ProductID     string `json:"product_id"`
	Quantity      *int   `json:"quantity"`
	ProductStatus string `json:"product_status"`
	Published     bool   `json:"published"`
}

// StockEvidence carries the corroborating observations the stock gates need
// beyond the inventory snapshot itself.
type StockEvidence struct {
	// Out-of-stock products that had ad impressions in each window.
	PriorAdImpressionProducts   int `json:"prior_ad_impression_products"`
	CurrentAdImpressionProducts int `json:"current_ad_impression_products"`
	// Refund counts scoped to out-of-stock products.
	RefundsCurrent int `json:"refunds_current"`
	RefundsPrior   int `json:"refunds_prior"`
}

type WeeklyPoint struct {
	WeekStart time.Time `json:"week_start"`
	Value     float64   `json:"value"`
}
