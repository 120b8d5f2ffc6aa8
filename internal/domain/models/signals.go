package models

// Diagnostic signals, one struct per domain. Every domain has an Empty*
// constructor documenting its no-data shape: nil pointers for ratios whose
// denominator was absent, zero counters, zero evidence strength. Composition
// downstream never has to branch on "domain missing".

type PricingSignal struct {
	TrackedSKUs       int      `json:"tracked_skus"`
	LosingMoneyCount  int      `json:"losing_money_count"`
	BelowMinimumCount int      `json:"below_minimum_count"`
	AvgMarginPct      *float64 `json:"avg_margin_pct"`
	// Avg current price vs lowest competitor, 100 = parity.
	AvgPriceIndex *float64 `json:"avg_price_index"`
}

type AdsSignal struct {
	SpendCurrent       float64    `json:"spend_current"`
	SpendPrior         float64    `json:"spend_prior"`
	SpendChangePct     *float64   `json:"spend_change_pct"`
	ROASCurrent        float64    `json:"roas_current"`
	ROASPrior          float64    `json:"roas_prior"`
	ROASChangePct      *float64   `json:"roas_change_pct"`
	Impressions        int64      `json:"impressions"`
	ImpressionSharePct *float64   `json:"impression_share_pct"`
	BudgetLostSharePct *float64   `json:"budget_lost_share_pct"`
	RankLostSharePct   *float64   `json:"rank_lost_share_pct"`
	Campaigns          []Campaign `json:"campaigns"`
	Strength           float64    `json:"strength"`
}

type DemandSignal struct {
	ClicksCurrent      int64    `json:"clicks_current"`
	ClicksPrior        int64    `json:"clicks_prior"`
	ClicksChangePct    *float64 `json:"clicks_change_pct"`
	ImpressionsCurrent int64    `json:"impressions_current"`
	ImpressionsPrior   int64    `json:"impressions_prior"`
	Strength           float64  `json:"strength"`
}

type FunnelSignal struct {
	ViewsCurrent            int64    `json:"views_current"`
	ViewsPrior              int64    `json:"views_prior"`
	AddToCartCurrent        int64    `json:"add_to_cart_current"`
	AddToCartPrior          int64    `json:"add_to_cart_prior"`
	PurchasesCurrent        int64    `json:"purchases_current"`
	PurchasesPrior          int64    `json:"purchases_prior"`
	ViewToCartCurrentPct    *float64 `json:"view_to_cart_current_pct"`
	ViewToCartPriorPct      *float64 `json:"view_to_cart_prior_pct"`
	ViewToCartChangePP      *float64 `json:"view_to_cart_change_pp"`
	CartToPurchaseCurrentPct *float64 `json:"cart_to_purchase_current_pct"`
	CartToPurchasePriorPct  *float64 `json:"cart_to_purchase_prior_pct"`
	CartToPurchaseChangePP  *float64 `json:"cart_to_purchase_change_pp"`
	Strength                float64  `json:"strength"`
}

type FulfillmentSignal struct {
	RefundRateCurrentPct       *float64 `json:"refund_rate_current_pct"`
	RefundRatePriorPct         *float64 `json:"refund_rate_prior_pct"`
	RefundRateChangePP         *float64 `json:"refund_rate_change_pp"`
	CancellationRateCurrentPct *float64 `json:"cancellation_rate_current_pct"`
	CancellationRatePriorPct   *float64 `json:"cancellation_rate_prior_pct"`
	CancellationRateChangePP   *float64 `json:"cancellation_rate_change_pp"`
	RefundCountCurrent         int      `json:"refund_count_current"`
	RefundCountPrior           int      `json:"refund_count_prior"`
	Strength                   float64  `json:"strength"`
}

type StockSignal struct {
	TotalSKUs     int      `json:"total_skus"`
	OOSCount      int      `json:"oos_count"`
	LowStockCount int      `json:"low_stock_count"`
	OOSRatePct    *float64 `json:"oos_rate_pct"`
	GatePassed    bool     `json:"gate_passed"`
	GateReasons   []string `json:"gate_reasons"`
	Weight        float64  `json:"weight"`
}

func EmptyPricingSignal() PricingSignal { return PricingSignal{} }

func EmptyAdsSignal() AdsSignal { return AdsSignal{} }

func EmptyDemandSignal() DemandSignal { return DemandSignal{} }

func EmptyFunnelSignal() FunnelSignal { return FunnelSignal{} }

func EmptyFulfillmentSignal() FulfillmentSignal { return FulfillmentSignal{} }

// EmptyStockSignal keeps the floor weight so stock is never a default cause.
func EmptyStockSignal() StockSignal { return StockSignal{Weight: 0.01} }
