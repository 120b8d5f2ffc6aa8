package models

import "time"

// Driver names used across decomposition and the decision contract.
const (
	DriverVolume      = "volume"
	DriverPrice       = "price"
	DriverProductMix  = "product_mix"
	DriverMargin      = "margin"
	DriverAds         = "ads"
	DriverDemand      = "demand"
	DriverConversion  = "conversion"
	DriverFulfillment = "fulfillment"
)

// Confidence labels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Direction labels.
const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
)

type DriverContribution struct {
	Driver      string        `json:"driver"`
	Dollars     float64       `json:"dollars"`
	PctOfChange float64       `json:"pct_of_change"`
	Direction   string        `json:"direction"`
	Confidence  string        `json:"confidence"`
	Explanation string        `json:"explanation,omitempty"`
	Mix         *MixBreakdown `json:"mix,omitempty"`
}

// MixBreakdown splits the product-mix driver into its structural and
// statistical-noise parts.
type MixBreakdown struct {
	NewProducts        int     `json:"new_products"`
	LostProducts       int     `json:"lost_products"`
	StructuralDollars  float64 `json:"structural_dollars"`
	VarianceDollars    float64 `json:"variance_dollars"`
	StructuralProducts int     `json:"structural_products"`
	VarianceProducts   int     `json:"variance_products"`
}

type Decomposition struct {
	RevenueCurrent  float64              `json:"revenue_current"`
	RevenuePrior    float64              `json:"revenue_prior"`
	RevenueDelta    float64              `json:"revenue_delta"`
	RevenueDeltaPct *float64             `json:"revenue_delta_pct"`
	Drivers         []DriverContribution `json:"drivers"`
	CoveragePct     float64              `json:"decomposition_coverage_pct"`
}

type Anomaly struct {
	Signal      string   `json:"signal"`
	Value       float64  `json:"value"`
	Threshold   *float64 `json:"threshold"`
	Description string   `json:"description"`
}

// Weekly trend labels produced by the classifier.
const (
	TrendAcceleratingDecline = "accelerating_decline"
	TrendDeclining           = "declining"
	TrendStabilizing         = "stabilizing"
	TrendRecovering          = "recovering"
	TrendAcceleratingGrowth  = "accelerating_growth"
	TrendFlat                = "flat"
	TrendMixed               = "mixed"
	TrendInsufficientData    = "insufficient_data"
)

type WeeklyTrendSeries struct {
	Metric string        `json:"metric"`
	Points []WeeklyPoint `json:"points"`
	Label  string        `json:"label"`
}

type MomentumScore struct {
	Score      float64            `json:"score"`
	Label      string             `json:"label"`
	Components map[string]float64 `json:"components"`
}

// Diagnosis is the full analysis for one (brand, period) invocation.
type Diagnosis struct {
	Brand         string                       `json:"brand"`
	Period        string                       `json:"period"`
	PeriodDays    int                          `json:"period_days"`
	Current       PeriodAggregate              `json:"current"`
	Prior         PeriodAggregate              `json:"prior"`
	Decomposition Decomposition                `json:"decomposition"`
	Pricing       PricingSignal                `json:"pricing"`
	Ads           AdsSignal                    `json:"ads"`
	Demand        DemandSignal                 `json:"demand"`
	Funnel        FunnelSignal                 `json:"funnel"`
	Fulfillment   FulfillmentSignal            `json:"fulfillment"`
	Stock         StockSignal                  `json:"stock"`
	Anomalies     []Anomaly                    `json:"anomalies"`
	WeeklyTrends  map[string]WeeklyTrendSeries `json:"weekly_trends"`
	Momentum      MomentumScore                `json:"momentum"`
	GeneratedAt   time.Time                    `json:"generated_at"`
}
