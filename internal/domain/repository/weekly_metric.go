package repository

// WeeklyMetric names a weekly time series tracked per brand.
type WeeklyMetric string

const (
	MetricRevenue      WeeklyMetric = "revenue"
	MetricAdsROAS      WeeklyMetric = "ads_roas"
	MetricSearchClicks WeeklyMetric = "search_clicks"
)

// IsValidWeeklyMetric returns true if m is a supported weekly metric.
func IsValidWeeklyMetric(m WeeklyMetric) bool {
	switch m {
	case MetricRevenue, MetricAdsROAS, MetricSearchClicks:
		return true
	default:
		return false
	}
}

// AllWeeklyMetrics lists every tracked series, in reporting order.
func AllWeeklyMetrics() []WeeklyMetric {
	return []WeeklyMetric{MetricRevenue, MetricAdsROAS, MetricSearchClicks}
}
