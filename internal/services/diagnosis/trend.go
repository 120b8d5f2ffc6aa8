package diagnosis

import (
	"math"

	"BrandPulse/internal/domain/models"
	"BrandPulse/internal/domain/repository"
	"BrandPulse/pkg/config"
)

// ClassifyWeekly labels an ordered weekly series (oldest first) by the shape
// of its last four week-over-week changes.
func ClassifyWeekly(values []float64, cfg config.Engine) string {
	if len(values) < 4 {
		return models.TrendInsufficientData
	}
	step := cfg.Trend.StepThreshold

	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev <= 0 {
			changes = append(changes, 0)
			continue
		}
		changes = append(changes, (values[i]-prev)/prev)
	}

	start := len(changes) - 4
	if start < 0 {
		start = 0
	}
	recent := changes[start:]
	earlier := changes[:start]

	var negCount, posCount int
	var sum float64
	for _, c := range recent {
		if c < -step {
			negCount++
		}
		if c > step {
			posCount++
		}
		sum += c
	}

	switch {
	case negCount >= 3:
		last := recent[len(recent)-1]
		prev := recent[len(recent)-2]
		if last < prev {
			return models.TrendAcceleratingDecline
		}
		return models.TrendDeclining
	case posCount >= 3:
		for _, c := range earlier {
			if c < -step {
				return models.TrendRecovering
			}
		}
		return models.TrendAcceleratingGrowth
	case negCount >= 2 && posCount >= 1:
		return models.TrendStabilizing
	case math.Abs(sum) < cfg.Trend.FlatSumThreshold:
		return models.TrendFlat
	default:
		return models.TrendMixed
	}
}

// ClassifySeries wraps ClassifyWeekly for a named metric series.
func ClassifySeries(metric repository.WeeklyMetric, points []models.WeeklyPoint, cfg config.Engine) models.WeeklyTrendSeries {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return models.WeeklyTrendSeries{
		Metric: string(metric),
		Points: points,
		Label:  ClassifyWeekly(values, cfg),
	}
}
