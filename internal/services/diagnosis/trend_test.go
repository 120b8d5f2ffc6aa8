package diagnosis

import (
	"testing"

	"BrandPulse/internal/domain/models"
)

func TestClassifyWeekly(t *testing.T) {
	eng := testEngine(t)
	for _, tc := range []struct {
		name   string
		values []float64
		want   string
	}{
		{"too short", []float64{100, 90, 80}, models.TrendInsufficientData},
		{"steepening decline", []float64{100, 90, 80, 70, 60}, models.TrendAcceleratingDecline},
		{"easing decline", []float64{100, 88, 77, 67, 59}, models.TrendDeclining},
		{"flat", []float64{50, 50, 50, 50, 50}, models.TrendFlat},
		{"recovering", []float64{100, 70, 75, 82, 90, 99}, models.TrendRecovering},
		{"accelerating growth", []float64{100, 110, 121, 133, 146}, models.TrendAcceleratingGrowth},
		{"stabilizing", []float64{100, 90, 80, 85, 84}, models.TrendStabilizing},
		{"mixed", []float64{100, 120, 120, 120, 120}, models.TrendMixed},
		{"zero weeks are no change", []float64{0, 0, 0, 0, 0}, models.TrendFlat},
	} {
		if got := ClassifyWeekly(tc.values, eng); got != tc.want {
			t.Fatalf("%s: ClassifyWeekly(%v) = %v, want %v", tc.name, tc.values, got, tc.want)
		}
	}
}
