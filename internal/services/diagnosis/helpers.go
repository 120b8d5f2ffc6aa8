package diagnosis

import "math"

// PctChange returns (cur-prior)/prior*100, or nil when prior is zero.
func PctChange(cur, prior float64) *float64 {
	if prior == 0 {
		return nil
	}
	v := (cur - prior) / prior * 100
	return &v
}

// RatePct returns num/den*100, or nil when den is zero.
func RatePct(num, den int64) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den) * 100
	return &v
}

// DiffPP returns the percentage-point delta cur-prior, or nil when either side is missing.
func DiffPP(cur, prior *float64) *float64 {
	if cur == nil || prior == nil {
		return nil
	}
	v := *cur - *prior
	return &v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 { return &v }

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
