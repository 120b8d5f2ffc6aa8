package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	diagnosisDuration *prometheus.HistogramVec
	subModelFailures  *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	momentumScore     *prometheus.GaugeVec
	cacheOps          *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		diagnosisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brandpulse_diagnosis_duration_seconds",
				Help:    "Time to assemble a full brand diagnosis",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"brand"},
		),
		subModelFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandpulse_submodel_failures_total",
				Help: "Sub-model data fetches replaced by empty shapes",
			},
			[]string{"domain"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		momentumScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brandpulse_momentum_score",
				Help: "Last computed momentum score per brand",
			},
			[]string{"brand"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandpulse_cache_requests_total",
				Help: "Cache lookups by analysis type and outcome",
			},
			[]string{"op", "outcome"},
		),
	}
}

// RecordDiagnosis records how long a diagnosis took to assemble.
func (r *Recorder) RecordDiagnosis(brand string, seconds float64) {
	r.diagnosisDuration.WithLabelValues(brand).Observe(seconds)
}

// RecordSubModelFailure records a domain whose data fetch failed.
func (r *Recorder) RecordSubModelFailure(domain string) {
	r.subModelFailures.WithLabelValues(domain).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordMomentum records the latest momentum score for a brand.
func (r *Recorder) RecordMomentum(brand string, score float64) {
	r.momentumScore.WithLabelValues(brand).Set(score)
}

// RecordCache records a cache lookup outcome.
func (r *Recorder) RecordCache(op string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheOps.WithLabelValues(op, outcome).Inc()
}
