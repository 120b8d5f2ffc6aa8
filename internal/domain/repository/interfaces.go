package repository

import (
	"context"

	"BrandPulse/internal/domain/models"
)

// DecisionPublisher emits computed decisions for downstream consumers
// (alerting, narrative generation).
type DecisionPublisher interface {
	Publish(ctx context.Context, d *models.Decision) error
	Close() error
}

type Metrics interface {
	RecordDiagnosis(brand string, seconds float64)
	RecordSubModelFailure(domain string)
	RecordError(kind string)
	RecordMomentum(brand string, score float64)
	RecordCache(op string, hit bool)
}
