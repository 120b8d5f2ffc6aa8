package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BrandPulse/internal/domain/models"
	domrepo "BrandPulse/internal/domain/repository"
	"BrandPulse/internal/service/cache"
	"BrandPulse/internal/services/decision"
	"BrandPulse/pkg/logger"
)

// DecideUseCase runs the decision engine over a diagnosis and publishes the
// result for downstream consumers. The engine itself is pure; all I/O lives
// here.
type DecideUseCase struct {
	diagnose *DiagnoseUseCase
	engine   *decision.Engine
	pub      domrepo.DecisionPublisher
	metrics  domrepo.Metrics
	log      *logger.Logger
	cache    cache.BytesCache
	ttl      time.Duration
}

func NewDecideUseCase(
	diagnose *DiagnoseUseCase,
	engine *decision.Engine,
	pub domrepo.DecisionPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	c cache.BytesCache,
	ttl time.Duration,
) *DecideUseCase {
	return &DecideUseCase{
		diagnose: diagnose,
		engine:   engine,
		pub:      pub,
		metrics:  metrics,
		log:      log,
		cache:    c,
		ttl:      ttl,
	}
}

func (uc *DecideUseCase) Decide(ctx context.Context, p DiagnoseParams) (*models.Decision, error) {
	key := decisionCacheKey(p.Brand, p.PeriodDays)
	if uc.cache != nil && !p.Refresh && p.PeriodDays > 0 {
		if b, ok, err := uc.cache.GetBytes(key); err == nil && ok {
			var cached models.Decision
			if err := json.Unmarshal(b, &cached); err == nil {
				uc.metrics.RecordCache("decision", true)
				return &cached, nil
			}
		}
		uc.metrics.RecordCache("decision", false)
	}

	diag, err := uc.diagnose.Diagnose(ctx, p)
	if err != nil {
		return nil, err
	}
	d := uc.engine.Decide(diag)

	// Publishing is best effort: the caller still gets the decision.
	if uc.pub != nil {
		if err := uc.pub.Publish(ctx, d); err != nil {
			uc.metrics.RecordError("decision_publish")
			uc.log.Warn("decision publish failed", logger.String("brand", d.Brand), logger.Error(err))
		}
	}

	if uc.cache != nil {
		if b, err := json.Marshal(d); err == nil {
			key = decisionCacheKey(d.Brand, diag.PeriodDays)
			if err := uc.cache.SetBytes(key, b, uc.ttl); err != nil {
				uc.log.Warn("decision cache set failed", logger.String("brand", d.Brand), logger.Error(err))
			} else {
				uc.diagnose.rememberKey(d.Brand, key)
			}
		}
	}
	return d, nil
}

func decisionCacheKey(brand string, days int) string {
	return fmt.Sprintf("decision:%s:%d", brand, days)
}
