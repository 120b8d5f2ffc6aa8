package usecase

import (
	"context"
	"encoding/json"

	"BrandPulse/internal/domain/models"
	domrepo "BrandPulse/internal/domain/repository"
	pkgkafka "BrandPulse/pkg/kafka"
	"BrandPulse/pkg/logger"
)

// SyncEventsHandler reacts to connector sync completions: cached analyses for
// the touched brands are dropped and rebuilt so the next read is fresh.
type SyncEventsHandler struct {
	topic    string
	diagnose *DiagnoseUseCase
	metrics  domrepo.Metrics
	log      *logger.Logger
	prewarm  bool
}

func NewSyncEventsHandler(topic string, diagnose *DiagnoseUseCase, metrics domrepo.Metrics, log *logger.Logger) *SyncEventsHandler {
	return &SyncEventsHandler{topic: topic, diagnose: diagnose, metrics: metrics, log: log, prewarm: true}
}

func (h *SyncEventsHandler) Topic() string { return h.topic }

func (h *SyncEventsHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.SyncCompletedEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("sync_event_unmarshal")
		return err
	}
	h.log.Info("sync completed, refreshing brand analyses",
		logger.String("source", ev.Source),
		logger.Strings("brands", ev.Brands))

	for _, brand := range ev.Brands {
		h.diagnose.Invalidate(brand)
		if !h.prewarm {
			continue
		}
		// Rebuild eagerly so interactive reads after a sync stay warm. A
		// failed rebuild is logged, not retried; the next read recomputes.
		if _, err := h.diagnose.Diagnose(ctx, DiagnoseParams{Brand: brand, Refresh: true}); err != nil {
			h.metrics.RecordError("sync_prewarm")
			h.log.Warn("prewarm after sync failed", logger.String("brand", brand), logger.Error(err))
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*SyncEventsHandler)(nil)
