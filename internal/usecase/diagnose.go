package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"BrandPulse/internal/domain/models"
	domrepo "BrandPulse/internal/domain/repository"
	"BrandPulse/internal/service/cache"
	"BrandPulse/internal/services/diagnosis"
	"BrandPulse/pkg/config"
	"BrandPulse/pkg/logger"
	"BrandPulse/pkg/util"
)

// DiagnoseUseCase assembles a full brand diagnosis: the YoY decomposition,
// per-domain signals, anomalies, weekly trends and the momentum score.
//
// Sub-model data fetches never fail the diagnosis as a whole: a failed domain
// is replaced with its empty shape, recorded, and the analysis continues on
// what remains.
type DiagnoseUseCase struct {
	agg     domrepo.MetricsAggregator
	metrics domrepo.Metrics
	log     *logger.Logger
	cache   cache.BytesCache
	ttl     time.Duration
	cfg     config.Engine

	mu        sync.Mutex
	brandKeys map[string][]string
}

func NewDiagnoseUseCase(
	agg domrepo.MetricsAggregator,
	metrics domrepo.Metrics,
	log *logger.Logger,
	c cache.BytesCache,
	ttl time.Duration,
	cfg config.Engine,
) *DiagnoseUseCase {
	return &DiagnoseUseCase{
		agg:       agg,
		metrics:   metrics,
		log:       log,
		cache:     c,
		ttl:       ttl,
		cfg:       cfg,
		brandKeys: make(map[string][]string),
	}
}

type DiagnoseParams struct {
	Brand      string
	PeriodDays int
	AsOf       time.Time
	Refresh    bool
}

func (uc *DiagnoseUseCase) Diagnose(ctx context.Context, p DiagnoseParams) (*models.Diagnosis, error) {
	if p.Brand == "" {
		return nil, fmt.Errorf("brand required")
	}
	if p.PeriodDays <= 0 {
		p.PeriodDays = uc.cfg.DefaultPeriodDays
	}
	if p.AsOf.IsZero() {
		p.AsOf = time.Now().UTC()
	}

	key := diagnosisCacheKey(p.Brand, p.PeriodDays)
	if uc.cache != nil && !p.Refresh {
		if b, ok, err := uc.cache.GetBytes(key); err == nil && ok {
			var cached models.Diagnosis
			if err := json.Unmarshal(b, &cached); err == nil {
				uc.metrics.RecordCache("diagnosis", true)
				return &cached, nil
			}
		}
		uc.metrics.RecordCache("diagnosis", false)
	}

	start := time.Now()
	diag, err := uc.build(ctx, p)
	if err != nil {
		uc.metrics.RecordError("diagnose")
		return nil, err
	}
	uc.metrics.RecordDiagnosis(p.Brand, time.Since(start).Seconds())
	uc.metrics.RecordMomentum(p.Brand, diag.Momentum.Score)

	if uc.cache != nil {
		if b, err := json.Marshal(diag); err == nil {
			if err := uc.cache.SetBytes(key, b, uc.ttl); err != nil {
				uc.log.Warn("diagnosis cache set failed", logger.String("brand", p.Brand), logger.Error(err))
			} else {
				uc.rememberKey(p.Brand, key)
			}
		}
	}
	return diag, nil
}

// Invalidate drops every cached analysis this process has stored for a brand.
func (uc *DiagnoseUseCase) Invalidate(brand string) {
	if uc.cache == nil {
		return
	}
	uc.mu.Lock()
	keys := uc.brandKeys[brand]
	delete(uc.brandKeys, brand)
	uc.mu.Unlock()
	for _, k := range keys {
		if err := uc.cache.DeleteBytes(k); err != nil {
			uc.log.Warn("diagnosis cache delete failed", logger.String("key", k), logger.Error(err))
		}
	}
}

func (uc *DiagnoseUseCase) rememberKey(brand, key string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for _, k := range uc.brandKeys[brand] {
		if k == key {
			return
		}
	}
	uc.brandKeys[brand] = append(uc.brandKeys[brand], key)
}

func diagnosisCacheKey(brand string, days int) string {
	return fmt.Sprintf("diagnosis:%s:%d", brand, days)
}

// fetched holds the raw per-domain data for one diagnosis run.
type fetched struct {
	productsCurrent []models.ProductAggregate
	productsPrior   []models.ProductAggregate
	pricing         []models.PricingRow
	adsCurrent      models.CampaignMetrics
	adsPrior        models.CampaignMetrics
	demandCurrent   models.SearchDemand
	demandPrior     models.SearchDemand
	funnelCurrent   models.FunnelTotals
	funnelPrior     models.FunnelTotals
	fulfillCurrent  models.FulfillmentTotals
	fulfillPrior    models.FulfillmentTotals
	inventory       []models.InventoryRow
	weekly          map[string][]models.WeeklyPoint
	weeklyMu        sync.Mutex
}

func (uc *DiagnoseUseCase) build(ctx context.Context, p DiagnoseParams) (*models.Diagnosis, error) {
	curStart, curEnd, priorStart, priorEnd := util.YoYWindows(p.AsOf, p.PeriodDays)
	cur := models.Window{Start: curStart, End: curEnd}
	prior := models.Window{Start: priorStart, End: priorEnd}

	// Brand totals are the backbone; without them there is nothing to explain.
	curTotals, err := uc.agg.BrandTotals(ctx, p.Brand, cur)
	if err != nil {
		return nil, fmt.Errorf("brand totals (current): %w", err)
	}
	priorTotals, err := uc.agg.BrandTotals(ctx, p.Brand, prior)
	if err != nil {
		return nil, fmt.Errorf("brand totals (prior): %w", err)
	}

	f := &fetched{weekly: make(map[string][]models.WeeklyPoint)}
	var wg sync.WaitGroup
	safe := func(domain string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				uc.metrics.RecordSubModelFailure(domain)
				uc.log.Warn("sub-model data unavailable, continuing without it",
					logger.String("brand", p.Brand),
					logger.String("domain", domain),
					logger.Error(err))
			}
		}()
	}

	safe("products", func() error {
		var err error
		f.productsCurrent, err = uc.agg.ProductBreakdown(ctx, p.Brand, cur)
		if err != nil {
			return err
		}
		f.productsPrior, err = uc.agg.ProductBreakdown(ctx, p.Brand, prior)
		return err
	})
	safe("pricing", func() error {
		var err error
		f.pricing, err = uc.agg.PricingSnapshot(ctx, p.Brand)
		return err
	})
	safe("ads", func() error {
		var err error
		f.adsCurrent, err = uc.agg.AdsCampaignMetrics(ctx, p.Brand, cur)
		if err != nil {
			return err
		}
		f.adsPrior, err = uc.agg.AdsCampaignMetrics(ctx, p.Brand, prior)
		return err
	})
	safe("demand", func() error {
		var err error
		f.demandCurrent, err = uc.agg.SearchDemand(ctx, p.Brand, cur)
		if err != nil {
			return err
		}
		f.demandPrior, err = uc.agg.SearchDemand(ctx, p.Brand, prior)
		return err
	})
	safe("funnel", func() error {
		var err error
		f.funnelCurrent, err = uc.agg.FunnelMetrics(ctx, p.Brand, cur)
		if err != nil {
			return err
		}
		f.funnelPrior, err = uc.agg.FunnelMetrics(ctx, p.Brand, prior)
		return err
	})
	safe("fulfillment", func() error {
		var err error
		f.fulfillCurrent, err = uc.agg.FulfillmentMetrics(ctx, p.Brand, cur)
		if err != nil {
			return err
		}
		f.fulfillPrior, err = uc.agg.FulfillmentMetrics(ctx, p.Brand, prior)
		return err
	})
	safe("inventory", func() error {
		var err error
		f.inventory, err = uc.agg.InventorySnapshot(ctx, p.Brand)
		return err
	})
	for _, metric := range domrepo.AllWeeklyMetrics() {
		metric := metric
		safe("weekly_"+string(metric), func() error {
			points, err := uc.agg.WeeklySeries(ctx, p.Brand, metric, uc.cfg.Trend.NumWeeks)
			if err != nil {
				return err
			}
			f.weeklyMu.Lock()
			f.weekly[string(metric)] = points
			f.weeklyMu.Unlock()
			return nil
		})
	}
	wg.Wait()

	// Second wave: lookups keyed on the first wave's results.
	trailing := map[string]int{}
	if ids := lostProductIDs(f.productsCurrent, f.productsPrior); len(ids) > 0 {
		var err error
		trailing, err = uc.agg.TrailingUnits(ctx, p.Brand, ids, curEnd)
		if err != nil {
			trailing = map[string]int{}
			uc.metrics.RecordSubModelFailure("trailing_units")
			uc.log.Warn("trailing units unavailable, lost products default to structural",
				logger.String("brand", p.Brand), logger.Error(err))
		}
	}

	stockEvidence := models.StockEvidence{}
	if ids := oosProductIDs(f.inventory); len(ids) > 0 {
		var err error
		stockEvidence, err = uc.agg.StockEvidence(ctx, p.Brand, ids, cur, prior)
		if err != nil {
			stockEvidence = models.StockEvidence{}
			uc.metrics.RecordSubModelFailure("stock_evidence")
			uc.log.Warn("stock evidence unavailable, gates stay closed",
				logger.String("brand", p.Brand), logger.Error(err))
		}
	}

	adsSignal := diagnosis.BuildAdsSignal(f.adsCurrent, f.adsPrior)
	demandSignal := diagnosis.BuildDemandSignal(f.demandCurrent, f.demandPrior)
	funnelSignal := diagnosis.BuildFunnelSignal(f.funnelCurrent, f.funnelPrior)
	fulfillSignal := diagnosis.BuildFulfillmentSignal(f.fulfillCurrent, f.fulfillPrior)
	pricingSignal := diagnosis.BuildPricingSignal(f.pricing)

	decomp := diagnosis.Decompose(diagnosis.DecomposeInput{
		Current:          curTotals,
		Prior:            priorTotals,
		ProductsCurrent:  f.productsCurrent,
		ProductsPrior:    f.productsPrior,
		TrailingUnits:    trailing,
		Ads:              adsSignal,
		Demand:           demandSignal,
		Funnel:           funnelSignal,
		Fulfillment:      fulfillSignal,
		NoiseP0Threshold: uc.cfg.NoiseP0Threshold,
	})

	stockSignal := diagnosis.BuildStockSignal(f.inventory, stockEvidence, funnelSignal, uc.cfg)

	trends := make(map[string]models.WeeklyTrendSeries, len(f.weekly))
	for _, metric := range domrepo.AllWeeklyMetrics() {
		points, ok := f.weekly[string(metric)]
		if !ok {
			continue
		}
		trends[string(metric)] = diagnosis.ClassifySeries(metric, points, uc.cfg)
	}

	anomalies := diagnosis.DetectAnomalies(diagnosis.AnomalyInput{
		RevenueYoYPct: decomp.RevenueDeltaPct,
		Pricing:       pricingSignal,
		Ads:           adsSignal,
		Demand:        demandSignal,
		Funnel:        funnelSignal,
		Fulfillment:   fulfillSignal,
		WeeklyTrends:  trends,
	}, uc.cfg)

	momentum := diagnosis.Momentum(diagnosis.MomentumInput{
		RevenueYoYPct:          decomp.RevenueDeltaPct,
		ClicksYoYPct:           demandSignal.ClicksChangePct,
		ROASYoYPct:             adsSignal.ROASChangePct,
		ViewToCartChangePP:     funnelSignal.ViewToCartChangePP,
		CartToPurchaseChangePP: funnelSignal.CartToPurchaseChangePP,
		WeeklyTrends:           trends,
	}, uc.cfg)

	return &models.Diagnosis{
		Brand:         p.Brand,
		Period:        util.PeriodLabel(curStart, curEnd),
		PeriodDays:    p.PeriodDays,
		Current:       curTotals,
		Prior:         priorTotals,
		Decomposition: decomp,
		Pricing:       pricingSignal,
		Ads:           adsSignal,
		Demand:        demandSignal,
		Funnel:        funnelSignal,
		Fulfillment:   fulfillSignal,
		Stock:         stockSignal,
		Anomalies:     anomalies,
		WeeklyTrends:  trends,
		Momentum:      momentum,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// lostProductIDs returns products present a year ago but absent now.
func lostProductIDs(current, prior []models.ProductAggregate) []string {
	seen := make(map[string]struct{}, len(current))
	for _, p := range current {
		seen[p.ProductID] = struct{}{}
	}
	var ids []string
	for _, p := range prior {
		if _, ok := seen[p.ProductID]; !ok {
			ids = append(ids, p.ProductID)
		}
	}
	return ids
}

func oosProductIDs(inv []models.InventoryRow) []string {
	var ids []string
	for _, row := range inv {
		if row.Quantity != nil && *row.Quantity <= 0 && row.ProductID != "" {
			ids = append(ids, row.ProductID)
		}
	}
	return ids
}
