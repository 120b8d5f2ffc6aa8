package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BrandPulse/internal/domain/models"
	domrepo "BrandPulse/internal/domain/repository"
	"BrandPulse/internal/service/cache"
	"BrandPulse/internal/services/decision"
	"BrandPulse/pkg/config"
	"BrandPulse/pkg/logger"

	"github.com/creasty/defaults"
)

var asOf = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

// stubAggregator serves deterministic data and can be told to fail per domain.
type stubAggregator struct {
	mu     sync.Mutex
	fail   map[string]bool
	builds int
}

func (s *stubAggregator) failing(domain string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail[domain]
}

func (s *stubAggregator) BrandTotals(_ context.Context, _ string, w models.Window) (models.PeriodAggregate, error) {
	if s.failing("totals") {
		return models.PeriodAggregate{}, errors.New("clickhouse down")
	}
	s.mu.Lock()
	s.builds++
	s.mu.Unlock()
	if w.Start.Year() == asOf.Year() {
		return models.PeriodAggregate{Revenue: 120000, Units: 1100, Orders: 900}, nil
	}
	return models.PeriodAggregate{Revenue: 100000, Units: 1000, Orders: 800}, nil
}

func (s *stubAggregator) ProductBreakdown(_ context.Context, _ string, w models.Window) ([]models.ProductAggregate, error) {
	if s.failing("products") {
		return nil, errors.New("products query failed")
	}
	if w.Start.Year() == asOf.Year() {
		return []models.ProductAggregate{{ProductID: "p1", Revenue: 120000, Units: 1100, AvgPrice: 109}}, nil
	}
	return []models.ProductAggregate{
		{ProductID: "p1", Revenue: 90000, Units: 900, AvgPrice: 100},
		{ProductID: "p2", Revenue: 10000, Units: 100, AvgPrice: 100},
	}, nil
}

func (s *stubAggregator) PricingSnapshot(context.Context, string) ([]models.PricingRow, error) {
	if s.failing("pricing") {
		return nil, errors.New("pricing query failed")
	}
	m := 25.0
	return []models.PricingRow{{SKU: "sku-1", CurrentPrice: 100, MarginPct: &m}}, nil
}

func (s *stubAggregator) AdsCampaignMetrics(_ context.Context, _ string, w models.Window) (models.CampaignMetrics, error) {
	if s.failing("ads") {
		return models.CampaignMetrics{}, errors.New("ads query failed")
	}
	if w.Start.Year() == asOf.Year() {
		return models.CampaignMetrics{Spend: 2000, Revenue: 6000, ROAS: 3}, nil
	}
	return models.CampaignMetrics{Spend: 1500, Revenue: 6000, ROAS: 4}, nil
}

func (s *stubAggregator) SearchDemand(_ context.Context, _ string, w models.Window) (models.SearchDemand, error) {
	if s.failing("demand") {
		return models.SearchDemand{}, errors.New("demand query failed")
	}
	if w.Start.Year() == asOf.Year() {
		return models.SearchDemand{Clicks: 5500, Impressions: 90000}, nil
	}
	return models.SearchDemand{Clicks: 5000, Impressions: 80000}, nil
}

func (s *stubAggregator) FunnelMetrics(_ context.Context, _ string, w models.Window) (models.FunnelTotals, error) {
	if s.failing("funnel") {
		return models.FunnelTotals{}, errors.New("funnel query failed")
	}
	return models.FunnelTotals{Views: 40000, AddToCart: 1800, Purchases: 900}, nil
}

func (s *stubAggregator) FulfillmentMetrics(_ context.Context, _ string, w models.Window) (models.FulfillmentTotals, error) {
	if s.failing("fulfillment") {
		return models.FulfillmentTotals{}, errors.New("fulfillment query failed")
	}
	r := 2.0
	c := 1.0
	return models.FulfillmentTotals{RefundRatePct: &r, CancellationRatePct: &c, RefundCount: 18}, nil
}

func (s *stubAggregator) InventorySnapshot(context.Context, string) ([]models.InventoryRow, error) {
	if s.failing("inventory") {
		return nil, errors.New("inventory query failed")
	}
	q0, q9 := 0, 9
	return []models.InventoryRow{
		{SKU: "sku-1", ProductID: "p1", Quantity: &q9, ProductStatus: "active", Published: true},
		{SKU: "sku-2", ProductID: "p2", Quantity: &q0, ProductStatus: "active", Published: true},
	}, nil
}

func (s *stubAggregator) WeeklySeries(_ context.Context, _ string, metric domrepo.WeeklyMetric, numWeeks int) ([]models.WeeklyPoint, error) {
	if s.failing("weekly") {
		return nil, errors.New("weekly query failed")
	}
	points := make([]models.WeeklyPoint, numWeeks)
	for i := range points {
		points[i] = models.WeeklyPoint{WeekStart: asOf.AddDate(0, 0, -7*(numWeeks-i)), Value: 100}
	}
	return points, nil
}

func (s *stubAggregator) TrailingUnits(_ context.Context, _ string, ids []string, _ time.Time) (map[string]int, error) {
	if s.failing("trailing") {
		return nil, errors.New("trailing query failed")
	}
	out := map[string]int{}
	for _, id := range ids {
		out[id] = 24
	}
	return out, nil
}

func (s *stubAggregator) StockEvidence(context.Context, string, []string, models.Window, models.Window) (models.StockEvidence, error) {
	if s.failing("evidence") {
		return models.StockEvidence{}, errors.New("evidence query failed")
	}
	return models.StockEvidence{}, nil
}

var _ domrepo.MetricsAggregator = (*stubAggregator)(nil)

// stubMetrics counts recorder calls.
type stubMetrics struct {
	mu          sync.Mutex
	subFailures map[string]int
	errors      map[string]int
	cacheHits   int
	cacheMisses int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{subFailures: map[string]int{}, errors: map[string]int{}}
}

func (m *stubMetrics) RecordDiagnosis(string, float64) {}
func (m *stubMetrics) RecordSubModelFailure(domain string) {
	m.mu.Lock()
	m.subFailures[domain]++
	m.mu.Unlock()
}
func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *stubMetrics) RecordMomentum(string, float64) {}
func (m *stubMetrics) RecordCache(_ string, hit bool) {
	m.mu.Lock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
	m.mu.Unlock()
}

type stubPublisher struct {
	mu        sync.Mutex
	published []*models.Decision
	err       error
}

func (p *stubPublisher) Publish(_ context.Context, d *models.Decision) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, d)
	return nil
}
func (p *stubPublisher) Close() error { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func engineConfig(t *testing.T) config.Engine {
	t.Helper()
	var e config.Engine
	if err := defaults.Set(&e); err != nil {
		t.Fatalf("engine defaults: %v", err)
	}
	return e
}

func newDiagnoseUC(t *testing.T, agg *stubAggregator, m *stubMetrics, c cache.BytesCache) *DiagnoseUseCase {
	t.Helper()
	return NewDiagnoseUseCase(agg, m, testLogger(t), c, time.Minute, engineConfig(t))
}

func TestDiagnoseAssemblesAllParts(t *testing.T) {
	agg := &stubAggregator{fail: map[string]bool{}}
	uc := newDiagnoseUC(t, agg, newStubMetrics(), nil)

	diag, err := uc.Diagnose(context.Background(), DiagnoseParams{Brand: "Acme", PeriodDays: 30, AsOf: asOf})
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if diag.Brand != "Acme" || diag.PeriodDays != 30 {
		t.Fatalf("unexpected header: %+v", diag)
	}
	if diag.Decomposition.RevenueDelta != 20000 {
		t.Fatalf("delta = %v, want 20000", diag.Decomposition.RevenueDelta)
	}
	if len(diag.Decomposition.Drivers) == 0 {
		t.Fatalf("no drivers")
	}
	if diag.Pricing.TrackedSKUs != 1 {
		t.Fatalf("pricing signal missing: %+v", diag.Pricing)
	}
	if len(diag.WeeklyTrends) != len(domrepo.AllWeeklyMetrics()) {
		t.Fatalf("weekly trends = %d series", len(diag.WeeklyTrends))
	}
	if diag.Momentum.Score <= 0 {
		t.Fatalf("momentum not computed: %+v", diag.Momentum)
	}
	if diag.Anomalies == nil {
		t.Fatalf("anomalies must be non-nil")
	}
	// p2 sold steadily last year and is gone now: one out-of-stock SKU but no
	// gate evidence, so stock keeps the floor weight
	if diag.Stock.OOSCount != 1 || diag.Stock.GatePassed {
		t.Fatalf("unexpected stock signal: %+v", diag.Stock)
	}
}

func TestDiagnoseSubModelFailureIsolation(t *testing.T) {
	agg := &stubAggregator{fail: map[string]bool{"ads": true, "weekly": true, "pricing": true}}
	m := newStubMetrics()
	uc := newDiagnoseUC(t, agg, m, nil)

	diag, err := uc.Diagnose(context.Background(), DiagnoseParams{Brand: "Acme", PeriodDays: 30, AsOf: asOf})
	if err != nil {
		t.Fatalf("a failed sub-model must not fail the diagnosis: %v", err)
	}
	if diag.Ads.SpendCurrent != 0 || diag.Ads.Strength != 0 {
		t.Fatalf("ads should be empty after failure: %+v", diag.Ads)
	}
	if diag.Pricing.TrackedSKUs != 0 {
		t.Fatalf("pricing should be empty after failure: %+v", diag.Pricing)
	}
	if len(diag.WeeklyTrends) != 0 {
		t.Fatalf("weekly trends should be absent: %+v", diag.WeeklyTrends)
	}
	// the rest of the diagnosis still computed
	if diag.Decomposition.RevenueDelta != 20000 || diag.Funnel.ViewsCurrent == 0 {
		t.Fatalf("surviving domains missing: %+v", diag)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subFailures["ads"] != 1 || m.subFailures["pricing"] != 1 {
		t.Fatalf("sub-model failures not recorded: %+v", m.subFailures)
	}
	if m.subFailures["weekly_revenue"] != 1 {
		t.Fatalf("weekly failures not recorded per metric: %+v", m.subFailures)
	}
}

func TestDiagnoseRequiresBrandTotals(t *testing.T) {
	agg := &stubAggregator{fail: map[string]bool{"totals": true}}
	uc := newDiagnoseUC(t, agg, newStubMetrics(), nil)
	if _, err := uc.Diagnose(context.Background(), DiagnoseParams{Brand: "Acme", AsOf: asOf}); err == nil {
		t.Fatalf("expected error when brand totals are unavailable")
	}
}

func TestDiagnoseCacheRoundTrip(t *testing.T) {
	agg := &stubAggregator{fail: map[string]bool{}}
	m := newStubMetrics()
	uc := newDiagnoseUC(t, agg, m, cache.NewTTLCache())

	p := DiagnoseParams{Brand: "Acme", PeriodDays: 30, AsOf: asOf}
	if _, err := uc.Diagnose(context.Background(), p); err != nil {
		t.Fatalf("first diagnose: %v", err)
	}
	buildsAfterFirst := agg.builds
	if _, err := uc.Diagnose(context.Background(), p); err != nil {
		t.Fatalf("second diagnose: %v", err)
	}
	if agg.builds != buildsAfterFirst {
		t.Fatalf("second call must come from cache")
	}
	if m.cacheHits != 1 {
		t.Fatalf("cache hit not recorded: %+v", m)
	}

	// refresh bypasses the cache
	p.Refresh = true
	if _, err := uc.Diagnose(context.Background(), p); err != nil {
		t.Fatalf("refresh diagnose: %v", err)
	}
	if agg.builds == buildsAfterFirst {
		t.Fatalf("refresh must recompute")
	}

	// invalidation drops the stored entry
	p.Refresh = false
	uc.Invalidate("Acme")
	before := agg.builds
	if _, err := uc.Diagnose(context.Background(), p); err != nil {
		t.Fatalf("post-invalidate diagnose: %v", err)
	}
	if agg.builds == before {
		t.Fatalf("invalidated entry must recompute")
	}
}

func newDecideUC(t *testing.T, agg *stubAggregator, m *stubMetrics, pub *stubPublisher) *DecideUseCase {
	t.Helper()
	diagnose := newDiagnoseUC(t, agg, m, nil)
	return NewDecideUseCase(diagnose, decision.NewEngine(engineConfig(t)), pub, m, testLogger(t), nil, time.Minute)
}

func TestDecidePublishesBestEffort(t *testing.T) {
	agg := &stubAggregator{fail: map[string]bool{}}
	m := newStubMetrics()
	pub := &stubPublisher{}
	uc := newDecideUC(t, agg, m, pub)

	d, err := uc.Decide(context.Background(), DiagnoseParams{Brand: "Acme", PeriodDays: 30, AsOf: asOf})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.State == "" || d.How.Strategy == "" {
		t.Fatalf("incomplete decision: %+v", d)
	}
	if len(pub.published) != 1 || pub.published[0].Brand != "Acme" {
		t.Fatalf("decision not published: %+v", pub.published)
	}

	// a broken publisher must not fail the request
	pub.err = errors.New("kafka down")
	if _, err := uc.Decide(context.Background(), DiagnoseParams{Brand: "Acme", PeriodDays: 30, AsOf: asOf}); err != nil {
		t.Fatalf("decide with failing publisher: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors["decision_publish"] != 1 {
		t.Fatalf("publish failure not recorded: %+v", m.errors)
	}
}

func TestPortfolioIsolatesBrandFailures(t *testing.T) {
	agg := &stubAggregator{fail: map[string]bool{}}
	m := newStubMetrics()
	decide := newDecideUC(t, agg, m, &stubPublisher{})
	failing := newDecideUC(t, &stubAggregator{fail: map[string]bool{"totals": true}}, m, &stubPublisher{})

	uc := NewPortfolioUseCase(decide, testLogger(t))
	res, err := uc.Decide(context.Background(), PortfolioParams{
		Brands:      []string{"Zeta", "Acme", "Mango"},
		PeriodDays:  30,
		Concurrency: 2,
	})
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if res.Requested != 3 || res.Succeeded != 3 || len(res.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	// sorted output keeps the response stable across runs
	if res.Decisions[0].Brand != "Acme" || res.Decisions[2].Brand != "Zeta" {
		t.Fatalf("decisions not sorted: %v, %v", res.Decisions[0].Brand, res.Decisions[2].Brand)
	}

	ucFail := NewPortfolioUseCase(failing, testLogger(t))
	res, err = ucFail.Decide(context.Background(), PortfolioParams{Brands: []string{"Acme", "Beta"}, PeriodDays: 30})
	if err != nil {
		t.Fatalf("portfolio with failures: %v", err)
	}
	if res.Succeeded != 0 || len(res.Errors) != 2 {
		t.Fatalf("per-brand errors not reported: %+v", res)
	}
	if res.Errors["Acme"] == "" || res.Errors["Beta"] == "" {
		t.Fatalf("error messages missing: %+v", res.Errors)
	}
}

func TestSyncEventsHandlerRefreshesBrands(t *testing.T) {
	agg := &stubAggregator{fail: map[string]bool{}}
	m := newStubMetrics()
	diagnose := NewDiagnoseUseCase(agg, m, testLogger(t), cache.NewTTLCache(), time.Minute, engineConfig(t))
	h := NewSyncEventsHandler("brandpulse.sync.completed", diagnose, m, testLogger(t))

	if h.Topic() != "brandpulse.sync.completed" {
		t.Fatalf("unexpected topic %q", h.Topic())
	}

	// warm the cache, then let a sync event rebuild it
	if _, err := diagnose.Diagnose(context.Background(), DiagnoseParams{Brand: "Acme", AsOf: asOf}); err != nil {
		t.Fatalf("warm: %v", err)
	}
	before := agg.builds

	payload := []byte(`{"brands":["Acme"],"source":"connector","completed_at":"2025-03-15T12:00:00Z"}`)
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if agg.builds == before {
		t.Fatalf("sync event must rebuild the cached diagnosis")
	}

	if err := h.Handle(context.Background(), []byte("{broken")); err == nil {
		t.Fatalf("malformed event must surface an error for retry/DLQ")
	}
}
