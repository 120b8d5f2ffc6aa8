package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"BrandPulse/internal/domain/models"
	domrepo "BrandPulse/internal/domain/repository"
	"BrandPulse/internal/services/brandmatch"
	pkgch "BrandPulse/pkg/clickhouse"
	applogger "BrandPulse/pkg/logger"
	"BrandPulse/pkg/util"
)

// Table names. Order lines and product catalog are brand-keyed; ads and
// search rows carry no brand column and are matched in Go against the
// campaign name / query text.
const (
	tableOrderItems  = "brandpulse.order_items"
	tablePricing     = "brandpulse.competitive_pricing"
	tableCampaigns   = "brandpulse.ads_campaigns"
	tableAdsProducts = "brandpulse.ads_product_perf"
	tableSearch      = "brandpulse.search_queries"
	tableFunnel      = "brandpulse.funnel_daily"
	tableInventory   = "brandpulse.inventory"
)

// CHMetricsStore implements MetricsAggregator backed by ClickHouse.
type CHMetricsStore struct {
	db     *sql.DB
	brands *brandmatch.Registry
	l      *applogger.Logger
}

func NewCHMetricsStore(ch *pkgch.Client, brands *brandmatch.Registry) *CHMetricsStore {
	return &CHMetricsStore{db: ch.DB(), brands: brands}
}

// SetLogger injects a structured logger.
func (s *CHMetricsStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHMetricsStore) BrandTotals(ctx context.Context, brand string, w models.Window) (models.PeriodAggregate, error) {
	start := time.Now()
	const q = `
        SELECT
            sum(revenue),
            sum(quantity),
            uniqExact(order_id),
            sumIf(cogs, has_cogs),
            sumIf(revenue, has_cogs),
            countIf(has_cogs),
            count()
        FROM ` + tableOrderItems + `
        WHERE brand = ? AND ts >= ? AND ts < ? AND refunded = 0 AND cancelled = 0
    `
	var (
		revenue, cogs, coveredRevenue sql.NullFloat64
		units, orders                 sql.NullInt64
		coveredLines, totalLines      sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx, q, brand, w.Start, w.End)
	if err := row.Scan(&revenue, &units, &orders, &cogs, &coveredRevenue, &coveredLines, &totalLines); err != nil {
		s.logError("brand_totals", brand, err)
		return models.PeriodAggregate{}, fmt.Errorf("brand totals: %w", err)
	}

	agg := models.PeriodAggregate{
		Revenue: revenue.Float64,
		Units:   int(units.Int64),
		Orders:  int(orders.Int64),
		COGS:    cogs.Float64,
	}
	if totalLines.Int64 > 0 {
		agg.CostCoveragePct = float64(coveredLines.Int64) / float64(totalLines.Int64) * 100
	}
	// Margin only over lines where cost is known; partial catalogs would
	// otherwise overstate it.
	if coveredRevenue.Float64 > 0 {
		m := (coveredRevenue.Float64 - cogs.Float64) / coveredRevenue.Float64 * 100
		agg.GrossMarginPct = &m
	}
	s.logOK("brand_totals", brand, 1, time.Since(start))
	return agg, nil
}

func (s *CHMetricsStore) ProductBreakdown(ctx context.Context, brand string, w models.Window) ([]models.ProductAggregate, error) {
	start := time.Now()
	const q = `
        SELECT product_id, any(title), any(sku), sum(revenue), sum(quantity)
        FROM ` + tableOrderItems + `
        WHERE brand = ? AND ts >= ? AND ts < ? AND refunded = 0 AND cancelled = 0
        GROUP BY product_id
    `
	rows, err := s.db.QueryContext(ctx, q, brand, w.Start, w.End)
	if err != nil {
		s.logError("product_breakdown", brand, err)
		return nil, fmt.Errorf("product breakdown: %w", err)
	}
	defer rows.Close()

	out := make([]models.ProductAggregate, 0, 256)
	for rows.Next() {
		var p models.ProductAggregate
		if err := rows.Scan(&p.ProductID, &p.Title, &p.SKU, &p.Revenue, &p.Units); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.Units > 0 {
			p.AvgPrice = p.Revenue / float64(p.Units)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.logOK("product_breakdown", brand, len(out), time.Since(start))
	return out, nil
}

func (s *CHMetricsStore) PricingSnapshot(ctx context.Context, brand string) ([]models.PricingRow, error) {
	start := time.Now()
	const q = `
        SELECT sku, current_price, minimum_price, rrp, lowest_competitor_price, margin_pct
        FROM ` + tablePricing + `
        WHERE brand = ?
        ORDER BY snapshot_ts DESC
        LIMIT 1 BY sku
    `
	rows, err := s.db.QueryContext(ctx, q, brand)
	if err != nil {
		s.logError("pricing_snapshot", brand, err)
		return nil, fmt.Errorf("pricing snapshot: %w", err)
	}
	defer rows.Close()

	out := make([]models.PricingRow, 0, 128)
	for rows.Next() {
		var r models.PricingRow
		var minPrice, rrp, competitor, margin sql.NullFloat64
		if err := rows.Scan(&r.SKU, &r.CurrentPrice, &minPrice, &rrp, &competitor, &margin); err != nil {
			return nil, fmt.Errorf("scan pricing: %w", err)
		}
		r.MinimumPrice = nullableFloat(minPrice)
		r.RRP = nullableFloat(rrp)
		r.LowestCompetitorPrice = nullableFloat(competitor)
		r.MarginPct = nullableFloat(margin)
		r.LosingMoney = margin.Valid && margin.Float64 < 0
		r.BelowMinimum = minPrice.Valid && r.CurrentPrice < minPrice.Float64
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.logOK("pricing_snapshot", brand, len(out), time.Since(start))
	return out, nil
}

func (s *CHMetricsStore) AdsCampaignMetrics(ctx context.Context, brand string, w models.Window) (models.CampaignMetrics, error) {
	start := time.Now()
	const q = `
        SELECT
            campaign_name,
            sum(spend),
            sum(revenue),
            sum(impressions),
            avgIf(impression_share, impression_share > 0),
            avgIf(budget_lost_share, budget_lost_share > 0),
            avgIf(rank_lost_share, rank_lost_share > 0),
            any(status),
            max(last_activity)
        FROM ` + tableCampaigns + `
        WHERE date >= ? AND date < ?
        GROUP BY campaign_name
    `
	rows, err := s.db.QueryContext(ctx, q, w.Start, w.End)
	if err != nil {
		s.logError("ads_campaigns", brand, err)
		return models.CampaignMetrics{}, fmt.Errorf("ads campaigns: %w", err)
	}
	defer rows.Close()

	matcher := s.brands.For(brand)
	var out models.CampaignMetrics
	var shareSum, budgetLostSum, rankLostSum float64
	var shareWeight float64
	for rows.Next() {
		var (
			name                        string
			spend, revenue              float64
			impressions                 int64
			share, budgetLost, rankLost sql.NullFloat64
			status                      string
			lastActivity                time.Time
		)
		if err := rows.Scan(&name, &spend, &revenue, &impressions, &share, &budgetLost, &rankLost, &status, &lastActivity); err != nil {
			return models.CampaignMetrics{}, fmt.Errorf("scan campaign: %w", err)
		}
		if !matcher.Match(name) {
			continue
		}
		out.Spend += spend
		out.Revenue += revenue
		out.Impressions += impressions
		if share.Valid && impressions > 0 {
			shareSum += share.Float64 * float64(impressions)
			budgetLostSum += budgetLost.Float64 * float64(impressions)
			rankLostSum += rankLost.Float64 * float64(impressions)
			shareWeight += float64(impressions)
		}
		roas := 0.0
		if spend > 0 {
			roas = revenue / spend
		}
		out.Campaigns = append(out.Campaigns, models.Campaign{
			Name:         name,
			Spend:        spend,
			ROAS:         roas,
			Status:       status,
			LastActivity: lastActivity,
		})
	}
	if err := rows.Err(); err != nil {
		return models.CampaignMetrics{}, fmt.Errorf("rows: %w", err)
	}
	if out.Spend > 0 {
		out.ROAS = out.Revenue / out.Spend
	}
	// impression-weighted share averages
	if shareWeight > 0 {
		share := shareSum / shareWeight
		budgetLost := budgetLostSum / shareWeight
		rankLost := rankLostSum / shareWeight
		out.ImpressionShare = &share
		out.BudgetLostShare = &budgetLost
		out.RankLostShare = &rankLost
	}
	sort.Slice(out.Campaigns, func(i, j int) bool {
		return out.Campaigns[i].Spend > out.Campaigns[j].Spend
	})
	s.logOK("ads_campaigns", brand, len(out.Campaigns), time.Since(start))
	return out, nil
}

func (s *CHMetricsStore) SearchDemand(ctx context.Context, brand string, w models.Window) (models.SearchDemand, error) {
	start := time.Now()
	const q = `
        SELECT query, sum(clicks), sum(impressions)
        FROM ` + tableSearch + `
        WHERE date >= ? AND date < ?
        GROUP BY query
    `
	rows, err := s.db.QueryContext(ctx, q, w.Start, w.End)
	if err != nil {
		s.logError("search_demand", brand, err)
		return models.SearchDemand{}, fmt.Errorf("search demand: %w", err)
	}
	defer rows.Close()

	matcher := s.brands.For(brand)
	var out models.SearchDemand
	var matched int
	for rows.Next() {
		var query string
		var clicks, impressions int64
		if err := rows.Scan(&query, &clicks, &impressions); err != nil {
			return models.SearchDemand{}, fmt.Errorf("scan query: %w", err)
		}
		if !matcher.Match(query) {
			continue
		}
		matched++
		out.Clicks += clicks
		out.Impressions += impressions
	}
	if err := rows.Err(); err != nil {
		return models.SearchDemand{}, fmt.Errorf("rows: %w", err)
	}
	s.logOK("search_demand", brand, matched, time.Since(start))
	return out, nil
}

func (s *CHMetricsStore) FunnelMetrics(ctx context.Context, brand string, w models.Window) (models.FunnelTotals, error) {
	const q = `
        SELECT sum(views), sum(add_to_cart), sum(purchases)
        FROM ` + tableFunnel + `
        WHERE brand = ? AND date >= ? AND date < ?
    `
	var views, carts, purchases sql.NullInt64
	row := s.db.QueryRowContext(ctx, q, brand, w.Start, w.End)
	if err := row.Scan(&views, &carts, &purchases); err != nil {
		s.logError("funnel", brand, err)
		return models.FunnelTotals{}, fmt.Errorf("funnel metrics: %w", err)
	}
	return models.FunnelTotals{
		Views:     views.Int64,
		AddToCart: carts.Int64,
		Purchases: purchases.Int64,
	}, nil
}

func (s *CHMetricsStore) FulfillmentMetrics(ctx context.Context, brand string, w models.Window) (models.FulfillmentTotals, error) {
	const q = `
        SELECT countIf(refunded = 1), countIf(cancelled = 1), count()
        FROM ` + tableOrderItems + `
        WHERE brand = ? AND ts >= ? AND ts < ?
    `
	var refunded, cancelled, total sql.NullInt64
	row := s.db.QueryRowContext(ctx, q, brand, w.Start, w.End)
	if err := row.Scan(&refunded, &cancelled, &total); err != nil {
		s.logError("fulfillment", brand, err)
		return models.FulfillmentTotals{}, fmt.Errorf("fulfillment metrics: %w", err)
	}
	out := models.FulfillmentTotals{RefundCount: int(refunded.Int64)}
	if total.Int64 > 0 {
		refundRate := float64(refunded.Int64) / float64(total.Int64) * 100
		cancelRate := float64(cancelled.Int64) / float64(total.Int64) * 100
		out.RefundRatePct = &refundRate
		out.CancellationRatePct = &cancelRate
	}
	return out, nil
}

func (s *CHMetricsStore) InventorySnapshot(ctx context.Context, brand string) ([]models.InventoryRow, error) {
	start := time.Now()
	const q = `
        SELECT sku, product_id, quantity, product_status, published
        FROM ` + tableInventory + `
        WHERE brand = ?
        ORDER BY snapshot_ts DESC
        LIMIT 1 BY sku
    `
	rows, err := s.db.QueryContext(ctx, q, brand)
	if err != nil {
		s.logError("inventory", brand, err)
		return nil, fmt.Errorf("inventory snapshot: %w", err)
	}
	defer rows.Close()

	out := make([]models.InventoryRow, 0, 128)
	for rows.Next() {
		var r models.InventoryRow
		var qty sql.NullInt64
		var published uint8
		if err := rows.Scan(&r.SKU, &r.ProductID, &qty, &r.ProductStatus, &published); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		if qty.Valid {
			n := int(qty.Int64)
			r.Quantity = &n
		}
		r.Published = published == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.logOK("inventory", brand, len(out), time.Since(start))
	return out, nil
}

func (s *CHMetricsStore) WeeklySeries(ctx context.Context, brand string, metric domrepo.WeeklyMetric, numWeeks int) ([]models.WeeklyPoint, error) {
	if numWeeks <= 0 {
		numWeeks = 8
	}
	since := util.WeekStart(time.Now().UTC()).AddDate(0, 0, -7*numWeeks)

	switch metric {
	case domrepo.MetricRevenue:
		return s.weeklyRevenue(ctx, brand, since)
	case domrepo.MetricAdsROAS:
		return s.weeklyROAS(ctx, brand, since)
	case domrepo.MetricSearchClicks:
		return s.weeklySearchClicks(ctx, brand, since)
	default:
		return nil, fmt.Errorf("unsupported weekly metric: %s", metric)
	}
}

func (s *CHMetricsStore) weeklyRevenue(ctx context.Context, brand string, since time.Time) ([]models.WeeklyPoint, error) {
	const q = `
        SELECT toStartOfWeek(ts, 1) AS wk, sum(revenue)
        FROM ` + tableOrderItems + `
        WHERE brand = ? AND ts >= ? AND refunded = 0 AND cancelled = 0
        GROUP BY wk
        ORDER BY wk ASC
    `
	rows, err := s.db.QueryContext(ctx, q, brand, since)
	if err != nil {
		s.logError("weekly_revenue", brand, err)
		return nil, fmt.Errorf("weekly revenue: %w", err)
	}
	defer rows.Close()

	var out []models.WeeklyPoint
	for rows.Next() {
		var p models.WeeklyPoint
		if err := rows.Scan(&p.WeekStart, &p.Value); err != nil {
			return nil, fmt.Errorf("scan week: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *CHMetricsStore) weeklyROAS(ctx context.Context, brand string, since time.Time) ([]models.WeeklyPoint, error) {
	const q = `
        SELECT toStartOfWeek(date, 1) AS wk, campaign_name, sum(spend), sum(revenue)
        FROM ` + tableCampaigns + `
        WHERE date >= ?
        GROUP BY wk, campaign_name
        ORDER BY wk ASC
    `
	rows, err := s.db.QueryContext(ctx, q, since)
	if err != nil {
		s.logError("weekly_roas", brand, err)
		return nil, fmt.Errorf("weekly roas: %w", err)
	}
	defer rows.Close()

	matcher := s.brands.For(brand)
	type weekAgg struct{ spend, revenue float64 }
	weeks := map[time.Time]*weekAgg{}
	var order []time.Time
	for rows.Next() {
		var wk time.Time
		var name string
		var spend, revenue float64
		if err := rows.Scan(&wk, &name, &spend, &revenue); err != nil {
			return nil, fmt.Errorf("scan week: %w", err)
		}
		if !matcher.Match(name) {
			continue
		}
		agg, ok := weeks[wk]
		if !ok {
			agg = &weekAgg{}
			weeks[wk] = agg
			order = append(order, wk)
		}
		agg.spend += spend
		agg.revenue += revenue
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	out := make([]models.WeeklyPoint, 0, len(order))
	for _, wk := range order {
		agg := weeks[wk]
		var roas float64
		if agg.spend > 0 {
			roas = agg.revenue / agg.spend
		}
		out = append(out, models.WeeklyPoint{WeekStart: wk, Value: roas})
	}
	return out, nil
}

func (s *CHMetricsStore) weeklySearchClicks(ctx context.Context, brand string, since time.Time) ([]models.WeeklyPoint, error) {
	const q = `
        SELECT toStartOfWeek(date, 1) AS wk, query, sum(clicks)
        FROM ` + tableSearch + `
        WHERE date >= ?
        GROUP BY wk, query
        ORDER BY wk ASC
    `
	rows, err := s.db.QueryContext(ctx, q, since)
	if err != nil {
		s.logError("weekly_search", brand, err)
		return nil, fmt.Errorf("weekly search clicks: %w", err)
	}
	defer rows.Close()

	matcher := s.brands.For(brand)
	weeks := map[time.Time]float64{}
	var order []time.Time
	for rows.Next() {
		var wk time.Time
		var query string
		var clicks int64
		if err := rows.Scan(&wk, &query, &clicks); err != nil {
			return nil, fmt.Errorf("scan week: %w", err)
		}
		if !matcher.Match(query) {
			continue
		}
		if _, ok := weeks[wk]; !ok {
			order = append(order, wk)
		}
		weeks[wk] += float64(clicks)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	out := make([]models.WeeklyPoint, 0, len(order))
	for _, wk := range order {
		out = append(out, models.WeeklyPoint{WeekStart: wk, Value: weeks[wk]})
	}
	return out, nil
}

func (s *CHMetricsStore) TrailingUnits(ctx context.Context, brand string, productIDs []string, end time.Time) (map[string]int, error) {
	if len(productIDs) == 0 {
		return map[string]int{}, nil
	}
	q := fmt.Sprintf(`
        SELECT product_id, sum(quantity)
        FROM %s
        WHERE brand = ? AND ts >= ? AND ts < ? AND refunded = 0 AND cancelled = 0
          AND product_id IN (%s)
        GROUP BY product_id
    `, tableOrderItems, placeholders(len(productIDs)))

	args := make([]interface{}, 0, len(productIDs)+3)
	args = append(args, brand, end.AddDate(-1, 0, 0), end)
	for _, id := range productIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logError("trailing_units", brand, err)
		return nil, fmt.Errorf("trailing units: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int, len(productIDs))
	for rows.Next() {
		var id string
		var units int
		if err := rows.Scan(&id, &units); err != nil {
			return nil, fmt.Errorf("scan units: %w", err)
		}
		out[id] = units
	}
	return out, rows.Err()
}

func (s *CHMetricsStore) StockEvidence(ctx context.Context, brand string, oosProductIDs []string, cur, prior models.Window) (models.StockEvidence, error) {
	if len(oosProductIDs) == 0 {
		return models.StockEvidence{}, nil
	}
	var ev models.StockEvidence
	var err error

	ev.CurrentAdImpressionProducts, err = s.adImpressionProducts(ctx, oosProductIDs, cur)
	if err != nil {
		s.logError("stock_evidence", brand, err)
		return models.StockEvidence{}, fmt.Errorf("ad impressions (current): %w", err)
	}
	ev.PriorAdImpressionProducts, err = s.adImpressionProducts(ctx, oosProductIDs, prior)
	if err != nil {
		s.logError("stock_evidence", brand, err)
		return models.StockEvidence{}, fmt.Errorf("ad impressions (prior): %w", err)
	}
	ev.RefundsCurrent, err = s.refundCount(ctx, brand, oosProductIDs, cur)
	if err != nil {
		s.logError("stock_evidence", brand, err)
		return models.StockEvidence{}, fmt.Errorf("refunds (current): %w", err)
	}
	ev.RefundsPrior, err = s.refundCount(ctx, brand, oosProductIDs, prior)
	if err != nil {
		s.logError("stock_evidence", brand, err)
		return models.StockEvidence{}, fmt.Errorf("refunds (prior): %w", err)
	}
	return ev, nil
}

func (s *CHMetricsStore) adImpressionProducts(ctx context.Context, productIDs []string, w models.Window) (int, error) {
	q := fmt.Sprintf(`
        SELECT uniqExact(product_id)
        FROM %s
        WHERE date >= ? AND date < ? AND impressions > 0 AND product_id IN (%s)
    `, tableAdsProducts, placeholders(len(productIDs)))

	args := make([]interface{}, 0, len(productIDs)+2)
	args = append(args, w.Start, w.End)
	for _, id := range productIDs {
		args = append(args, id)
	}
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}

func (s *CHMetricsStore) refundCount(ctx context.Context, brand string, productIDs []string, w models.Window) (int, error) {
	q := fmt.Sprintf(`
        SELECT count()
        FROM %s
        WHERE brand = ? AND ts >= ? AND ts < ? AND refunded = 1 AND product_id IN (%s)
    `, tableOrderItems, placeholders(len(productIDs)))

	args := make([]interface{}, 0, len(productIDs)+3)
	args = append(args, brand, w.Start, w.End)
	for _, id := range productIDs {
		args = append(args, id)
	}
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}

func (s *CHMetricsStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func (s *CHMetricsStore) logError(op, brand string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse query error",
		applogger.String("op", op),
		applogger.String("brand", brand),
		applogger.Error(err),
	)
}

func (s *CHMetricsStore) logOK(op, brand string, rows int, d time.Duration) {
	if s.l == nil {
		return
	}
	s.l.Debug("clickhouse query ok",
		applogger.String("op", op),
		applogger.String("brand", brand),
		applogger.Int("rows", rows),
		applogger.Duration("duration_ms", d),
	)
}

var _ domrepo.MetricsAggregator = (*CHMetricsStore)(nil)
