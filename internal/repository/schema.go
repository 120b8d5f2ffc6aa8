package repository

// Schema returns the ClickHouse DDL for the analytical tables. Statements are
// idempotent so startup can run them unconditionally.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS brandpulse`,
		`CREATE TABLE IF NOT EXISTS brandpulse.order_items (
            ts          DateTime,
            order_id    String,
            product_id  String,
            sku         String,
            title       String,
            brand       LowCardinality(String),
            quantity    Int32,
            unit_price  Float64,
            revenue     Float64,
            cogs        Float64,
            has_cogs    UInt8,
            refunded    UInt8,
            cancelled   UInt8
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (brand, ts, product_id)`,
		`CREATE TABLE IF NOT EXISTS brandpulse.competitive_pricing (
            snapshot_ts             DateTime,
            sku                     String,
            brand                   LowCardinality(String),
            current_price           Float64,
            minimum_price           Nullable(Float64),
            rrp                     Nullable(Float64),
            lowest_competitor_price Nullable(Float64),
            margin_pct              Nullable(Float64)
        ) ENGINE = ReplacingMergeTree(snapshot_ts)
        ORDER BY (brand, sku)`,
		`CREATE TABLE IF NOT EXISTS brandpulse.ads_campaigns (
            date              Date,
            campaign_name     String,
            spend             Float64,
            revenue           Float64,
            impressions       Int64,
            clicks            Int64,
            impression_share  Float64,
            budget_lost_share Float64,
            rank_lost_share   Float64,
            status            LowCardinality(String),
            last_activity     DateTime
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(date)
        ORDER BY (campaign_name, date)`,
		`CREATE TABLE IF NOT EXISTS brandpulse.ads_product_perf (
            date        Date,
            product_id  String,
            impressions Int64,
            clicks      Int64,
            spend       Float64
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(date)
        ORDER BY (product_id, date)`,
		`CREATE TABLE IF NOT EXISTS brandpulse.search_queries (
            date        Date,
            query       String,
            clicks      Int64,
            impressions Int64
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(date)
        ORDER BY (query, date)`,
		`CREATE TABLE IF NOT EXISTS brandpulse.funnel_daily (
            date        Date,
            brand       LowCardinality(String),
            views       Int64,
            add_to_cart Int64,
            purchases   Int64
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(date)
        ORDER BY (brand, date)`,
		`CREATE TABLE IF NOT EXISTS brandpulse.inventory (
            snapshot_ts    DateTime,
            sku            String,
            product_id     String,
            brand          LowCardinality(String),
            quantity       Nullable(Int32),
            product_status LowCardinality(String),
            published      UInt8
        ) ENGINE = ReplacingMergeTree(snapshot_ts)
        ORDER BY (brand, sku)`,
	}
}
