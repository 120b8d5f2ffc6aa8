package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers        []string `yaml:"brokers"`
		DecisionsTopic string   `yaml:"decisions_topic"`
		SyncTopic      string   `yaml:"sync_topic"`
		RequiredAcks   int      `yaml:"required_acks"`
		Compression    string   `yaml:"compression"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Cache struct {
		DiagnosisTTL time.Duration `yaml:"diagnosis_ttl" default:"15m"`
		DecisionTTL  time.Duration `yaml:"decision_ttl" default:"15m"`
		Redis        struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit RateLimit    `yaml:"rate_limit"`
	Brands []BrandTerms `yaml:"brands"`
	Engine Engine       `yaml:"engine"`
}

// RateLimit bounds per-client request rates on the API.
type RateLimit struct {
	RPS   float64 `yaml:"rps" default:"20"`
	Burst int     `yaml:"burst" default:"40"`
}

// BrandTerms configures campaign/query matching for one brand.
type BrandTerms struct {
	Name         string   `yaml:"name"`
	MatchTerms   []string `yaml:"match_terms"`
	ExcludeTerms []string `yaml:"exclude_terms"`
}

// Engine holds the analysis thresholds. Every constant here is a tuning knob
// with the production default baked in via `default` tags, so an empty YAML
// section yields the standard behavior.
type Engine struct {
	DefaultPeriodDays int     `yaml:"default_period_days" default:"30"`
	NoiseP0Threshold  float64 `yaml:"noise_p0_threshold" default:"0.2"`
	Trend             struct {
		StepThreshold    float64 `yaml:"step_threshold" default:"0.05"`
		FlatSumThreshold float64 `yaml:"flat_sum_threshold" default:"0.1"`
		NumWeeks         int     `yaml:"num_weeks" default:"8"`
	} `yaml:"trend"`
	Anomaly struct {
		RevenueYoYPct   float64 `yaml:"revenue_yoy_pct" default:"40"`
		LosingMoneySKUs int     `yaml:"losing_money_skus" default:"3"`
		ROASYoYPct      float64 `yaml:"roas_yoy_pct" default:"50"`
		ClicksYoYPct    float64 `yaml:"clicks_yoy_pct" default:"40"`
		ViewToCartPP    float64 `yaml:"view_to_cart_pp" default:"5"`
		RefundRatePP    float64 `yaml:"refund_rate_pp" default:"3"`
	} `yaml:"anomaly"`
	Momentum struct {
		RevenueWeight      float64 `yaml:"revenue_weight" default:"0.5"`
		DemandWeight       float64 `yaml:"demand_weight" default:"0.4"`
		AdsWeight          float64 `yaml:"ads_weight" default:"0.25"`
		ViewToCartWeight   float64 `yaml:"view_to_cart_weight" default:"1.5"`
		CartToBuyWeight    float64 `yaml:"cart_to_purchase_weight" default:"2.5"`
		WeeklyRevenueShare float64 `yaml:"weekly_revenue_share" default:"0.5"`
		WeeklyAdsShare     float64 `yaml:"weekly_ads_share" default:"0.3"`
		WeeklySearchShare  float64 `yaml:"weekly_search_share" default:"0.2"`
	} `yaml:"momentum"`
	Stock struct {
		AddToCartCollapsePP float64 `yaml:"add_to_cart_collapse_pp" default:"5"`
		RefundSpikePct      float64 `yaml:"refund_spike_pct" default:"50"`
		MaxWeight           float64 `yaml:"max_weight" default:"0.8"`
		FloorWeight         float64 `yaml:"floor_weight" default:"0.01"`
		LowStockUnits       int     `yaml:"low_stock_units" default:"3"`
	} `yaml:"stock"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Fill zero-value fields with tagged defaults
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_DECISIONS_TOPIC"); v != "" {
		c.Kafka.DecisionsTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when redis is enabled")
	}
	for i, b := range c.Brands {
		if b.Name == "" {
			return fmt.Errorf("brands[%d].name is required", i)
		}
	}
	return nil
}
