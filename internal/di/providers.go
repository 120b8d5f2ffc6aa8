package di

import (
    "context"
    "fmt"
    "time"

    domrepo "BrandPulse/internal/domain/repository"
    "BrandPulse/internal/handler/api"
    internalrepo "BrandPulse/internal/repository"
    icache "BrandPulse/internal/service/cache"
    "BrandPulse/internal/services/brandmatch"
    "BrandPulse/internal/services/decision"
    "BrandPulse/internal/usecase"
    pkgch "BrandPulse/pkg/clickhouse"
    "BrandPulse/pkg/config"
    pkgkafka "BrandPulse/pkg/kafka"
    "BrandPulse/pkg/logger"
    "BrandPulse/pkg/metrics"
    "BrandPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is not
// configured (decisions then stay local to the HTTP response).
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer for sync events, or nil when
// no brokers or sync topic are configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.SyncTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideBrandRegistry builds brand matchers from configured terms.
func ProvideBrandRegistry(cfg *config.Config) *brandmatch.Registry {
	return brandmatch.NewRegistry(cfg.Brands)
}

// ProvideMetricsStore creates the ClickHouse-backed aggregator.
func ProvideMetricsStore(chClient *pkgch.Client, brands *brandmatch.Registry, l *logger.Logger) *internalrepo.CHMetricsStore {
	store := internalrepo.NewCHMetricsStore(chClient, brands)
	store.SetLogger(l)
	return store
}

// ProvideCache selects Redis when configured, falling back to in-process TTL.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideDecisionPublisher creates the Kafka decision publisher.
func ProvideDecisionPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.DecisionPublisher {
	if producer == nil || cfg.Kafka.DecisionsTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaDecisionPublisher(producer, cfg.Kafka.DecisionsTopic)
}

// ProvideDiagnoseUseCase creates the diagnosis use case.
func ProvideDiagnoseUseCase(
	store *internalrepo.CHMetricsStore,
	m domrepo.Metrics,
	l *logger.Logger,
	c icache.BytesCache,
	cfg *config.Config,
) *usecase.DiagnoseUseCase {
	return usecase.NewDiagnoseUseCase(store, m, l, c, cfg.Cache.DiagnosisTTL, cfg.Engine)
}

// ProvideDecisionEngine creates the pure decision engine.
func ProvideDecisionEngine(cfg *config.Config) *decision.Engine {
	return decision.NewEngine(cfg.Engine)
}

// ProvideDecideUseCase creates the decision use case.
func ProvideDecideUseCase(
	diagnose *usecase.DiagnoseUseCase,
	engine *decision.Engine,
	pub domrepo.DecisionPublisher,
	m domrepo.Metrics,
	l *logger.Logger,
	c icache.BytesCache,
	cfg *config.Config,
) *usecase.DecideUseCase {
	return usecase.NewDecideUseCase(diagnose, engine, pub, m, l, c, cfg.Cache.DecisionTTL)
}

// ProvidePortfolioUseCase creates the portfolio fan-out use case.
func ProvidePortfolioUseCase(decide *usecase.DecideUseCase, l *logger.Logger) *usecase.PortfolioUseCase {
	return usecase.NewPortfolioUseCase(decide, l)
}

// ProvideSyncEventsHandler registers the handler for sync completions.
func ProvideSyncEventsHandler(
	diagnose *usecase.DiagnoseUseCase,
	m domrepo.Metrics,
	l *logger.Logger,
	cfg *config.Config,
) *usecase.SyncEventsHandler {
	return usecase.NewSyncEventsHandler(cfg.Kafka.SyncTopic, diagnose, m, l)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	l *logger.Logger,
	diagnose *usecase.DiagnoseUseCase,
	decide *usecase.DecideUseCase,
	portfolio *usecase.PortfolioUseCase,
	store *internalrepo.CHMetricsStore,
	cfg *config.Config,
) *api.BrandsEchoHandler {
	return api.NewBrandsEchoHandler(l, diagnose, decide, portfolio, store, cfg.RateLimit)
}

// ProvideApp creates the application server.
func ProvideApp(
    cfg *config.Config,
    consumer *pkgkafka.Consumer,
    syncHandler *usecase.SyncEventsHandler,
    chClient *pkgch.Client,
    publisher domrepo.DecisionPublisher,
    h *api.BrandsEchoHandler,
) *server.App {
    if consumer != nil {
        consumer.WithConsumerHook(pkgkafka.NoopHook{})
    }
    app := server.New(cfg, consumer, syncHandler, chClient, publisher)
    app.SetHTTPHandler(h)
    return app
}
