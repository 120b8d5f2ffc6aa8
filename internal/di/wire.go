//go:build wireinject
// +build wireinject

package di

import (
	"BrandPulse/pkg/config"
	"BrandPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
    wire.Build(
        // Ambient services
        ProvideLogger,
        ProvideMetrics,

        // Infrastructure clients
        ProvideClickHouseClient,
        ProvideKafkaProducer,
        ProvideKafkaConsumer,
        ProvideCache,

        // Repositories
        ProvideBrandRegistry,
        ProvideMetricsStore,
        ProvideDecisionPublisher,

        // Use cases
        ProvideDiagnoseUseCase,
        ProvideDecisionEngine,
        ProvideDecideUseCase,
        ProvidePortfolioUseCase,
        ProvideSyncEventsHandler,

        // HTTP and application server
        ProvideHTTPHandler,
        ProvideApp,
    )
    return &server.App{}, nil
}
