//go:build wireinject
// +build wireinject

package di

import (
	"StockPulse/pkg/config"
	"StockPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideCacheBackend,
		ProvideMarketCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Market data providers and stores
		ProvideQuotaGuard,
		ProvideYahooClient,
		ProvideAlphaVantageClient,
		ProvideFinnhubQuoteClient,
		ProvideSourceChain,
		ProvideSeriesSource,
		ProvideSignalStore,
		ProvidePublisher,
		ProvideAlertStore,
		ProvideNotifier,
		ProvideMarketClock,

		// Use cases
		ProvideAggregator,
		ProvideIndicatorProvider,
		ProvideScanner,
		ProvideAlertService,
		ProvideAlertMonitor,
		ProvideDigestEngine,
		ProvideScheduler,
		ProvideScanJob,
		ProvideJobQueue,
		ProvideStreamCollector,
		ProvideSignalQuery,
		ProvideAlertEventsHandler,
		ProvideSignalEventsHandler,

		// HTTP surface
		ProvideMarketHandler,
		ProvideSignalsHandler,
		ProvideAlertsHandler,
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
