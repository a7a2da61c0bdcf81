package di

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	"StockPulse/internal/handler/api"
	mid "StockPulse/internal/middleware"
	internalrepo "StockPulse/internal/repository"
	svcache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/finnhub"
	"StockPulse/internal/service/marketclock"
	"StockPulse/internal/service/notify"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/service/source"
	"StockPulse/internal/usecase"
	pkgcache "StockPulse/pkg/cache"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/queue"
	"StockPulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates the shared Redis client. Cache, alert store
// and job queue all ride on this one connection pool.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
}

// ProvideCacheBackend selects the cache backend from config.
func ProvideCacheBackend(cfg *config.Config, client *redis.Client) pkgcache.Service {
	switch cfg.Cache.Backend {
	case "redis":
		return pkgcache.NewRedisCacheFromClient(client, cfg.Cache.Prefix)
	case "layered":
		return pkgcache.NewLayeredCache(pkgcache.NewRedisCacheFromClient(client, cfg.Cache.Prefix))
	default:
		return pkgcache.NewMemoryCache()
	}
}

// ProvideMarketCache creates the domain cache with configured TTLs.
func ProvideMarketCache(cfg *config.Config, store pkgcache.Service) *svcache.MarketCache {
	return svcache.NewMarketCache(store,
		svcache.WithQuoteTTL(cfg.Cache.QuoteTTL),
		svcache.WithIndicatorTTL(cfg.Cache.IndicatorTTL),
		svcache.WithScannerTTL(cfg.Cache.ScannerTTL),
	)
}

// ProvideQuotaGuard creates the provider budget guard.
func ProvideQuotaGuard(store pkgcache.Service) domsvc.QuotaGuard {
	return ratelimit.New(store)
}

// ProvideYahooClient creates the Yahoo quote and history client.
func ProvideYahooClient(cfg *config.Config, log *applogger.Logger) *source.YahooClient {
	return source.NewYahooClient(cfg.Providers.Yahoo.BaseURL, cfg.Providers.Yahoo.Timeout, log)
}

// ProvideAlphaVantageClient creates the Alpha Vantage quote client.
func ProvideAlphaVantageClient(cfg *config.Config, guard domsvc.QuotaGuard, log *applogger.Logger) *source.AlphaVantageClient {
	return source.NewAlphaVantageClient(
		cfg.Providers.AlphaVantage.BaseURL,
		cfg.Providers.AlphaVantage.APIKey,
		cfg.Providers.AlphaVantage.DailyLimit,
		cfg.Providers.AlphaVantage.Timeout,
		guard,
		log,
	)
}

// ProvideFinnhubQuoteClient creates the Finnhub REST quote client.
func ProvideFinnhubQuoteClient(cfg *config.Config, guard domsvc.QuotaGuard, log *applogger.Logger) *source.FinnhubClient {
	return source.NewFinnhubClient(
		cfg.Providers.Finnhub.BaseURL,
		cfg.Providers.Finnhub.APIKey,
		cfg.Providers.Finnhub.MinuteLimit,
		cfg.Providers.Finnhub.Timeout,
		guard,
		log,
	)
}

// ProvideSourceChain assembles the provider fallback chain. Slice order is
// priority order.
func ProvideSourceChain(y *source.YahooClient, av *source.AlphaVantageClient, fh *source.FinnhubClient) []repository.SourceAdapter {
	return []repository.SourceAdapter{y, av, fh}
}

// ProvideSeriesSource exposes Yahoo as the only history source.
func ProvideSeriesSource(y *source.YahooClient) repository.SeriesSource {
	return y
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(pkgch.Config{
		Host:         cfg.ClickHouse.Host,
		Port:         cfg.ClickHouse.Port,
		Database:     cfg.ClickHouse.Database,
		User:         cfg.ClickHouse.User,
		Password:     cfg.ClickHouse.Password,
		UseHTTP:      cfg.ClickHouse.UseHTTP,
		AsyncInsert:  cfg.ClickHouse.AsyncInsert,
		WaitForAsync: cfg.ClickHouse.WaitForAsync,
		DialTimeout:  cfg.ClickHouse.DialTimeout,
		ReadTimeout:  cfg.ClickHouse.ReadTimeout,
		MaxExecTime:  cfg.ClickHouse.MaxExecutionTime,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSignalStore creates the ClickHouse signal store and ensures its
// schema before anything can append.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config, log *applogger.Logger) (repository.SignalStore, error) {
	store := internalrepo.NewCHSignalStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = chClient.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Compression:  cfg.Kafka.Compression,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		Linger:       cfg.Kafka.Producer.Linger,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		Async:        cfg.Kafka.Producer.Async,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the Kafka event publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.AlertsTopic, cfg.Kafka.SignalsTopic)
}

// ProvideKafkaConsumer creates the notification consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:    cfg.Kafka.Brokers,
		GroupID:    cfg.Kafka.Consumer.GroupID,
		Workers:    cfg.Kafka.Consumer.Workers,
		Buffer:     cfg.Kafka.Consumer.BufferSize,
		RetryMax:   cfg.Kafka.Consumer.RetryMax,
		BackoffMin: cfg.Kafka.Consumer.BackoffMin,
		BackoffMax: cfg.Kafka.Consumer.BackoffMax,
		DLQTopic:   cfg.Kafka.Consumer.DLQTopic,
		MinBytes:   cfg.Kafka.Consumer.MinBytes,
		MaxBytes:   cfg.Kafka.Consumer.MaxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideNotifier creates the delivery sink for consumed events.
func ProvideNotifier(log *applogger.Logger) repository.Notifier {
	return notify.NewLogNotifier(log)
}

// ProvideAlertEventsHandler handles the alerts topic.
func ProvideAlertEventsHandler(cfg *config.Config, n repository.Notifier, m repository.Metrics) *usecase.AlertEventsHandler {
	return usecase.NewAlertEventsHandler(cfg.Kafka.AlertsTopic, n, m)
}

// ProvideSignalEventsHandler handles the signals topic.
func ProvideSignalEventsHandler(cfg *config.Config, n repository.Notifier, m repository.Metrics) *usecase.SignalEventsHandler {
	return usecase.NewSignalEventsHandler(cfg.Kafka.SignalsTopic, n, m)
}

// ProvideAlertStore creates the Redis alert store.
func ProvideAlertStore(client *redis.Client, cfg *config.Config) repository.AlertStore {
	return internalrepo.NewRedisAlertStore(client, cfg.Cache.Prefix)
}

// ProvideMarketClock creates the exchange calendar clock.
func ProvideMarketClock(cfg *config.Config) (domsvc.MarketClock, error) {
	clock, err := marketclock.New(cfg.Market.Timezone, cfg.Market.Open, cfg.Market.Close)
	if err != nil {
		return nil, fmt.Errorf("market clock: %w", err)
	}
	return clock, nil
}

// ProvideAggregator creates the quote aggregation use case.
func ProvideAggregator(
	cfg *config.Config,
	cache *svcache.MarketCache,
	sources []repository.SourceAdapter,
	series repository.SeriesSource,
	m repository.Metrics,
	log *applogger.Logger,
) domsvc.Aggregator {
	return usecase.NewMarketAggregator(cache, sources, series, m, log, cfg.Engine.FanOut, cfg.Engine.FetchTimeout)
}

// ProvideIndicatorProvider creates the indicator computation use case.
func ProvideIndicatorProvider(agg domsvc.Aggregator, cache *svcache.MarketCache, m repository.Metrics, log *applogger.Logger) domsvc.IndicatorProvider {
	return usecase.NewIndicatorEngine(agg, cache, m, log)
}

// ProvideScanner creates the signal scanner.
func ProvideScanner(
	cfg *config.Config,
	agg domsvc.Aggregator,
	inds domsvc.IndicatorProvider,
	clock domsvc.MarketClock,
	store repository.SignalStore,
	pub repository.Publisher,
	cache *svcache.MarketCache,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Scanner {
	return usecase.NewScanner(usecase.ScannerConfig{
		Universe:         cfg.Engine.Symbols,
		RSIOversold:      cfg.Engine.RSIOversold,
		RSIOverbought:    cfg.Engine.RSIOverbought,
		VolumeSpikeRatio: cfg.Engine.VolumeSpikeRatio,
		BreakoutPct:      cfg.Engine.BreakoutPct,
		FanOut:           cfg.Engine.FanOut,
	}, agg, inds, clock, store, pub, cache, m, log)
}

// ProvideAlertService creates the alert CRUD service.
func ProvideAlertService(store repository.AlertStore, agg domsvc.Aggregator, log *applogger.Logger) *usecase.AlertService {
	return usecase.NewAlertService(store, agg, log)
}

// ProvideAlertMonitor creates the alert evaluation engine.
func ProvideAlertMonitor(
	store repository.AlertStore,
	agg domsvc.Aggregator,
	inds domsvc.IndicatorProvider,
	pub repository.Publisher,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.AlertMonitor {
	return usecase.NewAlertMonitor(store, agg, inds, pub, m, log)
}

// ProvideDigestEngine creates the daily digest engine.
func ProvideDigestEngine(
	store repository.SignalStore,
	pub repository.Publisher,
	clock domsvc.MarketClock,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.DigestEngine {
	return usecase.NewDigestEngine(store, pub, clock, m, log)
}

// ProvideScheduler creates the cron scheduler for all recurring cycles.
func ProvideScheduler(
	cfg *config.Config,
	clock domsvc.MarketClock,
	scanner *usecase.Scanner,
	monitor *usecase.AlertMonitor,
	digest *usecase.DigestEngine,
	log *applogger.Logger,
) *usecase.EngineScheduler {
	return usecase.NewEngineScheduler(usecase.ScheduleConfig{
		AlertInterval: cfg.Engine.AlertInterval,
		ScanInterval:  cfg.Engine.ScanInterval,
		DigestEnabled: cfg.Digest.Enabled,
		DigestAt:      cfg.Digest.At,
	}, clock, scanner, monitor, digest, log)
}

// ProvideScanJob creates the queue job for on-demand sweeps.
func ProvideScanJob(scanner *usecase.Scanner, log *applogger.Logger) *usecase.ScanJob {
	return usecase.NewScanJob(scanner, log)
}

// ProvideJobQueue creates the Redis job queue with the scan job registered.
// Not started here; the app starts it once everything else is wired.
func ProvideJobQueue(cfg *config.Config, log *applogger.Logger, client *redis.Client, job *usecase.ScanJob) *queue.RedisQueue {
	q := queue.NewRedisQueue(log, queue.Config{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client)
	q.RegisterJob(job)
	return q
}

// ProvideStreamCollector creates the live tick ingestion path, or nil when
// streaming is disabled.
func ProvideStreamCollector(cfg *config.Config, cache *svcache.MarketCache, m repository.Metrics, log *applogger.Logger) *usecase.StreamCollector {
	if !cfg.Stream.Enabled {
		return nil
	}
	stream := finnhub.New(finnhub.Config{
		APIKey:         cfg.Providers.Finnhub.APIKey,
		URL:            cfg.Providers.Finnhub.WebSocketURL,
		Symbols:        cfg.Engine.Symbols,
		ReconnectDelay: cfg.Providers.Finnhub.ReconnectDelay,
		PingInterval:   cfg.Providers.Finnhub.PingInterval,
	}, log)
	proc := usecase.NewTickProcessor(cache, log)
	pipe := mid.NewRealtimePipeline(proc, m, mid.PipelineConfig{
		ThrottleSpan: cfg.Stream.ThrottleSpan,
		BufferSize:   1000,
	})
	return usecase.NewStreamCollector(stream, proc, m, pipe)
}

// ProvideSignalQuery creates the signal log query use case.
func ProvideSignalQuery(store repository.SignalStore) *usecase.SignalQueryUseCase {
	return usecase.NewSignalQueryUseCase(store)
}

// ProvideMarketHandler creates the quote and indicator API handler.
func ProvideMarketHandler(log *applogger.Logger, agg domsvc.Aggregator, inds domsvc.IndicatorProvider) *api.MarketHandler {
	return api.NewMarketHandler(log, agg, inds)
}

// ProvideSignalsHandler creates the signal log and scanner API handler.
func ProvideSignalsHandler(log *applogger.Logger, q *usecase.SignalQueryUseCase, scanner *usecase.Scanner, jobs *queue.RedisQueue) *api.SignalsHandler {
	return api.NewSignalsHandler(log, q, scanner, jobs)
}

// ProvideAlertsHandler creates the alert CRUD API handler.
func ProvideAlertsHandler(log *applogger.Logger, alerts *usecase.AlertService) *api.AlertsHandler {
	return api.NewAlertsHandler(log, alerts)
}

// ProvideRouter bundles the API handlers for the HTTP server.
func ProvideRouter(market *api.MarketHandler, signals *api.SignalsHandler, alerts *api.AlertsHandler) *api.Router {
	return api.NewRouter(market, signals, alerts)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	router *api.Router,
	scheduler *usecase.EngineScheduler,
	jobQueue *queue.RedisQueue,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	alertEvents *usecase.AlertEventsHandler,
	signalEvents *usecase.SignalEventsHandler,
	collector *usecase.StreamCollector,
	pub repository.Publisher,
	signals repository.SignalStore,
	chClient *pkgch.Client,
	redisClient *redis.Client,
) *server.App {
	return server.New(cfg, log, router, scheduler, jobQueue, producer, consumer, alertEvents, signalEvents, collector, pub, signals, chClient, redisClient)
}
