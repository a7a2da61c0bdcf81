package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"StockPulse/internal/domain/repository"
	"StockPulse/internal/usecase"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/queue"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg          *config.Config
	log          *applogger.Logger
	router       xhttp.Handler
	scheduler    *usecase.EngineScheduler
	jobQueue     *queue.RedisQueue
	producer     *pkgkafka.Producer
	consumer     *pkgkafka.Consumer
	alertEvents  *usecase.AlertEventsHandler
	signalEvents *usecase.SignalEventsHandler
	collector    *usecase.StreamCollector
	publisher    repository.Publisher
	signals      repository.SignalStore
	chClient     *pkgch.Client
	redis        *redis.Client
	httpServer   *xhttp.Server
}

// New creates a new App instance with all dependencies. The collector may
// be nil when streaming is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	router xhttp.Handler,
	scheduler *usecase.EngineScheduler,
	jobQueue *queue.RedisQueue,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	alertEvents *usecase.AlertEventsHandler,
	signalEvents *usecase.SignalEventsHandler,
	collector *usecase.StreamCollector,
	publisher repository.Publisher,
	signals repository.SignalStore,
	chClient *pkgch.Client,
	redisClient *redis.Client,
) *App {
	return &App{
		cfg:          cfg,
		log:          log,
		router:       router,
		scheduler:    scheduler,
		jobQueue:     jobQueue,
		producer:     producer,
		consumer:     consumer,
		alertEvents:  alertEvents,
		signalEvents: signalEvents,
		collector:    collector,
		publisher:    publisher,
		signals:      signals,
		chClient:     chClient,
		redis:        redisClient,
	}
}

// Run starts every component and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if topic := a.cfg.Log.CollectorTopic; topic != "" && a.producer != nil {
		a.log.AttachCollector(&applogger.CollectorConfig{
			Topic:     topic,
			Publisher: a.producer,
		})
		a.log.Info("log collector attached", applogger.String("topic", topic))
	}

	if err := a.jobQueue.Start(); err != nil {
		return fmt.Errorf("job queue: %w", err)
	}

	if a.consumer != nil {
		a.consumer.RegisterHandler(a.alertEvents)
		a.consumer.RegisterHandler(a.signalEvents)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started",
			applogger.String("alerts_topic", a.alertEvents.Topic()),
			applogger.String("signals_topic", a.signalEvents.Topic()),
		)
	}

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("stream collector error", applogger.Error(err))
			}
		}()
		a.log.Info("stream collector started", applogger.Strings("symbols", a.cfg.Engine.Symbols))
	}

	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	a.httpServer = xhttp.NewServer(a.router, xhttp.ServerConfig{
		Port:            a.cfg.Server.Port,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	})
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then the engines, then closes clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if err := a.scheduler.Stop(ctx); err != nil {
		a.log.Warn("scheduler stop error", applogger.Error(err))
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("stream collector stop error", applogger.Error(err))
		}
	}

	if err := a.jobQueue.Stop(ctx); err != nil {
		a.log.Warn("job queue stop error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Flush collected log records while the producer can still ship them.
	a.log.DetachCollector()

	if err := a.publisher.Close(); err != nil {
		a.log.Warn("publisher close error", applogger.Error(err))
	}
	if err := a.signals.Close(); err != nil {
		a.log.Warn("signal store close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if err := a.redis.Close(); err != nil {
		a.log.Warn("redis close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
