package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	domsvc "StockPulse/internal/domain/service"
	applogger "StockPulse/pkg/logger"
)

// ScheduleConfig carries the cadence of the background engines.
type ScheduleConfig struct {
	AlertInterval time.Duration
	ScanInterval  time.Duration
	DigestEnabled bool
	DigestAt      string // HH:MM, market timezone
}

// EngineScheduler drives the recurring engines off one gocron scheduler
// running in the market timezone, so the digest's At time means exchange
// local time wherever the process runs.
type EngineScheduler struct {
	cron    *gocron.Scheduler
	cfg     ScheduleConfig
	scanner *Scanner
	alerts  *AlertMonitor
	digest  *DigestEngine
	log     *applogger.Logger
	wg      sync.WaitGroup
}

// NewEngineScheduler creates the scheduler. Nothing runs until Start.
func NewEngineScheduler(
	cfg ScheduleConfig,
	clock domsvc.MarketClock,
	scanner *Scanner,
	alerts *AlertMonitor,
	digest *DigestEngine,
	log *applogger.Logger,
) *EngineScheduler {
	if cfg.AlertInterval <= 0 {
		cfg.AlertInterval = time.Minute
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 5 * time.Minute
	}
	return &EngineScheduler{
		cron:    gocron.NewScheduler(clock.Location()),
		cfg:     cfg,
		scanner: scanner,
		alerts:  alerts,
		digest:  digest,
		log:     log,
	}
}

// Start registers every cycle and launches the scheduler. Cycles run in
// singleton mode; a slow sweep delays the next one instead of stacking.
func (s *EngineScheduler) Start() error {
	if _, err := s.cron.Every(s.cfg.AlertInterval).SingletonMode().Do(s.guard(s.alerts.RunScheduled)); err != nil {
		return fmt.Errorf("schedule alert cycle: %w", err)
	}
	if _, err := s.cron.Every(s.cfg.ScanInterval).SingletonMode().Do(s.guard(s.scanner.RunScheduled)); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	if s.cfg.DigestEnabled {
		if _, err := s.cron.Every(1).Day().At(s.cfg.DigestAt).SingletonMode().Do(s.guard(s.digest.RunScheduled)); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	}

	s.cron.StartAsync()
	s.log.Info("engine scheduler started",
		applogger.Duration("alert_interval", s.cfg.AlertInterval),
		applogger.Duration("scan_interval", s.cfg.ScanInterval),
		applogger.Bool("digest", s.cfg.DigestEnabled),
	)
	return nil
}

// guard tracks in-flight cycles so Stop can wait them out.
func (s *EngineScheduler) guard(job func()) func() {
	return func() {
		s.wg.Add(1)
		defer s.wg.Done()
		job()
	}
}

// Stop halts scheduling and waits for in-flight cycles so a triggered
// alert is never torn from its notification.
func (s *EngineScheduler) Stop(ctx context.Context) error {
	s.cron.Stop()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
