package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

// DigestEngine publishes the end-of-day signal summary.
type DigestEngine struct {
	store   domrepo.SignalStore
	pub     domrepo.Publisher
	clock   domsvc.MarketClock
	metrics domrepo.Metrics
	log     *applogger.Logger
}

// NewDigestEngine creates the engine.
func NewDigestEngine(store domrepo.SignalStore, pub domrepo.Publisher, clock domsvc.MarketClock, metrics domrepo.Metrics, log *applogger.Logger) *DigestEngine {
	return &DigestEngine{store: store, pub: pub, clock: clock, metrics: metrics, log: log}
}

// RunScheduled fires once per day after the close. Weekends produce
// nothing.
func (d *DigestEngine) RunScheduled() {
	now := time.Now().In(d.clock.Location())
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		d.log.Debug("digest skipped, not a trading day")
		return
	}
	if err := d.Run(context.Background(), now); err != nil {
		d.log.Error("digest failed", applogger.Error(err))
	}
}

// Run summarizes the trading day containing the given instant and
// publishes the digest. A day without signals publishes nothing.
func (d *DigestEngine) Run(ctx context.Context, day time.Time) error {
	from, to := util.DayWindow(day, d.clock.Location())
	to = to.Add(-time.Second)

	digest, err := d.store.Summarize(ctx, from, to)
	if err != nil {
		d.metrics.RecordError("digest")
		return fmt.Errorf("summarize signals: %w", err)
	}
	if digest.Total == 0 {
		d.log.Debug("digest skipped, no signals", applogger.String("date", digest.Date))
		return nil
	}

	if err := d.pub.PublishDigest(ctx, digest); err != nil {
		d.metrics.RecordError("publish")
		return fmt.Errorf("publish digest: %w", err)
	}
	d.log.Info("digest published",
		applogger.String("date", digest.Date),
		applogger.Int("signals", digest.Total),
	)
	return nil
}
