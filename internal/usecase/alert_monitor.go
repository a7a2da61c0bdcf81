package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	applogger "StockPulse/pkg/logger"
)

// AlertMonitor evaluates every live alert on a fixed cycle. Each cycle
// fetches each distinct symbol once and evaluates all of its alerts
// against that snapshot, so two alerts on one symbol can never see
// different prices within a cycle.
type AlertMonitor struct {
	store   domrepo.AlertStore
	agg     domsvc.Aggregator
	inds    domsvc.IndicatorProvider
	pub     domrepo.Publisher
	metrics domrepo.Metrics
	log     *applogger.Logger
}

// NewAlertMonitor creates the monitor.
func NewAlertMonitor(
	store domrepo.AlertStore,
	agg domsvc.Aggregator,
	inds domsvc.IndicatorProvider,
	pub domrepo.Publisher,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *AlertMonitor {
	return &AlertMonitor{store: store, agg: agg, inds: inds, pub: pub, metrics: metrics, log: log}
}

// RunScheduled is the recurring entry point.
func (m *AlertMonitor) RunScheduled() {
	if err := m.Cycle(context.Background()); err != nil {
		m.log.Error("alert cycle failed", applogger.Error(err))
	}
}

// Cycle runs one evaluation pass. A symbol whose quote cannot be fetched
// leaves its alerts untouched for the next cycle; a failure on one alert
// never blocks the rest.
func (m *AlertMonitor) Cycle(ctx context.Context) error {
	start := time.Now()
	alerts, err := m.store.ListActive(ctx)
	if err != nil {
		m.metrics.RecordError("alert_load")
		return fmt.Errorf("load alerts: %w", err)
	}
	if len(alerts) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(alerts))
	seen := make(map[string]struct{}, len(alerts))
	for _, a := range alerts {
		if _, ok := seen[a.Symbol]; ok {
			continue
		}
		seen[a.Symbol] = struct{}{}
		symbols = append(symbols, a.Symbol)
	}
	quotes := m.agg.GetManyQuotes(ctx, symbols)

	// Indicator sets are memoized per cycle so ten RSI alerts on one
	// symbol cost a single computation.
	memo := make(map[string]*models.IndicatorSet)
	triggered := 0
	for _, a := range alerts {
		res, ok := quotes[a.Symbol]
		if !ok || !res.OK() {
			continue
		}
		observed, hit := m.evaluate(ctx, a, res.Quote, memo)
		if !hit {
			continue
		}
		if err := m.trigger(ctx, a, observed); err != nil {
			m.log.Error("alert trigger failed", applogger.String("id", a.ID), applogger.Error(err))
			continue
		}
		triggered++
	}

	m.metrics.RecordLatency("alert_cycle", time.Since(start).Seconds())
	if triggered > 0 {
		m.log.Info("alert cycle complete",
			applogger.Int("alerts", len(alerts)),
			applogger.Int("triggered", triggered),
		)
	}
	return nil
}

func (m *AlertMonitor) evaluate(ctx context.Context, a *models.AlertCondition, q *models.Quote, memo map[string]*models.IndicatorSet) (float64, bool) {
	switch a.Kind {
	case models.AlertPriceAbove:
		return q.Price, q.Price > a.Target
	case models.AlertPriceBelow:
		return q.Price, q.Price < a.Target
	case models.AlertRSIAbove, models.AlertRSIBelow:
		set, ok := m.indicatorsFor(ctx, a.Symbol, memo)
		if !ok || set.RSI == nil {
			return 0, false
		}
		if a.Kind == models.AlertRSIAbove {
			return set.RSI.Value, set.RSI.Value > a.Target
		}
		return set.RSI.Value, set.RSI.Value < a.Target
	case models.AlertVolumeSpike:
		avg := q.AvgVolume
		if avg <= 0 {
			avg = 1
		}
		ratio := float64(q.Volume) / float64(avg)
		return ratio, ratio >= a.Target
	case models.AlertPercentGain:
		return q.ChangePercent, q.ChangePercent > a.Target
	case models.AlertPercentLoss:
		return q.ChangePercent, q.ChangePercent < -a.Target
	}
	return 0, false
}

// indicatorsFor caches indicator lookups for the duration of one cycle,
// including negative outcomes so a failing symbol is asked only once.
func (m *AlertMonitor) indicatorsFor(ctx context.Context, symbol string, memo map[string]*models.IndicatorSet) (*models.IndicatorSet, bool) {
	if set, ok := memo[symbol]; ok {
		return set, set != nil
	}
	set, err := m.inds.GetIndicators(ctx, symbol, false)
	if err != nil {
		m.log.Warn("indicators unavailable for alert",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		memo[symbol] = nil
		return nil, false
	}
	memo[symbol] = set
	return set, true
}

// trigger flips the one-shot latch and publishes the trigger event. The
// latch is flipped first; a publish failure never re-arms an alert.
func (m *AlertMonitor) trigger(ctx context.Context, a *models.AlertCondition, observed float64) error {
	now := time.Now()
	if err := m.store.MarkTriggered(ctx, a.ID, observed, now); err != nil {
		return fmt.Errorf("mark triggered: %w", err)
	}
	m.metrics.RecordAlertTriggered(string(a.Kind))
	m.log.Info("alert triggered",
		applogger.String("id", a.ID),
		applogger.String("symbol", a.Symbol),
		applogger.String("kind", string(a.Kind)),
		applogger.Float64("target", a.Target),
		applogger.Float64("observed", observed),
	)

	ev := &models.AlertTriggerEvent{
		AlertID:     a.ID,
		Owner:       a.Owner,
		Symbol:      a.Symbol,
		Kind:        a.Kind,
		Target:      a.Target,
		Observed:    observed,
		Message:     a.Message,
		TriggeredAt: now,
	}
	if err := m.pub.PublishAlert(ctx, ev); err != nil {
		m.metrics.RecordError("publish")
		m.log.Error("alert publish failed", applogger.String("id", a.ID), applogger.Error(err))
	}
	return nil
}
