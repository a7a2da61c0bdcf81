package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	svcache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/source"
	applogger "StockPulse/pkg/logger"
)

// ScannerConfig carries the sweep universe and rule thresholds.
type ScannerConfig struct {
	Universe         []string
	RSIOversold      float64
	RSIOverbought    float64
	VolumeSpikeRatio float64
	BreakoutPct      float64
	FanOut           int
}

// Scanner sweeps the universe against a fixed rule battery and turns
// matches into persisted, published signals.
type Scanner struct {
	cfg     ScannerConfig
	agg     domsvc.Aggregator
	inds    domsvc.IndicatorProvider
	clock   domsvc.MarketClock
	store   domrepo.SignalStore
	pub     domrepo.Publisher
	cache   *svcache.MarketCache
	metrics domrepo.Metrics
	log     *applogger.Logger
}

// NewScanner creates the scanner engine.
func NewScanner(
	cfg ScannerConfig,
	agg domsvc.Aggregator,
	inds domsvc.IndicatorProvider,
	clock domsvc.MarketClock,
	store domrepo.SignalStore,
	pub domrepo.Publisher,
	cache *svcache.MarketCache,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *Scanner {
	if cfg.RSIOversold <= 0 {
		cfg.RSIOversold = 30
	}
	if cfg.RSIOverbought <= 0 {
		cfg.RSIOverbought = 70
	}
	if cfg.VolumeSpikeRatio <= 0 {
		cfg.VolumeSpikeRatio = 2.0
	}
	if cfg.BreakoutPct <= 0 {
		cfg.BreakoutPct = 0.5
	}
	if cfg.FanOut <= 0 {
		cfg.FanOut = 5
	}
	return &Scanner{
		cfg:     cfg,
		agg:     agg,
		inds:    inds,
		clock:   clock,
		store:   store,
		pub:     pub,
		cache:   cache,
		metrics: metrics,
		log:     log,
	}
}

// RunScheduled is the recurring entry point. Sweeps only run while the
// exchange trades; closed-market cycles are skipped, not queued.
func (s *Scanner) RunScheduled() {
	if !s.clock.IsOpen(time.Now()) {
		s.log.Debug("sweep skipped, market closed")
		return
	}
	s.Sweep(context.Background(), nil)
}

// Sweep evaluates the battery over the given symbols, nil meaning the
// configured universe. Signals found are published as one batch event,
// appended to the signal store, and the summary is cached. Per-symbol
// failures are isolated into the summary's error map.
func (s *Scanner) Sweep(ctx context.Context, symbols []string) *models.ScanSummary {
	if len(symbols) == 0 {
		symbols = s.cfg.Universe
	}

	start := time.Now()
	canon := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, raw := range symbols {
		sym := source.Canonical(raw)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		canon = append(canon, sym)
	}

	summary := &models.ScanSummary{
		SweptAt: start,
		Symbols: canon,
		Errors:  make(map[string]string),
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, s.cfg.FanOut)
		signals []models.Signal
	)
	for _, sym := range canon {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			found, err := s.scanSymbol(ctx, sym, start)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Errors[sym] = err.Error()
				return
			}
			signals = append(signals, found...)
		}(sym)
	}
	wg.Wait()

	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Symbol != signals[j].Symbol {
			return signals[i].Symbol < signals[j].Symbol
		}
		return signals[i].Kind < signals[j].Kind
	})
	summary.Signals = signals
	summary.DurationMS = time.Since(start).Milliseconds()
	if len(summary.Errors) == 0 {
		summary.Errors = nil
	}

	for _, sig := range signals {
		s.metrics.RecordSignal(string(sig.Kind))
	}
	s.metrics.RecordLatency("scan_sweep", time.Since(start).Seconds())

	if len(signals) > 0 {
		ev := &models.ScanBatchEvent{SweptAt: start, Symbols: canon, Signals: signals}
		if err := s.pub.PublishScanBatch(ctx, ev); err != nil {
			s.metrics.RecordError("publish")
			s.log.Error("scan batch publish failed", applogger.Error(err))
		}
		if err := s.store.Append(ctx, signals); err != nil {
			s.metrics.RecordError("persist")
			s.log.Error("signal persist failed", applogger.Int("signals", len(signals)), applogger.Error(err))
		}
	}

	if err := s.cache.SetScanSummary(ctx, summary); err != nil {
		s.log.Warn("sweep summary cache write failed", applogger.Error(err))
	}

	s.log.Info("sweep complete",
		applogger.Int("symbols", len(canon)),
		applogger.Int("signals", len(signals)),
		applogger.Int("errors", len(summary.Errors)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return summary
}

// Latest returns the most recent cached sweep summary.
func (s *Scanner) Latest(ctx context.Context) (*models.ScanSummary, error) {
	return s.cache.GetScanSummary(ctx)
}

func (s *Scanner) scanSymbol(ctx context.Context, symbol string, at time.Time) ([]models.Signal, error) {
	set, err := s.inds.GetIndicators(ctx, symbol, false)
	if err != nil {
		return nil, err
	}
	quote, err := s.agg.GetQuote(ctx, symbol, false)
	if err != nil {
		return nil, err
	}
	return s.evaluate(symbol, quote, set, at), nil
}

// evaluate runs the rule battery over one symbol's snapshot. Every signal
// it emits carries the snapshot values that were available.
func (s *Scanner) evaluate(symbol string, q *models.Quote, set *models.IndicatorSet, at time.Time) []models.Signal {
	base := models.Signal{Symbol: symbol, Price: q.Price, Timestamp: at}
	if set.RSI != nil {
		base.RSI = set.RSI.Value
	}
	if set.MACD != nil {
		base.MACDHist = set.MACD.Histogram
	}
	if set.Volume != nil {
		base.VolumeRatio = set.Volume.Ratio
	}

	var out []models.Signal
	emit := func(kind models.SignalKind, strength int, description string) {
		sig := base
		sig.Kind = kind
		sig.Strength = strength
		sig.Description = description
		out = append(out, sig)
	}

	if r := set.RSI; r != nil && r.Value != 0 {
		if r.Value < s.cfg.RSIOversold {
			emit(models.SignalRSIOversold, r.Strength, fmt.Sprintf("RSI at %.2f - Oversold zone", r.Value))
		} else if r.Value > s.cfg.RSIOverbought {
			emit(models.SignalRSIOverbought, r.Strength, fmt.Sprintf("RSI at %.2f - Overbought zone", r.Value))
		}
	}

	if m := set.MACD; m != nil {
		switch m.Crossover {
		case "BULLISH_CROSSOVER":
			emit(models.SignalMACDBullish, m.Strength, "MACD bullish crossover detected")
		case "BEARISH_CROSSOVER":
			emit(models.SignalMACDBearish, m.Strength, "MACD bearish crossover detected")
		}
	}

	if v := set.Volume; v != nil && v.Ratio > s.cfg.VolumeSpikeRatio {
		emit(models.SignalVolumeSpike, v.Strength, fmt.Sprintf("Volume spike: %.2fx average", v.Ratio))
	}

	if q.Week52High > 0 && q.Price >= q.Week52High*(1-s.cfg.BreakoutPct/100) {
		emit(models.SignalBreakout, 4, "Near 52-week high - Potential breakout")
	}
	if q.Week52Low > 0 && q.Price <= q.Week52Low*(1+s.cfg.BreakoutPct/100) {
		emit(models.SignalBreakdown, 4, "Near 52-week low - Potential breakdown")
	}

	return out
}
