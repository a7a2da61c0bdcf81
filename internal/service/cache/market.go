package cache

import (
	"context"
	"encoding/json"
	"time"

	"StockPulse/internal/domain/models"
	pkgcache "StockPulse/pkg/cache"
)

const (
	quotePrefix       = "quote"
	indicatorsPrefix  = "indicators"
	scannerResultsKey = "scanner:results"
)

// MarketCache wraps the shared cache store with the market domain's key
// vocabulary and TTL policy. All keys live under the store's own prefix.
type MarketCache struct {
	store        pkgcache.Service
	quoteTTL     time.Duration
	indicatorTTL time.Duration
	scannerTTL   time.Duration
}

// Option configures MarketCache.
type Option func(*MarketCache)

// WithQuoteTTL overrides how long spot quotes stay fresh.
func WithQuoteTTL(ttl time.Duration) Option {
	return func(m *MarketCache) {
		if ttl > 0 {
			m.quoteTTL = ttl
		}
	}
}

// WithIndicatorTTL overrides how long indicator sets stay fresh.
func WithIndicatorTTL(ttl time.Duration) Option {
	return func(m *MarketCache) {
		if ttl > 0 {
			m.indicatorTTL = ttl
		}
	}
}

// WithScannerTTL overrides how long the latest sweep summary is kept.
func WithScannerTTL(ttl time.Duration) Option {
	return func(m *MarketCache) {
		if ttl > 0 {
			m.scannerTTL = ttl
		}
	}
}

// NewMarketCache builds the domain cache over any cache backend.
func NewMarketCache(store pkgcache.Service, opts ...Option) *MarketCache {
	m := &MarketCache{
		store:        store,
		quoteTTL:     60 * time.Second,
		indicatorTTL: 5 * time.Minute,
		scannerTTL:   time.Hour,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// QuoteKey builds the cache key for a symbol's spot quote.
func (m *MarketCache) QuoteKey(symbol string) string {
	return pkgcache.Key(quotePrefix, symbol)
}

// IndicatorsKey builds the cache key for a symbol's indicator set.
func (m *MarketCache) IndicatorsKey(symbol string) string {
	return pkgcache.Key(indicatorsPrefix, symbol)
}

// GetQuote returns the cached quote or pkgcache.ErrCacheMiss.
func (m *MarketCache) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var q models.Quote
	if err := m.store.Get(ctx, m.QuoteKey(symbol), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// SetQuote stores a quote under its symbol for the quote TTL.
func (m *MarketCache) SetQuote(ctx context.Context, q *models.Quote) error {
	return m.store.Set(ctx, m.QuoteKey(q.Symbol), q, m.quoteTTL)
}

// GetQuotes returns whichever of the requested symbols are cached.
// Missing symbols are simply absent from the result.
func (m *MarketCache) GetQuotes(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = m.QuoteKey(s)
	}
	found, err := m.store.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*models.Quote, len(found))
	for _, s := range symbols {
		raw, ok := found[m.QuoteKey(s)]
		if !ok {
			continue
		}
		var q models.Quote
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			continue // stale or foreign payload, treat as a miss
		}
		out[s] = &q
	}
	return out, nil
}

// GetIndicators returns the cached indicator set or pkgcache.ErrCacheMiss.
func (m *MarketCache) GetIndicators(ctx context.Context, symbol string) (*models.IndicatorSet, error) {
	var set models.IndicatorSet
	if err := m.store.Get(ctx, m.IndicatorsKey(symbol), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// SetIndicators stores an indicator set for the indicator TTL.
func (m *MarketCache) SetIndicators(ctx context.Context, set *models.IndicatorSet) error {
	return m.store.Set(ctx, m.IndicatorsKey(set.Symbol), set, m.indicatorTTL)
}

// GetScanSummary returns the latest cached sweep or pkgcache.ErrCacheMiss.
func (m *MarketCache) GetScanSummary(ctx context.Context) (*models.ScanSummary, error) {
	var s models.ScanSummary
	if err := m.store.Get(ctx, scannerResultsKey, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetScanSummary stores the sweep outcome for the scanner TTL.
func (m *MarketCache) SetScanSummary(ctx context.Context, s *models.ScanSummary) error {
	return m.store.Set(ctx, scannerResultsKey, s, m.scannerTTL)
}

// DropSymbol evicts everything cached for a symbol. Used on forced
// refreshes so the next read goes upstream.
func (m *MarketCache) DropSymbol(ctx context.Context, symbol string) error {
	return m.store.Delete(ctx, m.QuoteKey(symbol), m.IndicatorsKey(symbol))
}
