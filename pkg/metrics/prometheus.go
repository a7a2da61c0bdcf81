package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	quoteFetches    *prometheus.CounterVec
	cacheEvents     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	alertsTriggered *prometheus.CounterVec
	signalsEmitted  *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		quoteFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_quote_fetches_total",
				Help: "Total number of quote fetches per source and outcome",
			},
			[]string{"source", "outcome"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_cache_events_total",
				Help: "Cache hits and misses per key class",
			},
			[]string{"class", "event"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		alertsTriggered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_alerts_triggered_total",
				Help: "Total number of alert conditions triggered",
			},
			[]string{"kind"},
		),
		signalsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_signals_total",
				Help: "Total number of scanner signals emitted",
			},
			[]string{"kind"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records a quote fetch attempt against a source.
func (r *Recorder) RecordFetch(source, outcome string) {
	r.quoteFetches.WithLabelValues(source, outcome).Inc()
}

// RecordCacheEvent records a cache hit or miss for a key class.
func (r *Recorder) RecordCacheEvent(class, event string) {
	r.cacheEvents.WithLabelValues(class, event).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAlertTriggered records a triggered alert condition.
func (r *Recorder) RecordAlertTriggered(kind string) {
	r.alertsTriggered.WithLabelValues(kind).Inc()
}

// RecordSignal records an emitted scanner signal.
func (r *Recorder) RecordSignal(kind string) {
	r.signalsEmitted.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
