package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
)

// Proc is the downstream a pipeline feeds, usually the tick processor.
type Proc interface {
	Process(ctx context.Context, t *models.Tick) error
}

// PipelineConfig tunes the realtime tick pipeline.
type PipelineConfig struct {
	// ThrottleSpan is the minimum gap between accepted ticks per symbol.
	ThrottleSpan time.Duration
	// BufferSize bounds the retry buffer used when downstream fails.
	BufferSize int
	// Transform, when set, rewrites each tick before validation and
	// forwarding. Feed adapters use it to strip exchange prefixes.
	Transform func(*models.Tick) *models.Tick
}

func (c *PipelineConfig) fill() {
	if c.ThrottleSpan <= 0 {
		c.ThrottleSpan = 2 * time.Second
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 1000
	}
}

// RealtimePipeline sits between the websocket feed and the quote cache.
// Malformed ticks are rejected, non-positive prices dropped, and each
// symbol is throttled to one tick per span. Ticks that fail downstream
// land in a bounded buffer that Start drains with backoff.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	cfg     PipelineConfig

	buf  chan *models.Tick
	stop chan struct{}

	mu       sync.Mutex
	running  bool
	lastSeen map[string]time.Time
}

// NewRealtimePipeline builds an idle pipeline; call Start to drain the
// retry buffer in the background.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, cfg PipelineConfig) *RealtimePipeline {
	cfg.fill()
	return &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		cfg:      cfg,
		buf:      make(chan *models.Tick, cfg.BufferSize),
		stop:     make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
}

// Process validates, throttles, and forwards one tick. A downstream
// failure buffers the tick for the flusher and returns the error.
func (p *RealtimePipeline) Process(ctx context.Context, t *models.Tick) error {
	start := time.Now()

	if err := checkTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if t.Price <= 0 {
		// Feed noise, not an error.
		p.metrics.RecordError("pipeline_drop_price")
		return nil
	}
	if p.cfg.Transform != nil {
		t = p.cfg.Transform(t)
		if err := checkTick(t); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.admit(t.Symbol, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.buf <- t:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.buf)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}

	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// Start launches the flusher that retries buffered ticks.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	go p.flush(ctx)
}

// Stop halts the flusher. Buffered ticks stay in the channel.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stop)
}

func (p *RealtimePipeline) flush(ctx context.Context) {
	const minWait, maxWait = 50 * time.Millisecond, 2 * time.Second
	wait := minWait

	for {
		select {
		case <-p.stop:
			return
		case t := <-p.buf:
			if t == nil {
				continue
			}
			if err := p.proc.Process(ctx, t); err != nil {
				p.metrics.RecordError("pipeline_flush")
				if wait < maxWait {
					wait *= 2
				}
				time.Sleep(wait)
				select {
				case p.buf <- t:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
				}
				continue
			}
			wait = minWait
		}
	}
}

// admit enforces the per-symbol throttle window.
func (p *RealtimePipeline) admit(symbol string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if last, ok := p.lastSeen[symbol]; ok && now.Sub(last) < p.cfg.ThrottleSpan {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}

func checkTick(t *models.Tick) error {
	switch {
	case t == nil:
		return fmt.Errorf("tick nil")
	case t.Symbol == "":
		return fmt.Errorf("symbol empty")
	case t.Timestamp.IsZero():
		return fmt.Errorf("timestamp invalid")
	case t.Volume < 0:
		return fmt.Errorf("negative volume")
	}
	return nil
}
