package usecase

import (
	"context"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	mid "StockPulse/internal/middleware"
)

// StreamCollector feeds the live trade stream through the realtime
// pipeline into the quote cache, reconnecting when the stream drops.
type StreamCollector struct {
	stream  domrepo.MarketStream
	proc    *TickProcessor
	metrics domrepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewStreamCollector builds the collector. The pipeline may be nil; ticks
// then go straight to the processor with no throttle or buffering.
func NewStreamCollector(stream domrepo.MarketStream, proc *TickProcessor, metrics domrepo.Metrics, pipe *mid.RealtimePipeline) *StreamCollector {
	return &StreamCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

func (c *StreamCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes and launches the consume loop. It returns
// once the stream is up; consumption runs until ctx is cancelled.
func (c *StreamCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}

	ticks, errs := c.stream.Read(ctx)
	go c.consume(ctx, ticks, errs)
	return nil
}

func (c *StreamCollector) consume(ctx context.Context, ticks <-chan *models.Tick, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				// The read loop closes both channels together; the
				// ticks case handles recovery.
				errs = nil
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
			}
		case t, ok := <-ticks:
			if !ok {
				if !c.recover(ctx) {
					return
				}
				ticks, errs = c.stream.Read(ctx)
				continue
			}
			if t == nil {
				continue
			}
			c.deliver(ctx, t)
		}
	}
}

// recover redials until the stream is back or ctx ends. The stream's own
// Reconnect waits its configured delay between attempts.
func (c *StreamCollector) recover(ctx context.Context) bool {
	for ctx.Err() == nil {
		if err := c.stream.Reconnect(ctx); err == nil {
			return true
		}
		c.metrics.RecordError("stream_reconnect")
	}
	return false
}

func (c *StreamCollector) deliver(ctx context.Context, t *models.Tick) {
	if c.pipe != nil {
		_ = c.pipe.Process(ctx, t)
	} else {
		_ = c.proc.Process(ctx, t)
	}
	c.metrics.RecordLastPrice(t.Symbol, t.Price)
}

// Shutdown stops the pipeline flusher and closes the stream.
func (c *StreamCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
