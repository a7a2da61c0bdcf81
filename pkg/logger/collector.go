package logger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Publisher ships a batch of aggregated records somewhere durable,
// typically the Kafka event stream.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// CollectorConfig tunes aggregation and shipping.
type CollectorConfig struct {
	FlushEvery   time.Duration // periodic flush interval
	MaxDistinct  int           // flush early past this many distinct records
	Topic        string
	Publisher    Publisher
	FlushTimeout time.Duration // per-shipment publish deadline
}

// CollectedRecord is one deduplicated warn/error with its occurrence span.
type CollectedRecord struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// Collector deduplicates warn/error records by content hash and ships
// them in batches, so a failing provider logging every cycle becomes one
// record with a count instead of a flood.
type Collector struct {
	cfg CollectorConfig

	mu      sync.Mutex
	pending map[string]*CollectedRecord

	done chan struct{}
	wg   sync.WaitGroup
}

func NewCollector(cfg *CollectorConfig) *Collector {
	c := &Collector{
		cfg:     *cfg,
		pending: make(map[string]*CollectedRecord),
		done:    make(chan struct{}),
	}
	if c.cfg.FlushEvery <= 0 {
		c.cfg.FlushEvery = 30 * time.Second
	}
	if c.cfg.MaxDistinct <= 0 {
		c.cfg.MaxDistinct = 100
	}
	if c.cfg.FlushTimeout <= 0 {
		c.cfg.FlushTimeout = 15 * time.Second
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// Record folds one log occurrence into the pending batch.
func (c *Collector) Record(level, msg string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := dedupeKey(level, msg, fields, caller)

	c.mu.Lock()
	if r, ok := c.pending[key]; ok {
		r.Count++
		r.LastSeen = now
	} else {
		c.pending[key] = &CollectedRecord{
			Level:     level,
			Message:   msg,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	overflow := len(c.pending) >= c.cfg.MaxDistinct
	var batch []CollectedRecord
	if overflow {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	if overflow {
		c.ship(batch)
	}
}

func dedupeKey(level, msg string, fields map[string]interface{}, caller string) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"level": level, "msg": msg, "fields": fields, "caller": caller,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (c *Collector) loop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.FlushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *Collector) flush() {
	c.mu.Lock()
	batch := c.drainLocked()
	c.mu.Unlock()
	c.ship(batch)
}

func (c *Collector) drainLocked() []CollectedRecord {
	if len(c.pending) == 0 {
		return nil
	}
	batch := make([]CollectedRecord, 0, len(c.pending))
	for _, r := range c.pending {
		batch = append(batch, *r)
	}
	c.pending = make(map[string]*CollectedRecord)
	return batch
}

func (c *Collector) ship(batch []CollectedRecord) {
	if len(batch) == 0 || c.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.FlushTimeout)
	defer cancel()
	if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
		// The collector cannot log through the Logger without recursing.
		fmt.Printf("log collector: ship failed: %v\n", err)
	}
}

// Close flushes pending records and stops the loop.
func (c *Collector) Close() {
	close(c.done)
	c.wg.Wait()
}
