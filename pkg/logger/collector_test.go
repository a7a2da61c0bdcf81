package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]CollectedRecord
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	if batch, ok := payload.([]CollectedRecord); ok {
		p.batches = append(p.batches, batch)
	}
	return nil
}

func (p *capturePublisher) shipped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func TestCollectorDedupesRepeats(t *testing.T) {
	pub := &capturePublisher{}
	c := NewCollector(&CollectorConfig{
		FlushEvery: time.Hour, // flush only via Close
		Topic:      "logs",
		Publisher:  pub,
	})

	fields := map[string]interface{}{"source": "yahoo"}
	for i := 0; i < 5; i++ {
		c.Record("error", "fetch failed", fields, "source/yahoo.go:42")
	}
	c.Record("warn", "slow sweep", nil, "usecase/scanner.go:120")
	c.Close()

	if pub.shipped() != 1 {
		t.Fatalf("expected one batch, got %d", pub.shipped())
	}
	batch := pub.batches[0]
	if len(batch) != 2 {
		t.Fatalf("expected 2 distinct records, got %d", len(batch))
	}
	for _, r := range batch {
		switch r.Message {
		case "fetch failed":
			if r.Count != 5 {
				t.Fatalf("expected count 5, got %d", r.Count)
			}
			if r.LastSeen.Before(r.FirstSeen) {
				t.Fatalf("bad occurrence span %v..%v", r.FirstSeen, r.LastSeen)
			}
		case "slow sweep":
			if r.Count != 1 {
				t.Fatalf("expected count 1, got %d", r.Count)
			}
		default:
			t.Fatalf("unexpected record %q", r.Message)
		}
	}
	if pub.topics[0] != "logs" {
		t.Fatalf("unexpected topic %q", pub.topics[0])
	}
}

func TestCollectorFlushesOnOverflow(t *testing.T) {
	pub := &capturePublisher{}
	c := NewCollector(&CollectorConfig{
		FlushEvery:  time.Hour,
		MaxDistinct: 3,
		Topic:       "logs",
		Publisher:   pub,
	})
	defer c.Close()

	c.Record("error", "a", nil, "x")
	c.Record("error", "b", nil, "x")
	if pub.shipped() != 0 {
		t.Fatalf("flushed before the distinct limit")
	}
	c.Record("error", "c", nil, "x")
	if pub.shipped() != 1 {
		t.Fatalf("expected overflow flush, got %d", pub.shipped())
	}
	if len(pub.batches[0]) != 3 {
		t.Fatalf("expected 3 records in overflow batch, got %d", len(pub.batches[0]))
	}
}

func TestCollectorDistinctFieldsAreDistinctRecords(t *testing.T) {
	pub := &capturePublisher{}
	c := NewCollector(&CollectorConfig{FlushEvery: time.Hour, Topic: "logs", Publisher: pub})

	c.Record("error", "fetch failed", map[string]interface{}{"symbol": "TCS"}, "x")
	c.Record("error", "fetch failed", map[string]interface{}{"symbol": "INFY"}, "x")
	c.Close()

	if pub.shipped() != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("records with different fields must not collapse: %+v", pub.batches)
	}
}
