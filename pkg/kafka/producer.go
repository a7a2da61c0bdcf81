package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// ProducerConfig sizes the shared writer. Zero values fall back to
// defaults suitable for low-volume event streams.
type ProducerConfig struct {
	Brokers      []string
	Compression  string // gzip, snappy, lz4, zstd
	RequiredAcks int    // -1 = all
	MaxAttempts  int
	BatchSize    int
	BatchBytes   int
	Linger       time.Duration
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	Async        bool
}

func (c *ProducerConfig) fill() {
	if c.Compression == "" {
		c.Compression = "gzip"
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchBytes <= 0 {
		c.BatchBytes = 1 << 20
	}
	if c.Linger <= 0 {
		c.Linger = time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
}

// Producer publishes JSON events. Messages are key-hashed so everything
// for one key lands on one partition and consumers see it in order.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds a producer over the configured brokers.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka producer: brokers are required")
	}
	cfg.fill()

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  compressionCodec(cfg.Compression),
			MaxAttempts:  cfg.MaxAttempts,
			BatchSize:    cfg.BatchSize,
			BatchBytes:   int64(cfg.BatchBytes),
			BatchTimeout: cfg.Linger,
			WriteTimeout: cfg.WriteTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			Async:        cfg.Async,
		},
	}, nil
}

// Publish sends one message to topic under key. Non-byte values are
// JSON-encoded.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: raw,
		Time:  start,
	})
	publishSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	if err != nil {
		publishedTotal.WithLabelValues(topic, "error").Inc()
		return err
	}
	publishedTotal.WithLabelValues(topic, "ok").Inc()
	publishedBytes.WithLabelValues(topic).Add(float64(len(raw)))
	return nil
}

// PublishMessage sends a keyless message; partition assignment is up to
// the balancer. This is the shape the log collector publishes through.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func marshalValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal kafka value: %w", err)
		}
		return raw, nil
	}
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

var (
	publishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_kafka_producer_messages_total",
			Help: "Messages published, by topic and result.",
		},
		[]string{"topic", "result"},
	)
	publishedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_kafka_producer_bytes_total",
			Help: "Payload bytes published.",
		},
		[]string{"topic"},
	)
	publishSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockpulse_kafka_producer_publish_seconds",
			Help:    "Publish latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)
