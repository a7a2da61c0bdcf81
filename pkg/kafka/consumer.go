package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes messages from one topic. A returned error
// triggers the retry/DLQ path.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, data []byte) error
}

// ConsumerConfig sizes the worker-pool consumer.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Workers    int
	Buffer     int // fetched-message channel capacity
	RetryMax   int // retries after the first attempt
	BackoffMin time.Duration
	BackoffMax time.Duration
	DLQTopic   string // empty disables dead-lettering
	MinBytes   int
	MaxBytes   int
}

func (c *ConsumerConfig) fill() {
	if c.GroupID == "" {
		c.GroupID = "default"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Buffer <= 0 {
		c.Buffer = 16
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.BackoffMin <= 0 {
		c.BackoffMin = 50 * time.Millisecond
	}
	if c.BackoffMax < c.BackoffMin {
		c.BackoffMax = 2 * time.Second
	}
	if c.MinBytes <= 0 {
		c.MinBytes = 1
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 << 20
	}
}

// Consumer reads registered topics into a shared worker pool. Offsets are
// committed only after a message is handled or dead-lettered, so a crash
// replays unprocessed messages instead of dropping them.
type Consumer struct {
	cfg      ConsumerConfig
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	fetched  chan fetched
	dlq      *kafka.Writer

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type fetched struct {
	topic string
	msg   kafka.Message
}

// NewConsumer builds an idle consumer; call RegisterHandler then Start.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: brokers are required")
	}
	cfg.fill()

	c := &Consumer{
		cfg:      cfg,
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		fetched:  make(chan fetched, cfg.Buffer),
		stop:     make(chan struct{}),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	return c, nil
}

// RegisterHandler binds a handler to its topic. Last registration wins;
// call before Start.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, dup := c.handlers[h.Topic()]; dup {
		log.Printf("kafka consumer: replacing handler for topic %s", h.Topic())
	}
	c.handlers[h.Topic()] = h
}

// Start spawns one reader per registered topic and the worker pool.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			GroupID:  c.cfg.GroupID,
			Topic:    topic,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
		c.readers[topic] = reader

		c.wg.Add(1)
		go c.readLoop(topic, reader)
	}

	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}

	log.Printf("kafka consumer: group=%s topics=%d workers=%d",
		c.cfg.GroupID, len(c.readers), c.cfg.Workers)
	return nil
}

// Stop halts reading, drains in-flight work, and closes the readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer: drain: %w", ctx.Err())
		}

		for topic, reader := range c.readers {
			if cerr := reader.Close(); cerr != nil {
				log.Printf("kafka consumer: close reader %s: %v", topic, cerr)
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				log.Printf("kafka consumer: close dlq writer: %v", cerr)
			}
		}
	})
	return err
}

// readLoop fetches without committing; commit happens in the worker once
// the message is settled. Fetches poll with a short deadline so the stop
// signal is honored promptly.
func (c *Consumer) readLoop(topic string, reader *kafka.Reader) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := reader.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				log.Printf("kafka consumer: fetch %s: %v", topic, err)
			}
			continue
		}

		select {
		case c.fetched <- fetched{topic: topic, msg: msg}:
			queueDepth.WithLabelValues(topic).Set(float64(len(c.fetched)))
		case <-c.stop:
			return
		}
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stop:
			return
		case f := <-c.fetched:
			c.process(f)
		}
	}
}

func (c *Consumer) process(f fetched) {
	handler := c.handlers[f.topic]
	start := time.Now()

	var err error
	for attempt := 0; ; attempt++ {
		err = c.safeHandle(handler, f.msg.Value)
		if err == nil || attempt >= c.cfg.RetryMax {
			break
		}
		select {
		case <-time.After(jitterBackoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stop:
			return
		}
	}

	if err != nil {
		log.Printf("kafka consumer: giving up on %s message: %v", f.topic, err)
		if !c.deadLetter(f) {
			// Not committed: the message resurfaces after restart rather
			// than being lost.
			return
		}
	}

	if cerr := c.commit(f); cerr != nil {
		log.Printf("kafka consumer: commit %s: %v", f.topic, cerr)
	}
	handleSeconds.WithLabelValues(f.topic).Observe(time.Since(start).Seconds())
}

// safeHandle contains handler panics so one poison message cannot kill a
// worker.
func (c *Consumer) safeHandle(h MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(context.Background(), data)
}

// deadLetter parks an unprocessable message; reports whether the message
// is settled (dead-lettered or dead-lettering disabled).
func (c *Consumer) deadLetter(f fetched) bool {
	if c.dlq == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     f.msg.Key,
		Value:   f.msg.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(f.topic)}},
	})
	if err != nil {
		log.Printf("kafka consumer: dlq write: %v", err)
		return false
	}
	deadLettered.WithLabelValues(f.topic).Inc()
	return true
}

func (c *Consumer) commit(f fetched) error {
	reader := c.readers[f.topic]
	if reader == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return reader.CommitMessages(ctx, f.msg)
}

func jitterBackoff(min, max time.Duration, attempt int) time.Duration {
	d := min << uint(attempt)
	if d > max || d <= 0 {
		d = max
	}
	return d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
}

var (
	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockpulse_kafka_consumer_queue_depth",
			Help: "Fetched messages waiting for a worker.",
		},
		[]string{"topic"},
	)
	handleSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockpulse_kafka_consumer_handle_seconds",
			Help:    "Time from dequeue to settled, including retries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
	deadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_kafka_consumer_dead_lettered_total",
			Help: "Messages parked on the DLQ topic.",
		},
		[]string{"topic"},
	)
)
