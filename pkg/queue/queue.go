package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// QueueService is the producer-side surface handed to HTTP handlers.
type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// Job consumes one message type from the queue.
type Job interface {
	// Name identifies the job in logs.
	Name() string
	// Type is the message type this job consumes.
	Type() string
	// Handle processes one message payload. An error schedules a retry
	// and, past the retry limit, a move to the dead-letter list.
	Handle(ctx context.Context, payload json.RawMessage) error
}

// Config sizes the queue workers and retry policy.
type Config struct {
	Workers    int
	RetryLimit int
	RetryDelay time.Duration
	KeyPrefix  string // defaults to "stockpulse:queue"
}

// Message is the wire form of a queued item.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// DecodePayload unmarshals a message payload into its job-specific type.
func DecodePayload[T any](raw json.RawMessage) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &out, nil
}
