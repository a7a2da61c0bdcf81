package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgkafka "StockPulse/pkg/kafka"
)

// AlertEventsHandler consumes alert trigger events and hands them to the
// notifier. Undecodable or foreign messages are errors so the consumer's
// retry and DLQ path deals with them.
type AlertEventsHandler struct {
	topic    string
	notifier domrepo.Notifier
	metrics  domrepo.Metrics
}

func NewAlertEventsHandler(topic string, notifier domrepo.Notifier, metrics domrepo.Metrics) *AlertEventsHandler {
	return &AlertEventsHandler{topic: topic, notifier: notifier, metrics: metrics}
}

func (h *AlertEventsHandler) Topic() string { return h.topic }

func (h *AlertEventsHandler) Handle(ctx context.Context, b []byte) error {
	var env models.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if env.Type != models.EventAlertTriggered {
		h.metrics.RecordError("consumer_event_type")
		return fmt.Errorf("unexpected event type %q", env.Type)
	}

	var ev models.AlertTriggerEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	// E2E latency from trigger to delivery (approx)
	if !ev.TriggeredAt.IsZero() {
		h.metrics.RecordLatency("notify_e2e_seconds", time.Since(ev.TriggeredAt).Seconds())
	}

	if err := h.notifier.NotifyAlert(ctx, &ev); err != nil {
		h.metrics.RecordError("notify")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*AlertEventsHandler)(nil)

// SignalEventsHandler consumes the signals topic, which carries sweep
// batches and daily digests, and fans out by envelope type.
type SignalEventsHandler struct {
	topic    string
	notifier domrepo.Notifier
	metrics  domrepo.Metrics
}

func NewSignalEventsHandler(topic string, notifier domrepo.Notifier, metrics domrepo.Metrics) *SignalEventsHandler {
	return &SignalEventsHandler{topic: topic, notifier: notifier, metrics: metrics}
}

func (h *SignalEventsHandler) Topic() string { return h.topic }

func (h *SignalEventsHandler) Handle(ctx context.Context, b []byte) error {
	var env models.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	switch env.Type {
	case models.EventScanBatch:
		var ev models.ScanBatchEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			h.metrics.RecordError("consumer_unmarshal")
			return err
		}
		if err := h.notifier.NotifyScanBatch(ctx, &ev); err != nil {
			h.metrics.RecordError("notify")
			return err
		}
	case models.EventDailyDigest:
		var ev models.DigestEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			h.metrics.RecordError("consumer_unmarshal")
			return err
		}
		if err := h.notifier.NotifyDigest(ctx, &ev); err != nil {
			h.metrics.RecordError("notify")
			return err
		}
	default:
		h.metrics.RecordError("consumer_event_type")
		return fmt.Errorf("unexpected event type %q", env.Type)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*SignalEventsHandler)(nil)
