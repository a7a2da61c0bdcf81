package repository

import (
	"context"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgkafka "StockPulse/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Alert triggers go to the
// alerts topic keyed by symbol, sweeps and digests to the signals topic
// keyed by event type, so each event family stays ordered for consumers.
type KafkaPublisher struct {
	producer     *pkgkafka.Producer
	alertsTopic  string
	signalsTopic string
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates the event publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, alertsTopic, signalsTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer:     producer,
		alertsTopic:  alertsTopic,
		signalsTopic: signalsTopic,
	}
}

func (p *KafkaPublisher) PublishAlert(ctx context.Context, ev *models.AlertTriggerEvent) error {
	env, err := models.WrapEvent(models.EventAlertTriggered, ev)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, p.alertsTopic, []byte(ev.Symbol), env)
}

func (p *KafkaPublisher) PublishScanBatch(ctx context.Context, ev *models.ScanBatchEvent) error {
	env, err := models.WrapEvent(models.EventScanBatch, ev)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, p.signalsTopic, []byte(models.EventScanBatch), env)
}

func (p *KafkaPublisher) PublishDigest(ctx context.Context, ev *models.DigestEvent) error {
	env, err := models.WrapEvent(models.EventDailyDigest, ev)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, p.signalsTopic, []byte(models.EventDailyDigest), env)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
