package repository

import (
	"context"
	"errors"
	"time"

	"StockPulse/internal/domain/models"
)

// ErrAlertNotFound is returned when an alert id has no record.
var ErrAlertNotFound = errors.New("alert not found")

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	PublishAlert(ctx context.Context, ev *models.AlertTriggerEvent) error
	PublishScanBatch(ctx context.Context, ev *models.ScanBatchEvent) error
	PublishDigest(ctx context.Context, ev *models.DigestEvent) error
	Close() error
}

type SignalStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Append(ctx context.Context, signals []models.Signal) error
	Query(ctx context.Context, q models.SignalQuery) ([]models.Signal, error)
	Summarize(ctx context.Context, from, to time.Time) (*models.DigestEvent, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type AlertStore interface {
	Create(ctx context.Context, a *models.AlertCondition) error
	Get(ctx context.Context, id string) (*models.AlertCondition, error)
	ListActive(ctx context.Context) ([]*models.AlertCondition, error)
	ListByOwner(ctx context.Context, owner string, includeTriggered bool) ([]*models.AlertCondition, error)
	MarkTriggered(ctx context.Context, id string, observed float64, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type Notifier interface {
	NotifyAlert(ctx context.Context, ev *models.AlertTriggerEvent) error
	NotifyScanBatch(ctx context.Context, ev *models.ScanBatchEvent) error
	NotifyDigest(ctx context.Context, ev *models.DigestEvent) error
}

type Metrics interface {
	RecordFetch(source, outcome string)
	RecordCacheEvent(class, event string)
	RecordError(kind string)
	RecordAlertTriggered(kind string)
	RecordSignal(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
