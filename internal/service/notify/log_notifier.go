package notify

import (
	"context"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"
)

// LogNotifier delivers events to the service log. It stands in for real
// delivery channels and keeps the whole consumer path exercised without
// external credentials.
type LogNotifier struct {
	log *applogger.Logger
}

var _ repository.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates the notifier.
func NewLogNotifier(log *applogger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyAlert(ctx context.Context, ev *models.AlertTriggerEvent) error {
	n.log.Info("alert notification",
		applogger.String("id", ev.AlertID),
		applogger.String("owner", ev.Owner),
		applogger.String("symbol", ev.Symbol),
		applogger.String("kind", string(ev.Kind)),
		applogger.Float64("target", ev.Target),
		applogger.Float64("observed", ev.Observed),
		applogger.String("message", ev.Message),
	)
	return nil
}

func (n *LogNotifier) NotifyScanBatch(ctx context.Context, ev *models.ScanBatchEvent) error {
	kinds := make(map[string]int, 4)
	for _, sig := range ev.Signals {
		kinds[string(sig.Kind)]++
	}
	n.log.Info("scan notification",
		applogger.Int("symbols", len(ev.Symbols)),
		applogger.Int("signals", len(ev.Signals)),
		applogger.Any("by_kind", kinds),
	)
	return nil
}

func (n *LogNotifier) NotifyDigest(ctx context.Context, ev *models.DigestEvent) error {
	n.log.Info("digest notification",
		applogger.String("date", ev.Date),
		applogger.Int("signals", ev.Total),
		applogger.Any("by_kind", ev.ByKind),
		applogger.Any("top_symbols", ev.TopSymbols),
	)
	return nil
}
