package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/service/source"
)

// SignalQueryUseCase serves the persisted signal log to the API.
type SignalQueryUseCase struct {
	store domrepo.SignalStore
}

func NewSignalQueryUseCase(store domrepo.SignalStore) *SignalQueryUseCase {
	return &SignalQueryUseCase{store: store}
}

type QuerySignalsParams struct {
	Symbol string
	Kind   string
	From   time.Time
	To     time.Time
	Limit  int
}

type QuerySignalsResult struct {
	Symbol  string
	Kind    string
	From    time.Time
	To      time.Time
	Count   int
	Signals []models.Signal
}

func (uc *SignalQueryUseCase) Query(ctx context.Context, p QuerySignalsParams) (*QuerySignalsResult, error) {
	kind := models.SignalKind(p.Kind)
	if p.Kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("unknown signal kind %q", p.Kind)
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > 1000 {
		p.Limit = 1000
	}

	signals, err := uc.store.Query(ctx, models.SignalQuery{
		Symbol: source.Canonical(p.Symbol),
		Kind:   kind,
		From:   p.From,
		To:     p.To,
		Limit:  p.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}

	return &QuerySignalsResult{
		Symbol:  source.Canonical(p.Symbol),
		Kind:    p.Kind,
		From:    p.From,
		To:      p.To,
		Count:   len(signals),
		Signals: signals,
	}, nil
}
