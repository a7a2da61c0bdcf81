package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	"StockPulse/internal/service/source"
	applogger "StockPulse/pkg/logger"
)

// AlertService owns the alert CRUD surface. Evaluation is the monitor's
// job; this type never mutates trigger state.
type AlertService struct {
	store domrepo.AlertStore
	agg   domsvc.Aggregator
	log   *applogger.Logger
}

// NewAlertService creates the CRUD service.
func NewAlertService(store domrepo.AlertStore, agg domsvc.Aggregator, log *applogger.Logger) *AlertService {
	return &AlertService{store: store, agg: agg, log: log}
}

// Create validates and stores a new one-shot alert. Symbols that no
// source can quote are rejected so the monitor never cycles dead alerts.
func (s *AlertService) Create(ctx context.Context, req *models.CreateAlertRequest) (*models.AlertCondition, error) {
	kind := models.AlertKind(req.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown alert kind %q", req.Kind)
	}
	sym := source.Canonical(req.Symbol)
	if sym == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if !s.agg.ValidateSymbol(ctx, sym) {
		return nil, models.NewFailure(models.FailNotFound, "", sym, "symbol cannot be quoted")
	}

	a := &models.AlertCondition{
		ID:        uuid.NewString(),
		Owner:     req.Owner,
		Symbol:    sym,
		Kind:      kind,
		Target:    req.Target,
		Active:    true,
		Message:   req.Message,
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("store alert: %w", err)
	}
	s.log.Info("alert created",
		applogger.String("id", a.ID),
		applogger.String("owner", a.Owner),
		applogger.String("symbol", a.Symbol),
		applogger.String("kind", string(a.Kind)),
	)
	return a, nil
}

// Get returns one alert by id.
func (s *AlertService) Get(ctx context.Context, id string) (*models.AlertCondition, error) {
	return s.store.Get(ctx, id)
}

// List returns an owner's alerts, or every live alert when owner is empty.
func (s *AlertService) List(ctx context.Context, owner string, includeTriggered bool) ([]*models.AlertCondition, error) {
	if owner == "" {
		return s.store.ListActive(ctx)
	}
	return s.store.ListByOwner(ctx, owner, includeTriggered)
}

// Delete removes an alert regardless of its state.
func (s *AlertService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("alert deleted", applogger.String("id", id))
	return nil
}
