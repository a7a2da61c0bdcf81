package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
)

func TestDigestRunPublishes(t *testing.T) {
	store := &fakeSignalStore{digest: &models.DigestEvent{
		Date:  "2025-03-14",
		Total: 3,
		ByKind: map[string]int{
			"rsi_oversold": 2,
			"volume_spike": 1,
		},
	}}
	pub := &fakePublisher{}
	d := NewDigestEngine(store, pub, &fakeClock{}, noopMetrics{}, testLogger(t))

	day := time.Date(2025, 3, 14, 16, 0, 0, 0, time.UTC)
	if err := d.Run(context.Background(), day); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(pub.digests) != 1 {
		t.Fatalf("expected one digest, got %d", len(pub.digests))
	}
	if pub.digests[0].Total != 3 || pub.digests[0].Date != "2025-03-14" {
		t.Fatalf("unexpected digest %+v", pub.digests[0])
	}
}

func TestDigestRunSkipsQuietDay(t *testing.T) {
	store := &fakeSignalStore{digest: &models.DigestEvent{Date: "2025-03-14", Total: 0}}
	pub := &fakePublisher{}
	d := NewDigestEngine(store, pub, &fakeClock{}, noopMetrics{}, testLogger(t))

	if err := d.Run(context.Background(), time.Date(2025, 3, 14, 16, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(pub.digests) != 0 {
		t.Fatalf("quiet day must not publish")
	}
}

func TestDigestRunWrapsStoreError(t *testing.T) {
	store := &fakeSignalStore{digestErr: errors.New("pg down")}
	d := NewDigestEngine(store, &fakePublisher{}, &fakeClock{}, noopMetrics{}, testLogger(t))

	if err := d.Run(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDigestRunPropagatesPublishError(t *testing.T) {
	store := &fakeSignalStore{digest: &models.DigestEvent{Date: "2025-03-14", Total: 1}}
	pub := &fakePublisher{err: errors.New("broker down")}
	d := NewDigestEngine(store, pub, &fakeClock{}, noopMetrics{}, testLogger(t))

	if err := d.Run(context.Background(), time.Date(2025, 3, 14, 16, 0, 0, 0, time.UTC)); err == nil {
		t.Fatalf("expected error")
	}
}
