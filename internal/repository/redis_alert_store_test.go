package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
)

func testAlert(id, owner string, createdAt time.Time) *models.AlertCondition {
	return &models.AlertCondition{
		ID:        id,
		Owner:     owner,
		Symbol:    "TCS",
		Kind:      models.AlertPriceAbove,
		Target:    3600,
		Active:    true,
		CreatedAt: createdAt,
	}
}

func TestRedisAlertStoreCreate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer func() { _ = client.Close() }()
	store := NewRedisAlertStore(client, "stockpulse")

	a := testAlert("a1", "trader", time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	mock.ExpectTxPipeline()
	mock.ExpectSet("stockpulse:alerts:item:a1", data, 0).SetVal("OK")
	mock.ExpectSAdd("stockpulse:alerts:owner:trader", "a1").SetVal(1)
	mock.ExpectSAdd("stockpulse:alerts:active", "a1").SetVal(1)
	mock.ExpectTxPipelineExec()

	if err := store.Create(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRedisAlertStoreGetMissing(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer func() { _ = client.Close() }()
	store := NewRedisAlertStore(client, "stockpulse")

	mock.ExpectGet("stockpulse:alerts:item:gone").RedisNil()

	_, err := store.Get(context.Background(), "gone")
	if !errors.Is(err, domrepo.ErrAlertNotFound) {
		t.Fatalf("expected ErrAlertNotFound, got %v", err)
	}
}

func TestRedisAlertStoreListActiveFiltersAndSorts(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer func() { _ = client.Close() }()
	store := NewRedisAlertStore(client, "stockpulse")

	older := testAlert("a2", "trader", time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC))
	newer := testAlert("a1", "trader", time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	spent := testAlert("a3", "trader", time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))
	spent.Active = false
	spent.Triggered = true

	j1, _ := json.Marshal(newer)
	j2, _ := json.Marshal(older)
	j3, _ := json.Marshal(spent)

	mock.ExpectSMembers("stockpulse:alerts:active").SetVal([]string{"a1", "a2", "a3"})
	mock.ExpectMGet(
		"stockpulse:alerts:item:a1",
		"stockpulse:alerts:item:a2",
		"stockpulse:alerts:item:a3",
	).SetVal([]interface{}{string(j1), string(j2), string(j3)})

	got, err := store.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 live alerts, got %d", len(got))
	}
	if got[0].ID != "a2" || got[1].ID != "a1" {
		t.Fatalf("expected oldest first, got %s then %s", got[0].ID, got[1].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRedisAlertStoreMarkTriggered(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer func() { _ = client.Close() }()
	store := NewRedisAlertStore(client, "stockpulse")

	a := testAlert("a1", "trader", time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	live, _ := json.Marshal(a)

	at := time.Date(2025, 3, 14, 11, 30, 0, 0, time.UTC)
	fired := *a
	fired.Active = false
	fired.Triggered = true
	fired.LastObserved = 3650.5
	fired.TriggeredAt = &at
	want, _ := json.Marshal(&fired)

	mock.ExpectGet("stockpulse:alerts:item:a1").SetVal(string(live))
	mock.ExpectTxPipeline()
	mock.ExpectSet("stockpulse:alerts:item:a1", want, 0).SetVal("OK")
	mock.ExpectSRem("stockpulse:alerts:active", "a1").SetVal(1)
	mock.ExpectTxPipelineExec()

	if err := store.MarkTriggered(context.Background(), "a1", 3650.5, at); err != nil {
		t.Fatalf("mark triggered: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRedisAlertStoreDelete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer func() { _ = client.Close() }()
	store := NewRedisAlertStore(client, "stockpulse")

	a := testAlert("a1", "trader", time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	data, _ := json.Marshal(a)

	mock.ExpectGet("stockpulse:alerts:item:a1").SetVal(string(data))
	mock.ExpectTxPipeline()
	mock.ExpectDel("stockpulse:alerts:item:a1").SetVal(1)
	mock.ExpectSRem("stockpulse:alerts:active", "a1").SetVal(1)
	mock.ExpectSRem("stockpulse:alerts:owner:trader", "a1").SetVal(1)
	mock.ExpectTxPipelineExec()

	if err := store.Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
