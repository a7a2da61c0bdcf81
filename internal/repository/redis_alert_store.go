package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
)

// RedisAlertStore implements AlertStore as JSON values with set indexes
// for the active and per-owner views. Alerts have no TTL; they live
// until deleted.
type RedisAlertStore struct {
	client *redis.Client
	prefix string
}

var _ domrepo.AlertStore = (*RedisAlertStore)(nil)

// NewRedisAlertStore creates the store over an established client.
func NewRedisAlertStore(client *redis.Client, prefix string) *RedisAlertStore {
	return &RedisAlertStore{client: client, prefix: prefix}
}

func (s *RedisAlertStore) itemKey(id string) string {
	return fmt.Sprintf("%s:alerts:item:%s", s.prefix, id)
}

func (s *RedisAlertStore) activeKey() string {
	return s.prefix + ":alerts:active"
}

func (s *RedisAlertStore) ownerKey(owner string) string {
	return fmt.Sprintf("%s:alerts:owner:%s", s.prefix, owner)
}

func (s *RedisAlertStore) Create(ctx context.Context, a *models.AlertCondition) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.itemKey(a.ID), data, 0)
	pipe.SAdd(ctx, s.ownerKey(a.Owner), a.ID)
	if a.Live() {
		pipe.SAdd(ctx, s.activeKey(), a.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store alert: %w", err)
	}
	return nil
}

func (s *RedisAlertStore) Get(ctx context.Context, id string) (*models.AlertCondition, error) {
	data, err := s.client.Get(ctx, s.itemKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domrepo.ErrAlertNotFound
		}
		return nil, err
	}
	var a models.AlertCondition
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal alert %s: %w", id, err)
	}
	return &a, nil
}

func (s *RedisAlertStore) ListActive(ctx context.Context) ([]*models.AlertCondition, error) {
	ids, err := s.client.SMembers(ctx, s.activeKey()).Result()
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, ids, func(a *models.AlertCondition) bool { return a.Live() })
}

func (s *RedisAlertStore) ListByOwner(ctx context.Context, owner string, includeTriggered bool) ([]*models.AlertCondition, error) {
	ids, err := s.client.SMembers(ctx, s.ownerKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, ids, func(a *models.AlertCondition) bool {
		return includeTriggered || a.Live()
	})
}

// fetch loads ids in one MGET, dropping records that vanished between the
// index read and the value read. Results are ordered oldest first.
func (s *RedisAlertStore) fetch(ctx context.Context, ids []string, keep func(*models.AlertCondition) bool) ([]*models.AlertCondition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.itemKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*models.AlertCondition, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var a models.AlertCondition
		if err := json.Unmarshal([]byte(str), &a); err != nil {
			continue
		}
		if keep(&a) {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// MarkTriggered flips the one-shot latch and drops the alert from the
// active index.
func (s *RedisAlertStore) MarkTriggered(ctx context.Context, id string, observed float64, at time.Time) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	a.Active = false
	a.Triggered = true
	a.LastObserved = observed
	a.TriggeredAt = &at
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.itemKey(id), data, 0)
	pipe.SRem(ctx, s.activeKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark triggered: %w", err)
	}
	return nil
}

func (s *RedisAlertStore) Delete(ctx context.Context, id string) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.itemKey(id))
	pipe.SRem(ctx, s.activeKey(), id)
	pipe.SRem(ctx, s.ownerKey(a.Owner), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return nil
}
