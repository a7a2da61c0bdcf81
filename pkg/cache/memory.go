package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// entry counters and values share the slot; raw == nil marks a counter.
type entry struct {
	raw      []byte
	count    int64
	deadline time.Time
}

func (e *entry) live(now time.Time) bool {
	return now.Before(e.deadline)
}

// MemoryCache is the in-process Service backend, used standalone in tests
// and single-node runs and as the L1 of the layered backend. Expired
// entries are dropped lazily on access and swept periodically.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stop    chan struct{}
	once    sync.Once
}

const (
	memorySweepEvery = time.Minute
	// counters without an explicit Expire must still age out eventually
	memoryDefaultTTL = 24 * time.Hour
)

// NewMemoryCache starts an in-memory cache and its sweeper goroutine.
// Close releases the sweeper.
func NewMemoryCache() *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
	go mc.sweep()
	return mc
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func decode(raw []byte, dest interface{}) error {
	if s, ok := dest.(*string); ok {
		*s = string(raw)
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = memoryDefaultTTL
	}

	mc.mu.Lock()
	mc.entries[key] = &entry{raw: raw, deadline: time.Now().Add(ttl)}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	e, ok := mc.entries[key]
	if ok && !e.live(time.Now()) {
		delete(mc.entries, key)
		ok = false
	}
	mc.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	if e.raw == nil {
		return fmt.Errorf("cache: key %s holds a counter", key)
	}
	return decode(e.raw, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	for _, key := range keys {
		delete(mc.entries, key)
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) MGet(_ context.Context, keys ...string) (map[string]string, error) {
	now := time.Now()
	out := make(map[string]string, len(keys))

	mc.mu.RLock()
	for _, key := range keys {
		if e, ok := mc.entries[key]; ok && e.live(now) && e.raw != nil {
			out[key] = string(e.raw)
		}
	}
	mc.mu.RUnlock()
	return out, nil
}

func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if !ok || !e.live(now) {
		mc.entries[key] = &entry{count: 1, deadline: now.Add(memoryDefaultTTL)}
		return 1, nil
	}
	if e.raw != nil {
		return 0, fmt.Errorf("cache: key %s holds a value", key)
	}
	e.count++
	return e.count, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if !ok || !e.live(time.Now()) {
		return false, nil
	}
	e.deadline = time.Now().Add(ttl)
	return true, nil
}

func (mc *MemoryCache) sweep() {
	ticker := time.NewTicker(memorySweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case now := <-ticker.C:
			mc.mu.Lock()
			for key, e := range mc.entries {
				if !e.live(now) {
					delete(mc.entries, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the sweeper. Safe to call more than once.
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}
