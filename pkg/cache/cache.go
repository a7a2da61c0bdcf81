package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss is returned by Get when a key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Service is the shared TTL key/value store the engines coordinate
// through. A key holds either an encoded value or a counter, never both;
// counters are created by Increment and aged out via Expire.
// Implementations must be safe for concurrent use from multiple loops.
type Service interface {
	// Set stores value under key for ttl. Strings and []byte are stored
	// raw, everything else is JSON-encoded.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get loads key into dest (a *string receives the raw payload, any
	// other pointer is JSON-decoded). Returns ErrCacheMiss when absent.
	Get(ctx context.Context, key string, dest interface{}) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// MGet returns the raw payloads for the keys that exist.
	MGet(ctx context.Context, keys ...string) (map[string]string, error)
	// Increment atomically bumps the counter at key, creating it at 1.
	Increment(ctx context.Context, key string) (int64, error)
	// Expire sets a fresh ttl on key; false when the key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Key joins parts into the canonical colon-separated key form,
// e.g. Key("quote", "RELIANCE") -> "quote:RELIANCE".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
