package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Cache is a string key/value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// SetIfAbsent stores value only when key holds nothing; it reports
	// whether this call wrote it.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Touch resets the expiry of an existing entry. It returns ErrCacheMiss
	// when key is absent.
	Touch(ctx context.Context, key string, ttl time.Duration) error
}

var ErrCacheMiss = errors.New("cache miss")

// GetJSON decodes the entry stored under key into out.
func GetJSON(ctx context.Context, c Cache, key string, out any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return c.Set(ctx, key, string(b), ttl)
}

// VisitorKey namespaces per-visitor entries.
func VisitorKey(visitorID, name string) string {
	return fmt.Sprintf("visitor:%s:%s", visitorID, name)
}

// Remember serves key from c when present; otherwise load fills out and the
// result is stored for ttl. Cache failures fall through to load.
func Remember(ctx context.Context, c Cache, key string, ttl time.Duration, out any, load func(ctx context.Context) error) error {
	if c == nil || ttl <= 0 {
		return load(ctx)
	}
	if err := GetJSON(ctx, c, key, out); err == nil {
		return nil
	}
	if err := load(ctx); err != nil {
		return err
	}
	_ = SetJSON(ctx, c, key, out, ttl)
	return nil
}
