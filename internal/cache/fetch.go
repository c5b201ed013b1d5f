package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Fetch is the read-through path. It computes nothing itself: callers build
// the key, Fetch serves it from the store on a hit and otherwise runs load
// against the authoritative source and populates the cache.
//
// The returned bool reports whether the value came from cache. A store error
// fails the read; there is no silent fallback to the loader when the cache
// backend is down. Concurrent misses for the same key may each run load:
// there is no single-flight at this layer.
func Fetch[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var zero T

	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	if found {
		var cached T
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, true, nil
		}
		// Plain-string values written outside this layer are served as-is;
		// anything else undecodable is treated as a miss and repopulated.
		if out, ok := any(&zero).(*string); ok {
			*out = raw
			return zero, true, nil
		}
	}

	value, err := load(ctx)
	if err != nil {
		return zero, false, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return zero, false, fmt.Errorf("encode cache value for %q: %w", key, err)
	}
	if err := store.Set(ctx, key, string(payload), ttl); err != nil {
		return zero, false, fmt.Errorf("cache set %q: %w", key, err)
	}
	return value, false, nil
}

// Invalidate deletes every key in the given namespaces after a committed
// write. Failures are logged and swallowed: the write already happened, and a
// stale entry expiring within its TTL beats reporting a successful mutation
// as failed.
func Invalidate(ctx context.Context, store Store, log *slog.Logger, patterns ...string) {
	for _, pattern := range patterns {
		deleted, err := store.DeletePattern(ctx, pattern)
		if err != nil {
			log.Error("cache invalidation failed", "pattern", pattern, "error", err)
			continue
		}
		log.Debug("cache invalidated", "pattern", pattern, "deleted", deleted)
	}
}
