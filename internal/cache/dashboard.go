package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Dashboard caches per-user aggregates. Every write bumps the user's
// generation counter, which moves all of that user's keys out of reach.
type Dashboard struct {
	cache Cache
	ttl   time.Duration
}

func NewDashboard(c Cache, ttl time.Duration) *Dashboard {
	if c == nil {
		c = Noop{}
	}
	return &Dashboard{cache: c, ttl: ttl}
}

func generationKey(userID int64) string {
	return fmt.Sprintf("dash:gen:%d", userID)
}

// Invalidate drops every cached aggregate of userID.
func (d *Dashboard) Invalidate(ctx context.Context, userID int64) {
	if _, err := d.cache.Incr(ctx, generationKey(userID)); err != nil {
		slog.Warn("dashboard cache invalidation failed", "error", err, "user_id", userID)
	}
}

func (d *Dashboard) key(ctx context.Context, userID int64, name string, params []string) (string, error) {
	gen, err := d.cache.GetInt(ctx, generationKey(userID))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("dash:%d:%d:%s:%s", userID, gen, name, strings.Join(params, ":")), nil
}

// Remember returns the cached value for (userID, name, params) or computes and stores it.
// Cache failures are logged and the value is computed directly.
func Remember[T any](ctx context.Context, d *Dashboard, userID int64, name string, params []string, load func(context.Context) (T, error)) (T, error) {
	key, err := d.key(ctx, userID, name, params)
	if err != nil {
		slog.Warn("dashboard cache unavailable", "error", err, "user_id", userID)
		return load(ctx)
	}

	var cached T
	hit, err := d.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		slog.Warn("dashboard cache read failed", "error", err, "key", key)
	}
	if hit {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := d.cache.SetJSON(ctx, key, value, d.ttl); err != nil {
		slog.Warn("dashboard cache write failed", "error", err, "key", key)
	}
	return value, nil
}
