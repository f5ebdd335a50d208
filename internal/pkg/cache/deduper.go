package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper makes at-least-once deliveries effectively once per handler
type Deduper struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewDeduper(rdb redis.Cmdable, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// AcquireOnce returns true the first time handler sees eventID. When Redis is
// unavailable it returns true so delivery is never blocked.
func (d *Deduper) AcquireOnce(ctx context.Context, handler string, eventID string) bool {
	key := fmt.Sprintf("dedup:%s:%s", handler, eventID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		slog.Warn("redis dedup check failed, allowing processing",
			"handler", handler, "event_id", eventID, "error", err)
		return true
	}
	if !ok {
		slog.Info("skipped duplicated event", "handler", handler, "event_id", eventID)
	}
	return ok
}

// Release forgets eventID so a failed attempt can be retried.
func (d *Deduper) Release(ctx context.Context, handler string, eventID string) {
	key := fmt.Sprintf("dedup:%s:%s", handler, eventID)
	if err := d.rdb.Del(ctx, key).Err(); err != nil {
		slog.Warn("redis dedup release failed", "handler", handler, "event_id", eventID, "error", err)
	}
}
