package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/redis/go-redis/v9"
)

const statsKey = "leave:stats:snapshot"

// StatsCache keeps the stats snapshot in Redis for a fixed TTL
type StatsCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStatsCache(rdb redis.Cmdable, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

// Get returns false on a cache miss.
func (c *StatsCache) Get(ctx context.Context) (stats.StatsResponse, bool, error) {
	raw, err := c.rdb.Get(ctx, statsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return stats.StatsResponse{}, false, nil
		}
		return stats.StatsResponse{}, false, err
	}

	var snapshot stats.StatsResponse
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return stats.StatsResponse{}, false, err
	}
	return snapshot, true, nil
}

func (c *StatsCache) Set(ctx context.Context, s stats.StatsResponse) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statsKey, raw, c.ttl).Err()
}

func (c *StatsCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, statsKey).Err()
}
