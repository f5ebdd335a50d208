package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestStatsCache_RoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	c := NewStatsCache(rdb, time.Minute)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	snapshot := stats.StatsResponse{PendingCount: 2, ApprovedCount: 3, TotalLeaves: 5, Year: "2026"}
	require.NoError(t, c.Set(ctx, snapshot))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snapshot, got)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, snapshot))
	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "snapshot must expire after the TTL")
}

func TestDeduper_AcquireOnce(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	d := NewDeduper(rdb, time.Hour)

	assert.True(t, d.AcquireOnce(ctx, "leave_email", "evt-1"))
	assert.False(t, d.AcquireOnce(ctx, "leave_email", "evt-1"))
	assert.True(t, d.AcquireOnce(ctx, "other_handler", "evt-1"))

	d.Release(ctx, "leave_email", "evt-1")
	assert.True(t, d.AcquireOnce(ctx, "leave_email", "evt-1"))
}

func TestDeduper_RedisDownAllowsProcessing(t *testing.T) {
	mr, rdb := newTestRedis(t)
	d := NewDeduper(rdb, time.Hour)
	mr.Close()

	assert.True(t, d.AcquireOnce(context.Background(), "leave_email", "evt-2"))
}
