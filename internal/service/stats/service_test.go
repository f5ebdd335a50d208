package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) CountLeavesByStatus(ctx context.Context) (stats.LeaveStatusCounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(stats.LeaveStatusCounts), args.Error(1)
}

func (m *mockStatsRepo) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStatsRepo) CountBalancesForYear(ctx context.Context, year string) (int64, error) {
	args := m.Called(ctx, year)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStatsRepo) CountUpcomingLeaves(ctx context.Context, from time.Time) (int64, error) {
	args := m.Called(ctx, from)
	return args.Get(0).(int64), args.Error(1)
}

type memoryCache struct {
	snapshot    *stats.StatsResponse
	invalidated int
}

func (c *memoryCache) Get(context.Context) (stats.StatsResponse, bool, error) {
	if c.snapshot == nil {
		return stats.StatsResponse{}, false, nil
	}
	return *c.snapshot, true, nil
}

func (c *memoryCache) Set(_ context.Context, s stats.StatsResponse) error {
	c.snapshot = &s
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.snapshot = nil
	c.invalidated++
	return nil
}

var fixedNow = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

func newRepo() *mockStatsRepo {
	repo := &mockStatsRepo{}
	repo.On("CountLeavesByStatus", mock.Anything).Return(stats.LeaveStatusCounts{Pending: 3, Approved: 5, Rejected: 2}, nil)
	repo.On("CountUsers", mock.Anything).Return(int64(12), nil)
	repo.On("CountBalancesForYear", mock.Anything, "2026").Return(int64(11), nil)
	repo.On("CountUpcomingLeaves", mock.Anything, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)).Return(int64(4), nil)
	return repo
}

func newService(repo stats.StatsRepository, cache stats.Cache) *statsServiceImpl {
	svc := NewStatsService(repo, cache).(*statsServiceImpl)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestGetStats_ComputesSnapshot(t *testing.T) {
	repo := newRepo()
	svc := newService(repo, nil)

	got, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), got.PendingCount)
	assert.Equal(t, int64(5), got.ApprovedCount)
	assert.Equal(t, int64(2), got.RejectedCount)
	assert.Equal(t, int64(10), got.TotalLeaves)
	assert.Equal(t, int64(12), got.UserCount)
	assert.Equal(t, int64(11), got.BalancesAdded)
	assert.Equal(t, int64(4), got.UpcomingLeaves)
	assert.Equal(t, "2026", got.Year)
	assert.Equal(t, "2026-03-15T09:30:00Z", got.UpdatedAt)
	repo.AssertExpectations(t)
}

func TestGetStats_UsesCache(t *testing.T) {
	repo := newRepo()
	cache := &memoryCache{}
	svc := newService(repo, cache)

	_, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	_, err = svc.GetStats(context.Background())
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "CountUsers", 1)

	svc.Invalidate(context.Background())
	assert.Equal(t, 1, cache.invalidated)

	_, err = svc.GetStats(context.Background())
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "CountUsers", 2)
}

func TestGetStats_QueryError(t *testing.T) {
	repo := &mockStatsRepo{}
	repo.On("CountLeavesByStatus", mock.Anything).Return(stats.LeaveStatusCounts{}, errors.New("connection reset"))
	repo.On("CountUsers", mock.Anything).Return(int64(0), nil).Maybe()
	repo.On("CountBalancesForYear", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()
	repo.On("CountUpcomingLeaves", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()
	cache := &memoryCache{}
	svc := newService(repo, cache)

	_, err := svc.GetStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count leaves by status")
	assert.Nil(t, cache.snapshot)
}

func TestGetStats_SkipsCacheWhenInvalidatedMidCompute(t *testing.T) {
	cache := &memoryCache{}
	repo := &mockStatsRepo{}
	svc := newService(repo, cache)

	repo.On("CountLeavesByStatus", mock.Anything).Return(stats.LeaveStatusCounts{Pending: 1}, nil)
	repo.On("CountUsers", mock.Anything).
		Run(func(mock.Arguments) { svc.Invalidate(context.Background()) }).
		Return(int64(2), nil).Once()
	repo.On("CountUsers", mock.Anything).Return(int64(2), nil)
	repo.On("CountBalancesForYear", mock.Anything, "2026").Return(int64(1), nil)
	repo.On("CountUpcomingLeaves", mock.Anything, mock.Anything).Return(int64(0), nil)

	got, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PendingCount)
	assert.Nil(t, cache.snapshot, "snapshot raced with an invalidation and must not be cached")

	_, err = svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cache.snapshot)
	repo.AssertNumberOfCalls(t, "CountUsers", 2)
}
