package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

type statsServiceImpl struct {
	repo  stats.StatsRepository
	cache stats.Cache
	now   func() time.Time

	// generation advances on every Invalidate. A snapshot computed across an
	// invalidation is served but not cached.
	generation atomic.Uint64
}

// NewStatsService builds the stats panel service. cache may be nil, in which
// case every call recomputes the snapshot.
func NewStatsService(repo stats.StatsRepository, cache stats.Cache) stats.StatsService {
	return &statsServiceImpl{repo: repo, cache: cache, now: time.Now}
}

// GetStats implements stats.StatsService.
func (s *statsServiceImpl) GetStats(ctx context.Context) (stats.StatsResponse, error) {
	if s.cache != nil {
		snapshot, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.IncrementStatsCacheLookup("error")
			slog.Warn("stats cache read failed", "error", err)
		case ok:
			metrics.IncrementStatsCacheLookup("hit")
			return snapshot, nil
		default:
			metrics.IncrementStatsCacheLookup("miss")
		}
	}

	gen := s.generation.Load()
	snapshot, err := s.compute(ctx)
	if err != nil {
		return stats.StatsResponse{}, err
	}

	if s.cache != nil && s.generation.Load() == gen {
		if err := s.cache.Set(ctx, snapshot); err != nil {
			slog.Warn("stats cache write failed", "error", err)
		}
	}
	return snapshot, nil
}

func (s *statsServiceImpl) compute(ctx context.Context) (stats.StatsResponse, error) {
	now := s.now().UTC()
	year := strconv.Itoa(now.Year())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var (
		counts   stats.LeaveStatusCounts
		users    int64
		ledgers  int64
		upcoming int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.repo.CountLeavesByStatus(gctx)
		if err != nil {
			return fmt.Errorf("count leaves by status: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = s.repo.CountUsers(gctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ledgers, err = s.repo.CountBalancesForYear(gctx, year)
		if err != nil {
			return fmt.Errorf("count balances: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		upcoming, err = s.repo.CountUpcomingLeaves(gctx, today)
		if err != nil {
			return fmt.Errorf("count upcoming leaves: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return stats.StatsResponse{}, err
	}

	return stats.StatsResponse{
		PendingCount:   counts.Pending,
		ApprovedCount:  counts.Approved,
		RejectedCount:  counts.Rejected,
		TotalLeaves:    counts.Pending + counts.Approved + counts.Rejected,
		UserCount:      users,
		BalancesAdded:  ledgers,
		UpcomingLeaves: upcoming,
		Year:           year,
		UpdatedAt:      now.Format(time.RFC3339),
	}, nil
}

// Invalidate implements stats.StatsService. Failures only leave a stale
// snapshot until the TTL expires, so they are logged and swallowed.
func (s *statsServiceImpl) Invalidate(ctx context.Context) {
	s.generation.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("stats cache invalidation failed", "error", err)
	}
}
