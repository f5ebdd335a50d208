package stats

import (
	"context"
	"time"
)

// LeaveStatusCounts combines pending/approved/rejected counts in one query
type LeaveStatusCounts struct {
	Pending  int64
	Approved int64
	Rejected int64
}

// StatsRepository defines the interface for stats data access
type StatsRepository interface {
	// CountLeavesByStatus returns pending/approved/rejected counts across all leaves
	CountLeavesByStatus(ctx context.Context) (LeaveStatusCounts, error)
	CountUsers(ctx context.Context) (int64, error)
	CountBalancesForYear(ctx context.Context, year string) (int64, error)
	// CountUpcomingLeaves counts approved leaves starting on or after from
	CountUpcomingLeaves(ctx context.Context, from time.Time) (int64, error)
}

// Cache stores the last computed snapshot
type Cache interface {
	Get(ctx context.Context) (StatsResponse, bool, error)
	Set(ctx context.Context, s StatsResponse) error
	Invalidate(ctx context.Context) error
}
