package postgresql

import (
	"context"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
)

type statsRepositoryImpl struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) stats.StatsRepository {
	return &statsRepositoryImpl{db: db}
}

// CountLeavesByStatus returns all three status counts in a single query
func (r *statsRepositoryImpl) CountLeavesByStatus(ctx context.Context) (stats.LeaveStatusCounts, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'PENDING')  AS pending,
			COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
			COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected
		FROM leaves
	`

	var counts stats.LeaveStatusCounts
	err := q.QueryRow(ctx, query).Scan(&counts.Pending, &counts.Approved, &counts.Rejected)
	return counts, err
}

func (r *statsRepositoryImpl) CountUsers(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)
	var n int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *statsRepositoryImpl) CountBalancesForYear(ctx context.Context, year string) (int64, error) {
	q := GetQuerier(ctx, r.db)
	var n int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM balances WHERE year = $1`, year).Scan(&n)
	return n, err
}

// CountUpcomingLeaves counts approved leaves that start on or after from
func (r *statsRepositoryImpl) CountUpcomingLeaves(ctx context.Context, from time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)
	var n int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM leaves WHERE status = 'APPROVED' AND start_date >= $1`, from).Scan(&n)
	return n, err
}
