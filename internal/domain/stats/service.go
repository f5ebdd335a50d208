package stats

import "context"

type StatsService interface {
	// GetStats returns the cached snapshot or recomputes it with parallel queries
	GetStats(ctx context.Context) (StatsResponse, error)
	// Invalidate drops the cached snapshot after a write
	Invalidate(ctx context.Context)
}
