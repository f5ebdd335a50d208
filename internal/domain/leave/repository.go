package leave

import (
	"context"
	"time"
)

// LeaveRepository - interface for leaves table
type LeaveRepository interface {
	Create(ctx context.Context, l Leave) (Leave, error)
	GetByID(ctx context.Context, id string) (Leave, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (Leave, error)
	ExistsForRange(ctx context.Context, userEmail string, startDate, endDate time.Time) (bool, error)
	List(ctx context.Context, filter LeaveFilter) ([]Leave, int64, error)
	UpdateDecision(ctx context.Context, id string, status Status, moderatorNote *string, updatedBy string) (Leave, error)
}

// EventPublisher sends leave lifecycle events to the broker
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}
