package notification

import (
	"context"
)

// Repository defines the notification repository interface
type Repository interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	GetByUserID(ctx context.Context, req ListNotificationsRequest) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, ids []string, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	// Delete returns ErrNotificationNotFound when the id does not belong to userID
	Delete(ctx context.Context, id string, userID string) error
}
