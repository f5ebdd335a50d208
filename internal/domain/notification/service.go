package notification

import (
	"context"
)

// Service defines the notification service interface
type Service interface {
	// Create stores a notification. Inside WithinTx it joins the caller's transaction.
	Create(ctx context.Context, req CreateNotificationRequest) (Notification, error)
	// Publish pushes a stored notification to the owner's live streams
	Publish(n Notification)

	GetNotifications(ctx context.Context, req ListNotificationsRequest) (NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string, notificationID string) error

	// SSE subscription
	Subscribe(ctx context.Context, userID string) (<-chan SSEEvent, func())
}
