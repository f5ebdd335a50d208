package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeLeaveRequest   NotificationType = "LEAVE_REQUEST"
	TypeLeaveApproved  NotificationType = "LEAVE_APPROVED"
	TypeLeaveRejected  NotificationType = "LEAVE_REJECTED"
	TypeBalanceUpdated NotificationType = "BALANCE_UPDATED"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeLeaveRequest,
		TypeLeaveApproved,
		TypeLeaveRejected,
		TypeBalanceUpdated,
	}
}

func (t NotificationType) IsValid() bool {
	for _, v := range AllNotificationTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// Notification is an in-app message shown in the dashboard bell
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	Type      NotificationType
	IsRead    bool
	ReadAt    *time.Time
	CreatedAt time.Time
}
