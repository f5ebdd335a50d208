package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type notificationRepositoryImpl struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepositoryImpl{db: db}
}

// Create inserts a notification, joining the caller's transaction when there is one
func (r *notificationRepositoryImpl) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return notification.Notification{}, fmt.Errorf("generate notification id: %w", err)
	}

	query := `
		INSERT INTO notifications (id, user_id, title, content, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, content, type, is_read, read_at, created_at
	`

	var created notification.Notification
	err = q.QueryRow(ctx, query, id.String(), n.UserID, n.Title, n.Content, n.Type).Scan(
		&created.ID,
		&created.UserID,
		&created.Title,
		&created.Content,
		&created.Type,
		&created.IsRead,
		&created.ReadAt,
		&created.CreatedAt,
	)
	if err != nil {
		return notification.Notification{}, err
	}
	return created, nil
}

// GetByUserID retrieves paginated notifications for a user
func (r *notificationRepositoryImpl) GetByUserID(ctx context.Context, req notification.ListNotificationsRequest) ([]notification.Notification, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE user_id = $1"
	if req.UnreadOnly {
		whereClause += " AND is_read = false"
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM notifications "+whereClause, req.UserID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, user_id, title, content, type, is_read, read_at, created_at
		FROM notifications ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.Query(ctx, query, req.UserID, req.PageSize, (req.Page-1)*req.PageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifications := []notification.Notification{}
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Type, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// GetUnreadCount returns the count of unread notifications for a user
func (r *notificationRepositoryImpl) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&count)
	return count, err
}

// MarkAsRead marks specified notifications as read
func (r *notificationRepositoryImpl) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE id = ANY($1::uuid[]) AND user_id = $2 AND is_read = false
	`
	_, err := q.Exec(ctx, query, ids, userID)
	return err
}

// MarkAllAsRead marks all notifications as read for a user
func (r *notificationRepositoryImpl) MarkAllAsRead(ctx context.Context, userID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `UPDATE notifications SET is_read = true, read_at = NOW() WHERE user_id = $1 AND is_read = false`, userID)
	return err
}

// Delete removes a notification
func (r *notificationRepositoryImpl) Delete(ctx context.Context, id string, userID string) error {
	q := GetQuerier(ctx, r.db)

	result, err := q.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}
