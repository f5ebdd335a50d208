package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu    sync.Mutex
	items []notification.Notification
}

func (f *fakeRepo) Create(_ context.Context, n notification.Notification) (notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uuid.Must(uuid.NewV7()).String()
	n.CreatedAt = time.Now()
	f.items = append(f.items, n)
	return n, nil
}

func (f *fakeRepo) GetByUserID(_ context.Context, req notification.ListNotificationsRequest) ([]notification.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notification.Notification
	for _, n := range f.items {
		if n.UserID == req.UserID && (!req.UnreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) GetUnreadCount(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c int64
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (f *fakeRepo) MarkAsRead(_ context.Context, ids []string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		for _, id := range ids {
			if f.items[i].ID == id && f.items[i].UserID == userID {
				f.items[i].IsRead = true
			}
		}
	}
	return nil
}

func (f *fakeRepo) MarkAllAsRead(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].UserID == userID {
			f.items[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.items {
		if n.ID == id && n.UserID == userID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

func TestCreate_ValidatesAndStores(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewNotificationService(repo, sse.NewHub())

	_, err := svc.Create(context.Background(), notification.CreateNotificationRequest{UserID: "u1", Type: "PING", Title: "x"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "type")

	n, err := svc.Create(context.Background(), notification.CreateNotificationRequest{
		UserID: "u1", Type: notification.TypeLeaveRequest, Title: "LEAVE SUBMITTED", Content: "Your ANNUAL Leave has successfully been submitted",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Len(t, repo.items, 1)
}

func TestCreate_DoesNotPushUntilPublish(t *testing.T) {
	hub := sse.NewHub()
	svc := NewNotificationService(&fakeRepo{}, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, cleanup := svc.Subscribe(ctx, "u1")
	defer cleanup()

	n, err := svc.Create(ctx, notification.CreateNotificationRequest{UserID: "u1", Type: notification.TypeLeaveApproved, Title: "LEAVE APPROVED"})
	require.NoError(t, err)

	select {
	case <-events:
		t.Fatal("event delivered before Publish")
	case <-time.After(20 * time.Millisecond):
	}

	svc.Publish(n)
	select {
	case ev := <-events:
		assert.Equal(t, "notification", ev.Event)
		assert.Equal(t, n.ID, ev.Data.ID)
	case <-time.After(time.Second):
		t.Fatal("no event after Publish")
	}
}

func TestGetNotifications_CountsUnread(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewNotificationService(repo, sse.NewHub())
	ctx := context.Background()

	first, err := svc.Create(ctx, notification.CreateNotificationRequest{UserID: "u1", Type: notification.TypeLeaveRequest, Title: "a"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, notification.CreateNotificationRequest{UserID: "u1", Type: notification.TypeLeaveRequest, Title: "b"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, notification.CreateNotificationRequest{UserID: "u2", Type: notification.TypeLeaveRequest, Title: "c"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkAsRead(ctx, "u1", notification.MarkAsReadRequest{NotificationIDs: []string{first.ID}}))

	list, err := svc.GetNotifications(ctx, notification.ListNotificationsRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, int64(1), list.UnreadCount)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)

	require.NoError(t, svc.MarkAllAsRead(ctx, "u1"))
	count, err := svc.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAsRead_RejectsEmptyIDs(t *testing.T) {
	svc := NewNotificationService(&fakeRepo{}, sse.NewHub())
	err := svc.MarkAsRead(context.Background(), "u1", notification.MarkAsReadRequest{})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestDelete_OtherUsersNotification(t *testing.T) {
	svc := NewNotificationService(&fakeRepo{}, sse.NewHub())
	ctx := context.Background()

	n, err := svc.Create(ctx, notification.CreateNotificationRequest{UserID: "u1", Type: notification.TypeLeaveRequest, Title: "a"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", n.ID), notification.ErrNotificationNotFound)
	assert.NoError(t, svc.Delete(ctx, "u1", n.ID))
}
