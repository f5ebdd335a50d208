package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotifications_ScopedToTokenUser(t *testing.T) {
	ts := newTestServer(t)
	ts.notification.On("GetNotifications", mock.Anything, notification.ListNotificationsRequest{
		UserID:     regularUser.ID,
		Page:       1,
		PageSize:   10,
		UnreadOnly: true,
	}).Return(notification.NotificationListResponse{Notifications: []notification.NotificationResponse{}}, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/notifications?page_size=10&unread_only=true", "", &regularUser)

	assert.Equal(t, http.StatusOK, rec.Code)
	ts.notification.AssertExpectations(t)
}

func TestNotifications_MarkAsRead(t *testing.T) {
	ts := newTestServer(t)
	ids := []string{"01960000-0000-7000-8000-0000000000c1"}
	ts.notification.On("MarkAsRead", mock.Anything, regularUser.ID, notification.MarkAsReadRequest{NotificationIDs: ids}).Return(nil)

	rec := ts.do(t, http.MethodPatch, "/api/v1/notifications/read", `{"notification_ids":["01960000-0000-7000-8000-0000000000c1"]}`, &regularUser)

	assert.Equal(t, http.StatusOK, rec.Code)
	ts.notification.AssertExpectations(t)
}

func TestNotifications_DeleteNotFound(t *testing.T) {
	ts := newTestServer(t)
	const id = "01960000-0000-7000-8000-0000000000c1"
	ts.notification.On("Delete", mock.Anything, regularUser.ID, id).Return(notification.ErrNotificationNotFound)

	rec := ts.do(t, http.MethodDelete, "/api/v1/notifications/"+id, "", &regularUser)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSSEToken_IsScopedToStream(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/notifications/sse-token", "", &regularUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var got notification.SSETokenResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &got))
	assert.Equal(t, 300, got.ExpiresIn)

	// an sse token is not an access token
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+got.Token)
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStream_RejectsMissingOrWrongToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/notifications/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	access := ts.token(t, regularUser)
	rec = ts.do(t, http.MethodGet, "/api/v1/notifications/stream?token="+access, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStream_DeliversEvents(t *testing.T) {
	ts := newTestServer(t)
	ts.notification.On("Subscribe", mock.Anything, regularUser.ID).Return()

	server := httptest.NewServer(ts.router)
	defer server.Close()

	sseToken, _, err := ts.jwt.GenerateSSEToken(regularUser.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/notifications/stream?token="+sseToken, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	ts.notification.events <- notification.SSEEvent{
		Event: "notification",
		Data:  notification.NotificationResponse{ID: "n-1", Title: "LEAVE APPROVED"},
	}

	seen := map[string]bool{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if ev, ok := strings.CutPrefix(line, "event: "); ok {
			seen[ev] = true
		}
		if strings.Contains(line, "LEAVE APPROVED") {
			seen["payload"] = true
		}
		if seen["connected"] && seen["notification"] && seen["payload"] && seen["ping"] {
			break
		}
	}

	assert.True(t, seen["connected"])
	assert.True(t, seen["notification"])
	assert.True(t, seen["payload"])
	assert.True(t, seen["ping"])
}
