package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(t *testing.T, fail int) (*emailServiceImpl, *[]sentMail, *int) {
	t.Helper()
	svc, err := NewEmailService(config.SMTPConfig{
		Host: "smtp.example.com", Port: 587, From: "hr@example.com", FromName: "Leave Dashboard",
	})
	require.NoError(t, err)

	impl := svc.(*emailServiceImpl)
	impl.backoff = time.Millisecond

	var sent []sentMail
	calls := 0
	impl.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		calls++
		if calls <= fail {
			return errors.New("421 try again later")
		}
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return impl, &sent, &calls
}

func TestSendLeaveSubmitted(t *testing.T) {
	svc, sent, _ := newTestService(t, 0)

	err := svc.SendLeaveSubmitted(context.Background(), "jane@example.com", LeaveEmailData{
		Name: "Jane", LeaveType: "ANNUAL", StartDate: "2026-03-02", EndDate: "2026-03-04", Days: 3, Status: "PENDING",
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", mail.addr)
	assert.Equal(t, []string{"jane@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: Your ANNUAL leave has been submitted")
	assert.Contains(t, mail.msg, "2026-03-04")
}

func TestSendLeaveDecision_EscapesNote(t *testing.T) {
	svc, sent, _ := newTestService(t, 0)

	err := svc.SendLeaveDecision(context.Background(), "jane@example.com", LeaveEmailData{
		Name: "Jane", LeaveType: "SICK", Status: "REJECTED", ModeratorNote: "<b>overlap</b>",
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].msg, "&lt;b&gt;overlap&lt;/b&gt;")
	assert.Contains(t, (*sent)[0].msg, "Subject: Your SICK leave was REJECTED")
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	svc, sent, calls := newTestService(t, 2)

	err := svc.SendLeaveSubmitted(context.Background(), "jane@example.com", LeaveEmailData{LeaveType: "CASUAL"})
	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
	assert.Len(t, *sent, 1)
}

func TestSendGivesUpAfterMaxRetries(t *testing.T) {
	svc, sent, calls := newTestService(t, 10)

	err := svc.SendLeaveSubmitted(context.Background(), "jane@example.com", LeaveEmailData{LeaveType: "CASUAL"})
	require.Error(t, err)
	assert.Equal(t, maxRetries, *calls)
	assert.Empty(t, *sent)
}

func TestSendSkippedWithoutHost(t *testing.T) {
	svc, err := NewEmailService(config.SMTPConfig{})
	require.NoError(t, err)
	assert.NoError(t, svc.SendLeaveSubmitted(context.Background(), "jane@example.com", LeaveEmailData{}))
}
