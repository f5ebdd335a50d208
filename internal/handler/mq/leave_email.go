package mq

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/mq"
)

const leaveEmailHandlerName = "leave_email"

// Deduper remembers which events a handler already processed
type Deduper interface {
	AcquireOnce(ctx context.Context, handler string, eventID string) bool
	Release(ctx context.Context, handler string, eventID string)
}

// LeaveEmailHandler mails the leave owner for every leave event
type LeaveEmailHandler struct {
	mailer       email.EmailService
	dedup        Deduper
	dashboardURL string
}

// NewLeaveEmailHandler builds the handler. dedup may be nil, in which case
// redelivered events are mailed again.
func NewLeaveEmailHandler(mailer email.EmailService, dedup Deduper, dashboardURL string) *LeaveEmailHandler {
	return &LeaveEmailHandler{
		mailer:       mailer,
		dedup:        dedup,
		dashboardURL: dashboardURL,
	}
}

// Handle implements mq.MessageHandler.
func (h *LeaveEmailHandler) Handle(ctx context.Context, routingKey string, body []byte) error {
	var event mq.LeaveEvent
	if err := json.Unmarshal(body, &event); err != nil {
		// A malformed body never becomes valid, so it is dropped rather than requeued.
		slog.Error("failed to unmarshal leave event", "routing_key", routingKey, "error", err)
		return nil
	}

	template, send := h.route(routingKey)
	if send == nil {
		slog.Warn("no e-mail for routing key", "routing_key", routingKey, "event_id", event.EventID)
		return nil
	}

	if h.dedup != nil && event.EventID != "" && !h.dedup.AcquireOnce(ctx, leaveEmailHandlerName, event.EventID) {
		metrics.IncrementEmailSent(template, "skipped")
		return nil
	}

	data := email.LeaveEmailData{
		Name:          event.UserName,
		LeaveType:     event.Type,
		StartDate:     event.StartDate,
		EndDate:       event.EndDate,
		Days:          event.Days,
		Status:        event.Status,
		ModeratorNote: event.ModeratorNote,
		DashboardURL:  h.dashboardURL,
	}

	if err := send(ctx, event.UserEmail, data); err != nil {
		if h.dedup != nil && event.EventID != "" {
			h.dedup.Release(ctx, leaveEmailHandlerName, event.EventID)
		}
		metrics.IncrementEmailSent(template, "failed")
		return err
	}

	metrics.IncrementEmailSent(template, "success")
	slog.Info("leave e-mail sent", "routing_key", routingKey, "event_id", event.EventID, "leave_id", event.LeaveID)
	return nil
}

func (h *LeaveEmailHandler) route(routingKey string) (string, func(context.Context, string, email.LeaveEmailData) error) {
	switch routingKey {
	case mq.RoutingLeaveSubmitted:
		return "leave_submitted", h.mailer.SendLeaveSubmitted
	case mq.RoutingLeaveApproved, mq.RoutingLeaveRejected:
		return "leave_decision", h.mailer.SendLeaveDecision
	}
	return "", nil
}
