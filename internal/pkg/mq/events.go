package mq

import "time"

// Routing keys for leave lifecycle events
const (
	RoutingLeaveSubmitted = "leave.submitted"
	RoutingLeaveApproved  = "leave.approved"
	RoutingLeaveRejected  = "leave.rejected"

	// RoutingLeaveAll binds a queue to every leave event
	RoutingLeaveAll = "leave.*"
)

// LeaveEvent is the message body for every leave routing key
type LeaveEvent struct {
	EventID       string    `json:"eventId"`
	LeaveID       string    `json:"leaveId"`
	UserEmail     string    `json:"userEmail"`
	UserName      string    `json:"userName"`
	Type          string    `json:"type"`
	StartDate     string    `json:"startDate"`
	EndDate       string    `json:"endDate"`
	Days          int       `json:"days"`
	Status        string    `json:"status"`
	ModeratorNote string    `json:"moderatorNote,omitempty"`
	DecidedBy     string    `json:"decidedBy,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}
