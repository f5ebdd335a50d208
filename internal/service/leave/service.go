package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/mq"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.LeaveRepository
	balanceRepo   balance.BalanceRepository
	userRepo      user.UserRepository
	notifications notification.Service
	stats         stats.StatsService
	events        leave.EventPublisher
	now           func() time.Time
}

// NewLeaveService builds the leave workflow. events may be nil when no broker
// is configured.
func NewLeaveService(
	tx database.Transactor,
	leaveRepository leave.LeaveRepository,
	balanceRepository balance.BalanceRepository,
	userRepository user.UserRepository,
	notificationService notification.Service,
	statsService stats.StatsService,
	events leave.EventPublisher,
) leave.LeaveService {
	return &LeaveServiceImpl{
		tx:              tx,
		LeaveRepository: leaveRepository,
		balanceRepo:     balanceRepository,
		userRepo:        userRepository,
		notifications:   notificationService,
		stats:           statsService,
		events:          events,
		now:             time.Now,
	}
}

// SubmitLeave books a pending leave and notifies the submitter, both in one
// transaction.
func (s *LeaveServiceImpl) SubmitLeave(ctx context.Context, actor user.Actor, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	ownerEmail, ownerName, err := s.resolveOwner(ctx, actor, req.User.Email)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	start, end, err := req.Range()
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	leaveType := leave.Type(req.Leave)

	var (
		created leave.Leave
		note    notification.Notification
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.LeaveRepository.ExistsForRange(ctx, ownerEmail, start, end)
		if err != nil {
			return fmt.Errorf("failed to check existing leave: %w", err)
		}
		if exists {
			return leave.ErrLeaveExists
		}

		created, err = s.LeaveRepository.Create(ctx, leave.Leave{
			UserEmail: ownerEmail,
			UserName:  ownerName,
			Type:      leaveType,
			StartDate: start,
			EndDate:   end,
			Days:      leave.CountDays(start, end),
			Year:      strconv.Itoa(s.now().Year()),
			UserNote:  req.Notes,
			Status:    leave.StatusPending,
		})
		if err != nil {
			if errors.Is(err, leave.ErrLeaveExists) {
				return err
			}
			return fmt.Errorf("failed to create leave: %w", err)
		}

		note, err = s.notifications.Create(ctx, notification.CreateNotificationRequest{
			UserID:  actor.ID,
			Type:    notification.TypeLeaveRequest,
			Title:   "LEAVE SUBMITTED",
			Content: fmt.Sprintf("Your %s Leave has successfully been submitted", leaveType),
		})
		return err
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	s.notifications.Publish(note)
	s.publish(ctx, mq.RoutingLeaveSubmitted, created, "")
	s.stats.Invalidate(ctx)
	metrics.IncrementLeaveSubmission(string(leaveType))

	return created.ToResponse(), nil
}

// resolveOwner returns whose leave is being booked. Only admins may name
// someone other than themselves.
func (s *LeaveServiceImpl) resolveOwner(ctx context.Context, actor user.Actor, requested string) (string, string, error) {
	if requested == "" || strings.EqualFold(requested, actor.Email) {
		return actor.Email, actor.Name, nil
	}
	if !actor.IsAdmin() {
		return "", "", leave.ErrSubmitForOtherUser
	}

	owner, err := s.userRepo.GetByEmail(ctx, requested)
	if err != nil {
		return "", "", err
	}
	return owner.Email, owner.Name, nil
}

// ApproveLeave moves the leave days from available to used on the owner's
// ledger and marks the leave approved.
func (s *LeaveServiceImpl) ApproveLeave(ctx context.Context, actor user.Actor, req leave.DecideLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.ValidateApprove(); err != nil {
		return leave.LeaveResponse{}, err
	}
	return s.decide(ctx, actor, req, leave.StatusApproved)
}

// RejectLeave marks the leave rejected. The ledger is untouched.
func (s *LeaveServiceImpl) RejectLeave(ctx context.Context, actor user.Actor, req leave.DecideLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.ValidateReject(); err != nil {
		return leave.LeaveResponse{}, err
	}
	return s.decide(ctx, actor, req, leave.StatusRejected)
}

func (s *LeaveServiceImpl) decide(ctx context.Context, actor user.Actor, req leave.DecideLeaveRequest, status leave.Status) (leave.LeaveResponse, error) {
	if !actor.CanDecideLeave() {
		return leave.LeaveResponse{}, user.ErrInsufficientPermissions
	}

	var moderatorNote *string
	if note := strings.TrimSpace(req.Note); note != "" {
		moderatorNote = &note
	}

	var (
		decided leave.Leave
		note    notification.Notification
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.LeaveRepository.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if current.Status != leave.StatusPending {
			return leave.ErrLeaveAlreadyProcessed
		}

		if status == leave.StatusApproved {
			if err := s.bookDays(ctx, current); err != nil {
				return err
			}
		}

		decided, err = s.LeaveRepository.UpdateDecision(ctx, current.ID, status, moderatorNote, actor.Email)
		if err != nil {
			return fmt.Errorf("failed to update leave: %w", err)
		}

		owner, err := s.userRepo.GetByEmail(ctx, decided.UserEmail)
		if err != nil {
			return fmt.Errorf("failed to get leave owner: %w", err)
		}

		note, err = s.notifications.Create(ctx, decisionNotification(owner.ID, decided))
		return err
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	routingKey := mq.RoutingLeaveApproved
	if status == leave.StatusRejected {
		routingKey = mq.RoutingLeaveRejected
	}

	s.notifications.Publish(note)
	s.publish(ctx, routingKey, decided, actor.Email)
	s.stats.Invalidate(ctx)
	metrics.IncrementLeaveDecision(string(status))

	return decided.ToResponse(), nil
}

// bookDays consumes the leave from its year's ledger, which stays locked
// until the transaction ends.
func (s *LeaveServiceImpl) bookDays(ctx context.Context, l leave.Leave) error {
	ledger, err := s.balanceRepo.GetByEmailAndYearForUpdate(ctx, l.UserEmail, l.Year)
	if err != nil {
		return err
	}
	if err := ledger.Consume(l.Type, l.Days); err != nil {
		return err
	}
	if _, err := s.balanceRepo.UpdateCounters(ctx, ledger); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func decisionNotification(ownerID string, l leave.Leave) notification.CreateNotificationRequest {
	if l.Status == leave.StatusApproved {
		return notification.CreateNotificationRequest{
			UserID:  ownerID,
			Type:    notification.TypeLeaveApproved,
			Title:   "LEAVE APPROVED",
			Content: fmt.Sprintf("Your %s Leave has been approved", l.Type),
		}
	}

	content := fmt.Sprintf("Your %s Leave has been rejected", l.Type)
	if l.ModeratorNote != nil {
		content += ": " + *l.ModeratorNote
	}
	return notification.CreateNotificationRequest{
		UserID:  ownerID,
		Type:    notification.TypeLeaveRejected,
		Title:   "LEAVE REJECTED",
		Content: content,
	}
}

// publish sends the event after commit. The leave is already stored, so a
// broker failure is logged and counted, not returned.
func (s *LeaveServiceImpl) publish(ctx context.Context, routingKey string, l leave.Leave, decidedBy string) {
	if s.events == nil {
		return
	}

	event := mq.LeaveEvent{
		EventID:    uuid.NewString(),
		LeaveID:    l.ID,
		UserEmail:  l.UserEmail,
		UserName:   l.UserName,
		Type:       string(l.Type),
		StartDate:  l.StartDate.Format("2006-01-02"),
		EndDate:    l.EndDate.Format("2006-01-02"),
		Days:       l.Days,
		Status:     string(l.Status),
		DecidedBy:  decidedBy,
		OccurredAt: s.now().UTC(),
	}
	if l.ModeratorNote != nil {
		event.ModeratorNote = *l.ModeratorNote
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.events.Publish(pubCtx, routingKey, event)
	metrics.IncrementEventPublished(routingKey, err)
	if err != nil {
		slog.Error("failed to publish leave event", "routing_key", routingKey, "leave_id", l.ID, "error", err)
	}
}

// GetLeave implements leave.LeaveService. Owners see their own leaves;
// deciders see all.
func (s *LeaveServiceImpl) GetLeave(ctx context.Context, actor user.Actor, id string) (leave.LeaveResponse, error) {
	if !validator.IsValidUUID(id) {
		return leave.LeaveResponse{}, validator.ValidationErrors{{Field: "id", Message: "id must be a valid UUID"}}
	}

	l, err := s.LeaveRepository.GetByID(ctx, id)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if !actor.CanDecideLeave() && !strings.EqualFold(l.UserEmail, actor.Email) {
		return leave.LeaveResponse{}, leave.ErrLeaveAccessDenied
	}
	return l.ToResponse(), nil
}

// ListLeaves implements leave.LeaveService.
func (s *LeaveServiceImpl) ListLeaves(ctx context.Context, filter leave.LeaveFilter) (leave.ListLeaveResponse, error) {
	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveResponse{}, err
	}

	leaves, total, err := s.LeaveRepository.List(ctx, filter)
	if err != nil {
		return leave.ListLeaveResponse{}, fmt.Errorf("failed to list leaves: %w", err)
	}

	resp := leave.ListLeaveResponse{
		Leaves:     make([]leave.LeaveResponse, 0, len(leaves)),
		TotalItems: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}
	for _, l := range leaves {
		resp.Leaves = append(resp.Leaves, l.ToResponse())
	}
	return resp, nil
}

// ListMyLeaves implements leave.LeaveService.
func (s *LeaveServiceImpl) ListMyLeaves(ctx context.Context, actor user.Actor, filter leave.LeaveFilter) (leave.ListLeaveResponse, error) {
	email := actor.Email
	filter.UserEmail = &email
	return s.ListLeaves(ctx, filter)
}
