package leave

import (
	"context"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
)

type LeaveService interface {
	SubmitLeave(ctx context.Context, actor user.Actor, req SubmitLeaveRequest) (LeaveResponse, error)
	ApproveLeave(ctx context.Context, actor user.Actor, req DecideLeaveRequest) (LeaveResponse, error)
	RejectLeave(ctx context.Context, actor user.Actor, req DecideLeaveRequest) (LeaveResponse, error)
	GetLeave(ctx context.Context, actor user.Actor, id string) (LeaveResponse, error)
	ListLeaves(ctx context.Context, filter LeaveFilter) (ListLeaveResponse, error)
	ListMyLeaves(ctx context.Context, actor user.Actor, filter LeaveFilter) (ListLeaveResponse, error)
}
