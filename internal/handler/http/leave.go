package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Mine(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &leaveHandlerImpl{leaveService: leaveService}
}

// Submit stores a leave request for the caller, or for user.email when an admin files it.
func (h *leaveHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req leave.SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SubmitLeave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.leaveService.SubmitLeave(r.Context(), actor, req)
	if err != nil {
		slog.Error("SubmitLeave service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Success", result)
}

func (h *leaveHandlerImpl) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.leaveService.ListMyLeaves(r.Context(), actor, leaveFilterFromRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *leaveHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := leaveFilterFromRequest(r)
	filter.UserEmail = getOptionalQueryParam(r, "email")

	result, err := h.leaveService.ListLeaves(r.Context(), filter)
	if err != nil {
		slog.Error("ListLeaves service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *leaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.leaveService.GetLeave(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *leaveHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.leaveService.ApproveLeave, "Leave approved")
}

func (h *leaveHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.leaveService.RejectLeave, "Leave rejected")
}

type decideFunc func(ctx context.Context, actor user.Actor, req leave.DecideLeaveRequest) (leave.LeaveResponse, error)

func (h *leaveHandlerImpl) decide(w http.ResponseWriter, r *http.Request, fn decideFunc, message string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req leave.DecideLeaveRequest
	// the approve form may post without a body
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("DecideLeave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := fn(r.Context(), actor, req)
	if err != nil {
		slog.Error("DecideLeave service error", "error", err, "leave_id", req.ID)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, message, result)
}

func leaveFilterFromRequest(r *http.Request) leave.LeaveFilter {
	filter := leave.LeaveFilter{
		Year:  getOptionalQueryParam(r, "year"),
		Page:  getIntQueryParam(r, "page", 1),
		Limit: getIntQueryParam(r, "limit", 20),
	}
	if s := getOptionalQueryParam(r, "status"); s != nil {
		status := leave.Status(*s)
		filter.Status = &status
	}
	if t := getOptionalQueryParam(r, "type"); t != nil {
		typ := leave.Type(*t)
		filter.Type = &typ
	}
	return filter
}
