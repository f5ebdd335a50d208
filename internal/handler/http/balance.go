package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type BalanceHandler interface {
	Mine(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Edit(w http.ResponseWriter, r *http.Request)
}

type balanceHandlerImpl struct {
	balanceService balance.BalanceService
}

func NewBalanceHandler(balanceService balance.BalanceService) BalanceHandler {
	return &balanceHandlerImpl{balanceService: balanceService}
}

// Mine returns the caller's ledger, for the current year unless ?year= is given.
func (h *balanceHandlerImpl) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	b, err := h.balanceService.GetMyBalance(r.Context(), actor, r.URL.Query().Get("year"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, b)
}

func (h *balanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := balance.BalanceFilter{
		Year:      getOptionalQueryParam(r, "year"),
		UserEmail: getOptionalQueryParam(r, "email"),
		Page:      getIntQueryParam(r, "page", 1),
		Limit:     getIntQueryParam(r, "limit", 20),
	}

	result, err := h.balanceService.ListBalances(r.Context(), filter)
	if err != nil {
		slog.Error("ListBalances service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *balanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.balanceService.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, b)
}

// Edit replaces all counters of one ledger.
func (h *balanceHandlerImpl) Edit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req balance.EditBalancesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("EditBalances decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if req.ID != "" && req.ID != id {
		response.HandleError(w, user.ErrIDMismatch)
		return
	}
	req.ID = id

	b, err := h.balanceService.EditBalances(r.Context(), actor, req)
	if err != nil {
		slog.Error("EditBalances service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Balance updated successfully", b)
}
