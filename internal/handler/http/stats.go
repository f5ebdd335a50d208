package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/cmlabs-hris/leave-backend-go/internal/handler/http/response"
)

type StatsHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
}

type statsHandlerImpl struct {
	statsService stats.StatsService
}

func NewStatsHandler(statsService stats.StatsService) StatsHandler {
	return &statsHandlerImpl{statsService: statsService}
}

// Get returns the dashboard counters.
func (h *statsHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.statsService.GetStats(r.Context())
	if err != nil {
		slog.Error("GetStats service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
