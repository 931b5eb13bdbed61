package handler

import (
	"context"
	"net/http"

	"github.com/dandantas/laundromat/internal/model"
)

// HistoryLister is the slice of the history repository the handler needs
type HistoryLister interface {
	List(ctx context.Context, machineID string, page, limit int) ([]model.ReservationEvent, int64, error)
}

// HistoryHandler handles reservation history queries
type HistoryHandler struct {
	repo HistoryLister
}

// NewHistoryHandler creates a new history handler. repo may be nil when the
// memory storage driver is active.
func NewHistoryHandler(repo HistoryLister) *HistoryHandler {
	return &HistoryHandler{
		repo: repo,
	}
}

// HistoryListResponse represents the history list response
type HistoryListResponse struct {
	Total   int64                           `json:"total"`
	Page    int                             `json:"page"`
	Limit   int                             `json:"limit"`
	Results []model.ReservationEventSummary `json:"results"`
}

// List handles GET /api/v1/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "History is not available with the memory storage driver")
		return
	}

	machineID := r.URL.Query().Get("machine_id")
	page, limit := parsePagination(r)

	events, total, err := h.repo.List(r.Context(), machineID, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]model.ReservationEventSummary, len(events))
	for i := range events {
		summaries[i] = events[i].ToSummary()
	}

	writeJSON(w, http.StatusOK, HistoryListResponse{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Results: summaries,
	})
}
