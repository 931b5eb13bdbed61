package handler

import (
	"context"
	"net/http"

	"github.com/dandantas/laundromat/internal/model"
)

// AlertLister is the slice of the alert repository the handler needs
type AlertLister interface {
	List(ctx context.Context, machineID string, page, limit int) ([]model.AlertLog, int64, error)
}

// AlertHandler handles alert delivery log queries
type AlertHandler struct {
	repo AlertLister
}

// NewAlertHandler creates a new alert handler. repo may be nil when the
// memory storage driver is active.
func NewAlertHandler(repo AlertLister) *AlertHandler {
	return &AlertHandler{
		repo: repo,
	}
}

// AlertListResponse represents the alert list response
type AlertListResponse struct {
	Total   int64                   `json:"total"`
	Page    int                     `json:"page"`
	Limit   int                     `json:"limit"`
	Results []model.AlertLogSummary `json:"results"`
}

// List handles GET /api/v1/alerts
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "Alert history is not available with the memory storage driver")
		return
	}

	machineID := r.URL.Query().Get("machine_id")
	page, limit := parsePagination(r)

	alerts, total, err := h.repo.List(r.Context(), machineID, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]model.AlertLogSummary, len(alerts))
	for i := range alerts {
		summaries[i] = alerts[i].ToSummary()
	}

	writeJSON(w, http.StatusOK, AlertListResponse{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Results: summaries,
	})
}
