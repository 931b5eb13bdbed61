package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dandantas/laundromat/internal/metrics"
	"github.com/dandantas/laundromat/internal/model"
	"github.com/dandantas/laundromat/internal/reservation"
	"github.com/dandantas/laundromat/pkg/middleware"
)

// ReservationHandler handles claim, release and the scan input surface
type ReservationHandler struct {
	engine      *reservation.Engine
	catalog     *model.Catalog
	stepMinutes int
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(engine *reservation.Engine, catalog *model.Catalog, stepMinutes int) *ReservationHandler {
	return &ReservationHandler{
		engine:      engine,
		catalog:     catalog,
		stepMinutes: stepMinutes,
	}
}

// ClaimRequest represents the claim request body
type ClaimRequest struct {
	// DurationMinutes of 0 falls back to the machine's catalog default
	DurationMinutes int `json:"duration_minutes"`
}

// ClaimResponse represents a successful claim
type ClaimResponse struct {
	MachineID       string `json:"machine_id"`
	DurationMinutes int    `json:"duration_minutes"`
	EndTime         string `json:"end_time"`
	Message         string `json:"message"`
}

// Claim handles POST /api/v1/machines/{id}/claim
func (h *ReservationHandler) Claim(w http.ResponseWriter, r *http.Request, machineID string) {
	var req ClaimRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	durationMinutes := req.DurationMinutes
	if durationMinutes == 0 {
		if machine, ok := h.catalog.Get(machineID); ok {
			durationMinutes = machine.DefaultDurationMinutes
		}
	}

	correlationID := middleware.GetCorrelationID(r.Context())
	record, err := h.engine.Claim(r.Context(), machineID, durationMinutes, correlationID)
	metrics.ClaimsTotal.WithLabelValues(claimResult(err)).Inc()
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ClaimResponse{
		MachineID:       record.MachineID,
		DurationMinutes: durationMinutes,
		EndTime:         record.EndTime.Format(time.RFC3339),
		Message:         "Machine claimed successfully",
	})
}

// ReleaseResponse represents a release confirmation
type ReleaseResponse struct {
	MachineID string `json:"machine_id"`
	Message   string `json:"message"`
}

// Release handles POST /api/v1/machines/{id}/release
func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request, machineID string) {
	correlationID := middleware.GetCorrelationID(r.Context())
	if err := h.engine.Release(r.Context(), machineID, correlationID); err != nil {
		writeEngineError(w, err)
		return
	}

	metrics.ReleasesTotal.Inc()
	writeJSON(w, http.StatusOK, ReleaseResponse{
		MachineID: machineID,
		Message:   "Machine released",
	})
}

// ScanRequest is the input event surface: a scanned or manually selected
// machine identifier
type ScanRequest struct {
	MachineID string `json:"machine_id"`
}

// DurationPrompt is the duration-selection step offered before a claim.
// Values are pre-clamped to the allowed range; the engine itself stays
// strict and rejects anything outside it.
type DurationPrompt struct {
	DefaultMinutes int `json:"default_minutes"`
	MinMinutes     int `json:"min_minutes"`
	MaxMinutes     int `json:"max_minutes"`
	StepMinutes    int `json:"step_minutes"`
}

// ScanResponse represents the outcome of a scan event
type ScanResponse struct {
	Result  string              `json:"result"` // "busy" or "select_duration"
	Status  model.MachineStatus `json:"status"`
	Prompt  *DurationPrompt     `json:"prompt,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Scan handles POST /api/v1/scan: checks the machine's live status and
// either reports it busy or opens the duration-selection step
func (h *ReservationHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.MachineID == "" {
		writeError(w, http.StatusBadRequest, "machine_id is required")
		return
	}

	status, err := h.engine.GetStatus(r.Context(), req.MachineID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if status.InUse {
		writeJSON(w, http.StatusOK, ScanResponse{
			Result:  "busy",
			Status:  status,
			Message: req.MachineID + " is currently in use",
		})
		return
	}

	machine, _ := h.catalog.Get(req.MachineID)
	minMinutes, maxMinutes := h.engine.DurationBounds()

	// Clamp the catalog default into the allowed range
	defaultMinutes := machine.DefaultDurationMinutes
	if defaultMinutes < minMinutes {
		defaultMinutes = minMinutes
	}
	if defaultMinutes > maxMinutes {
		defaultMinutes = maxMinutes
	}

	writeJSON(w, http.StatusOK, ScanResponse{
		Result: "select_duration",
		Status: status,
		Prompt: &DurationPrompt{
			DefaultMinutes: defaultMinutes,
			MinMinutes:     minMinutes,
			MaxMinutes:     maxMinutes,
			StepMinutes:    h.stepMinutes,
		},
	})
}
