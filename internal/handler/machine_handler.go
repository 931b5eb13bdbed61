package handler

import (
	"net/http"

	"github.com/dandantas/laundromat/internal/reservation"
)

// MachineHandler serves the live busy/free view of the catalog
type MachineHandler struct {
	engine *reservation.Engine
}

// NewMachineHandler creates a new machine handler
func NewMachineHandler(engine *reservation.Engine) *MachineHandler {
	return &MachineHandler{
		engine: engine,
	}
}

// List handles GET /api/v1/machines
func (h *MachineHandler) List(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.engine.ListStatuses(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"machines": statuses,
	})
}

// Get handles GET /api/v1/machines/{id}
func (h *MachineHandler) Get(w http.ResponseWriter, r *http.Request, machineID string) {
	status, err := h.engine.GetStatus(r.Context(), machineID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
