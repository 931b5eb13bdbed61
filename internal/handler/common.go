package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dandantas/laundromat/internal/reservation"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// writeEngineError maps the engine error taxonomy to response codes
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reservation.ErrUnknownMachine):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reservation.ErrMachineBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, reservation.ErrInvalidDuration):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// claimResult maps an engine error to its metrics label
func claimResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, reservation.ErrMachineBusy):
		return "busy"
	case errors.Is(err, reservation.ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, reservation.ErrUnknownMachine):
		return "unknown_machine"
	default:
		return "error"
	}
}

// parseQueryInt parses an integer query parameter with a default value
func parseQueryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// parsePagination reads the page and limit query parameters, clamped so a
// hostile value never reaches the repository as a negative skip
func parsePagination(r *http.Request) (page, limit int) {
	page = parseQueryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}

	limit = parseQueryInt(r, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
