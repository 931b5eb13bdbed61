package handler

import (
	"net/http"
	"strings"

	"github.com/dandantas/laundromat/internal/metrics"
	"github.com/dandantas/laundromat/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	machineHandler     *MachineHandler
	reservationHandler *ReservationHandler
	historyHandler     *HistoryHandler
	alertHandler       *AlertHandler
	healthHandler      *HealthHandler
	corsConfig         middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	machineHandler *MachineHandler,
	reservationHandler *ReservationHandler,
	historyHandler *HistoryHandler,
	alertHandler *AlertHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		machineHandler:     machineHandler,
		reservationHandler: reservationHandler,
		historyHandler:     historyHandler,
		alertHandler:       alertHandler,
		healthHandler:      healthHandler,
		corsConfig:         corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Operational endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)
	mux.Handle("/metrics", metrics.Handler())

	// API endpoints
	mux.HandleFunc("/api/v1/machines", rt.handleMachines)
	mux.HandleFunc("/api/v1/machines/", rt.handleMachinesWithID)
	mux.HandleFunc("/api/v1/scan", rt.handleScan)
	mux.HandleFunc("/api/v1/history", rt.historyHandler.List)
	mux.HandleFunc("/api/v1/alerts", rt.alertHandler.List)

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}

// handleMachines routes the machine collection endpoint
func (rt *Router) handleMachines(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.machineHandler.List(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleMachinesWithID routes individual machine endpoints:
// GET  /api/v1/machines/{id}          — live status
// POST /api/v1/machines/{id}/claim    — reserve
// POST /api/v1/machines/{id}/release  — force free
func (rt *Router) handleMachinesWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/machines/")

	if machineID, ok := strings.CutSuffix(path, "/claim"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.reservationHandler.Claim(w, r, machineID)
		return
	}

	if machineID, ok := strings.CutSuffix(path, "/release"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.reservationHandler.Release(w, r, machineID)
		return
	}

	if strings.Contains(path, "/") || path == "" {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rt.machineHandler.Get(w, r, path)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleScan routes the scan input surface
func (rt *Router) handleScan(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.reservationHandler.Scan(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
