// Package metrics holds the Prometheus collectors for the reservation
// service. Collectors register against the default registry; the router
// exposes them on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ClaimsTotal counts claim attempts by outcome: "success", "busy",
	// "invalid_duration", "unknown_machine", "error".
	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundromat_claims_total",
		Help: "Claim attempts by outcome",
	}, []string{"result"})

	// ReleasesTotal counts forced releases
	ReleasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laundromat_releases_total",
		Help: "Forced machine releases",
	})

	// ReservationsExpired counts records rewritten free by the sweep
	ReservationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laundromat_reservations_expired_total",
		Help: "Reservations expired by the staleness sweep",
	})

	// AlertsFired counts completion warnings whose timers came due
	AlertsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laundromat_alerts_fired_total",
		Help: "Completion-warning alerts fired",
	})

	// AlertDeliveries counts webhook deliveries by final status:
	// "delivered", "failed".
	AlertDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundromat_alert_deliveries_total",
		Help: "Alert webhook deliveries by final status",
	}, []string{"status"})

	// HTTPRequests counts handled HTTP requests by method and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundromat_http_requests_total",
		Help: "HTTP requests by method and status code",
	}, []string{"method", "status"})
)

// Handler returns the /metrics endpoint handler
func Handler() http.Handler {
	return promhttp.Handler()
}
