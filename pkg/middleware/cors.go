package middleware

import (
	"net/http"
	"strconv"
)

// CORSConfig holds the cross-origin policy for the API surface
type CORSConfig struct {
	AllowedOrigins   string
	AllowedMethods   string
	AllowedHeaders   string
	AllowCredentials bool
	MaxAge           int
}

// CORS applies the configured cross-origin policy and short-circuits
// preflight OPTIONS requests
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("Access-Control-Allow-Origin", config.AllowedOrigins)
			headers.Set("Access-Control-Allow-Methods", config.AllowedMethods)
			headers.Set("Access-Control-Allow-Headers", config.AllowedHeaders)
			if config.AllowCredentials {
				headers.Set("Access-Control-Allow-Credentials", "true")
			}
			if config.MaxAge > 0 {
				headers.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
