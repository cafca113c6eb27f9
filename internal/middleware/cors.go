package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the listed origins to call the JSON API with cookies.
// With no origins configured it is a pass-through.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader, TraceIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
