package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db      HealthChecker
	cache   HealthChecker
	backend HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for db when sales go through the backend's REST API.
func NewHealthHandler(db, cache, backend HealthChecker) *HealthHandler {
	return &HealthHandler{
		db:      db,
		cache:   cache,
		backend: backend,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint.
// It returns 200 if the server is running.
// No dependency checks - this is for Kubernetes liveness probes.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "ok",
	}
	writeJSON(w, http.StatusOK, response)
}

// Readyz is a readiness probe endpoint.
// It checks all dependencies and returns 200 only if all are healthy.
// For Kubernetes readiness probes - removes pod from LB if failing.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	for name, checker := range map[string]HealthChecker{
		"postgres": h.db,
		"redis":    h.cache,
		"backend":  h.backend,
	} {
		if !probe(ctx, checks, name, checker) {
			healthy = false
		}
	}

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status: status,
		Checks: checks,
	}

	writeJSON(w, statusCode, response)
}

// probe records one dependency check. Unconfigured dependencies pass.
func probe(ctx context.Context, checks map[string]string, name string, checker HealthChecker) bool {
	if checker == nil {
		checks[name] = "not configured"
		return true
	}
	if err := checker.Ping(ctx); err != nil {
		checks[name] = "error: " + err.Error()
		return false
	}
	checks[name] = "ok"
	return true
}
