package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/reacts/reacts/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	for _, key := range sortedKeys(snap.AuthActions) {
		action, outcome, _ := strings.Cut(key, ".")
		writeMetric(w, "reacts_auth_actions_total{action=%q,outcome=%q} %d\n", action, outcome, snap.AuthActions[key])
	}
	writeMetric(w, "reacts_sessions_refreshed_total %d\n", snap.SessionsRefreshed)

	writeMetric(w, "reacts_sales_created_total %d\n", snap.SalesCreated)
	writeMetric(w, "reacts_sales_updated_total %d\n", snap.SalesUpdated)
	writeMetric(w, "reacts_sales_deleted_total %d\n", snap.SalesDeleted)
	writeMetric(w, "reacts_sales_import_failed_total %d\n", snap.SalesImportFailed)
	for _, format := range sortedKeys(snap.Exports) {
		writeMetric(w, "reacts_exports_total{format=%q} %d\n", format, snap.Exports[format])
	}

	writeMetric(w, "reacts_backend_calls_total %d\n", snap.BackendCalls)
	writeMetric(w, "reacts_backend_errors_total %d\n", snap.BackendErrors)
	writeMetric(w, "reacts_backend_duration_seconds_sum %.6f\n", snap.BackendDurationTotal.Seconds())
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
