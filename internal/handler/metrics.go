package handler

import (
	"net/http"

	"github.com/shaikwasi806/bank-app/internal/metrics"
)

// MetricsHandler exposes in-process counters for debugging and dashboards.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(s metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: s}
}

// Metrics handles GET /internal/metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshotter.Snapshot())
}
