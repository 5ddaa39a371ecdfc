package handlers

import (
	"net/http"

	"github.com/isdelr/grandline-guide/internal/api/respond"
	"github.com/isdelr/grandline-guide/internal/monitoring"
)

// HealthReporter is implemented by monitoring.Monitor.
type HealthReporter interface {
	Report() monitoring.HealthReport
}

// HealthHandler exposes the latest background health check.
type HealthHandler struct {
	monitor HealthReporter
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(monitor HealthReporter) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// Get handles GET /healthz.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	report := h.monitor.Report()
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	respond.JSON(w, status, report)
}
