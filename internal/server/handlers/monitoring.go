package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/server/responses"
	"git.home.luguber.info/inful/dotrewrite/internal/version"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitoringHandlers contains health and readiness handlers.
type MonitoringHandlers struct {
	db           Pinger
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates monitoring handlers. db may be nil.
func NewMonitoringHandlers(db Pinger, startTime time.Time) *MonitoringHandlers {
	return &MonitoringHandlers{
		db:           db,
		startTime:    startTime,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck reports liveness, version and uptime.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Current(),
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write health response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

// HandleReadiness reports 503 until the job registry answers.
func (h *MonitoringHandlers) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ready := &responses.ReadinessResponse{Status: "ready", Database: "ok"}
	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			slog.Warn("Readiness check failed", logfields.Error(err))
			ready.Status = "not ready"
			ready.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	_ = writeJSON(w, status, ready)
}
