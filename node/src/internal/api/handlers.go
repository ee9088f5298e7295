package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/stats"
)

// HealthStatus represents the health of the node
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// Handler serves the admin endpoints
type Handler struct {
	source  stats.Source
	logger  *shared.Logger
	started time.Time
}

// NewHandler creates a new admin handler
func NewHandler(source stats.Source, logger *shared.Logger) *Handler {
	return &Handler{
		source:  source,
		logger:  logger,
		started: time.Now(),
	}
}

// HealthCheckHandler handles GET /health
func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	h.writeJSON(w, http.StatusOK, HealthStatus{
		Status:    "healthy",
		Timestamp: now,
		Uptime:    now.Sub(h.started).Round(time.Second).String(),
	})
}

// StatsHandler handles GET /stats with a fresh snapshot of the store
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.source.Snapshot())
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Warn("encoding admin response")
	}
}
