package handlers

import (
	"net/http"

	"github.com/slgirgis/horizonscale/internal/api/stream"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
	"github.com/slgirgis/horizonscale/pkg/redis"
)

// HealthHandler reports service and dependency health
type HealthHandler struct {
	db     *database.DB
	cache  *redis.Client
	hub    *stream.Hub
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, cache *redis.Client, hub *stream.Hub, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		cache:  cache,
		hub:    hub,
		logger: log,
	}
}

// Liveness returns a bare liveness signal
// GET /health
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "horizonscale-api",
	})
}

// Readiness checks the database pool and cache connectivity
// GET /health/ready
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	status, err := h.db.HealthCheck(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Database health check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"database":         status,
		"cache_enabled":    h.cache.Enabled(),
		"progress_clients": h.hub.ClientCount(),
	})
}
