// Package handler contains HTTP handlers for the API.
// Handlers are responsible for:
// - Calling use case methods
// - Converting results to HTTP responses
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgettool/src/core/usecase"
	"budgettool/src/infra/db"
)

// PoolStats reports lease counters for the detailed health view.
type PoolStats interface {
	Stats() db.Stats
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	healthService *usecase.HealthService
	pool          PoolStats
}

// NewHealthHandler creates a new HealthHandler. pool may be nil.
func NewHealthHandler(healthService *usecase.HealthService, pool PoolStats) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
		pool:          pool,
	}
}

// HealthResponse is the response for the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// DetailedHealthResponse adds component status and pool counters.
type DetailedHealthResponse struct {
	*usecase.HealthStatus
	Pool *db.Stats `json:"pool,omitempty"`
}

// Health reports that the process is up. It never touches the database.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Message: "API is running smoothly.",
	})
}

// DetailedHealth pings every backend and includes pool counters.
// A degraded backend answers 503.
// GET /health/detailed
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	resp := DetailedHealthResponse{HealthStatus: h.healthService.Check(c.Request.Context())}
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
