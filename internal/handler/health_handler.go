package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Moe-hub814/Academy/pkg/database"
	"github.com/Moe-hub814/Academy/pkg/redis"
)

// HealthHandler handles liveness and readiness probes
type HealthHandler struct {
	db      *database.PostgresDB
	redis   *redis.Client
	version string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *database.PostgresDB, redisClient *redis.Client, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redisClient,
		version: version,
	}
}

// Health reports process liveness
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready reports whether the backing stores are reachable
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
