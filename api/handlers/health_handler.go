// api/handlers/health_handler.go
package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orderkaro/orderkaro-backend/config"
	"github.com/orderkaro/orderkaro-backend/internal/cache"
	"github.com/orderkaro/orderkaro-backend/internal/monitor"
)

// HealthHandler serves liveness and diagnostics endpoints.
type HealthHandler struct {
	DB      *sql.DB
	Cfg     *config.Config
	Cache   *cache.QueryCache
	Monitor *monitor.Monitor
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB, cfg *config.Config, qc *cache.QueryCache, mon *monitor.Monitor) *HealthHandler {
	return &HealthHandler{
		DB:      db,
		Cfg:     cfg,
		Cache:   qc,
		Monitor: mon,
	}
}

// Health is a cheap liveness probe. It does not touch the database; the
// monitor already pings it on its own schedule.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.Cfg.Environment,
	})
}

// Diagnostics reports connection-monitor windows, recommendations and cache
// hit rates.
func (h *HealthHandler) Diagnostics(c *gin.Context) {
	resp := gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.Cfg.Environment,
	}
	if h.Monitor != nil {
		resp["connection"] = h.Monitor.Stats()
	}
	if h.Cache != nil {
		resp["cache"] = h.Cache.Stats()
	}
	c.JSON(http.StatusOK, resp)
}
