package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civiceg/voterlookup/models"
)

// StatsProvider reports browser pool utilisation. A nil provider means the
// browser never started.
type StatsProvider interface {
	Stats() models.PoolStats
}

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are
// active. When the browser is down entirely the endpoint answers 503 so
// load balancers rotate the instance out.
func Health(sp StatsProvider, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sp == nil {
			c.JSON(http.StatusServiceUnavailable, models.HealthResponse{
				Status:  "unavailable",
				Uptime:  time.Since(startTime).Round(time.Second).String(),
				Version: "0.1.0",
			})
			return
		}

		stats := sp.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Version:   "0.1.0",
		})
	}
}
