// Package api wires the HTTP surface: routes, middleware and handlers.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civiceg/voterlookup/api/handler"
	"github.com/civiceg/voterlookup/api/middleware"
	"github.com/civiceg/voterlookup/cache"
	"github.com/civiceg/voterlookup/config"
	"github.com/civiceg/voterlookup/district"
	"github.com/civiceg/voterlookup/gate"
	"github.com/civiceg/voterlookup/metrics"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics are intentionally outside auth so monitoring probes
// always work.
func NewRouter(rt handler.Retriever, sp handler.StatsProvider, admitter gate.Admitter, df *district.Filter, cc *cache.Cache, m *metrics.Metrics, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "voterlookup",
			"version": "0.1.0",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(sp, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(admitter, m))

	// Lookup
	protected.POST("/lookup", handler.PostLookup(rt, df, cc, m))
	protected.GET("/lookup/:national_id", handler.GetLookup(rt, df, cc, m))

	return r
}
