package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/use-agent/pricepivot/api/handler"
	"github.com/use-agent/pricepivot/api/middleware"
	"github.com/use-agent/pricepivot/config"
	"github.com/use-agent/pricepivot/rules"
)

// NewRouter creates a configured Gin engine with the run-monitor routes.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → RateLimit
//
// Health and /metrics stay outside rate limiting so probes always work.
func NewRouter(m handler.RunMonitor, r *rules.CategoryRules, registry *prometheus.Registry, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.API.Mode)

	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(gin.Logger())

	v1 := e.Group("/api/v1")
	v1.GET("/health", handler.Health(m, startTime))

	limited := v1.Group("")
	limited.Use(middleware.RateLimit(5, 10))
	limited.GET("/run", handler.Run(m))
	limited.GET("/records", handler.Records(m))
	limited.GET("/pivot", handler.Pivot(m, r))

	if registry != nil {
		e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return e
}
