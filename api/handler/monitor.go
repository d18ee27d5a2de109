// Package handler holds the run-monitor HTTP handlers.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/pricepivot/collector"
	"github.com/use-agent/pricepivot/dedup"
	"github.com/use-agent/pricepivot/pivot"
	"github.com/use-agent/pricepivot/rules"
)

// RunMonitor exposes a live collection run's progress.
type RunMonitor interface {
	Snapshot() *collector.Snapshot
}

// Health returns a handler for GET /api/v1/health.
func Health(m RunMonitor, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := m.Snapshot()

		status := "healthy"
		if snap.Stats.SamplerFault != "" {
			status = "degraded"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  status,
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"phase":   snap.Phase,
			"version": "0.1.0",
		})
	}
}

// Run returns a handler for GET /api/v1/run: the run's phase and counters
// without the record payload.
func Run(m RunMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := m.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"phase": snap.Phase,
			"stats": snap.Stats,
		})
	}
}

// Records returns a handler for GET /api/v1/records: the records accumulated
// so far, in discovery order.
func Records(m RunMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := m.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"count":   len(snap.Records),
			"records": snap.Records,
		})
	}
}

// Pivot returns a handler for GET /api/v1/pivot. The summary is recomputed
// from a deduplicated copy of the current record set on every request.
func Pivot(m RunMonitor, r *rules.CategoryRules) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := m.Snapshot()
		cleaned := dedup.Collapse(snap.Records)
		summary := pivot.Summarize(cleaned, r, pivot.Options{})
		c.JSON(http.StatusOK, summary)
	}
}
