package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/credscan/cache"
	"github.com/use-agent/credscan/models"
)

// StatsSource reports scraper liveness; the production implementation is
// *scraper.Scraper.
type StatsSource interface {
	Stats() models.PoolStats
	Uptime() time.Duration
}

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are active.
func Health(sc StatsSource, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sc.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		cacheEntries := 0
		if cc != nil {
			cacheEntries = cc.Len()
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       sc.Uptime().Round(time.Second).String(),
			PoolStats:    stats,
			CacheEntries: cacheEntries,
			Version:      "0.1.0",
		})
	}
}
