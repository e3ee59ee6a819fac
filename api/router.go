package api

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/credscan/api/handler"
	"github.com/use-agent/credscan/api/middleware"
	"github.com/use-agent/credscan/cache"
	"github.com/use-agent/credscan/config"
	"github.com/use-agent/credscan/metrics"
	"github.com/use-agent/credscan/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so monitoring probes always work.
func NewRouter(sc *scraper.Scraper, cfg *config.Config, cc *cache.Cache) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(sc, cc))
	v1.GET("/metrics", gin.WrapH(metrics.Handler()))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape/linkedin", handler.Scrape(sc, cc))

	return r
}
