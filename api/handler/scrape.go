package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/credscan/cache"
	"github.com/use-agent/credscan/metrics"
	"github.com/use-agent/credscan/models"
	"github.com/use-agent/credscan/scraper"
)

// Scrape returns a handler for POST /api/v1/scrape/linkedin.
//
// Flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup when the caller sent max_age.
//  3. Scraper.DoScrape → merged records + strategy trace.
//  4. Store in cache, return 200 with the legacy response shape.
//
// A scrape that finds nothing is still a 200: the response carries
// found=false and certificates_list="not found". Only hard failures
// (navigation, block page, timeout) map to error statuses.
func Scrape(sc *scraper.Scraper, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.BuildErrorResponse(
				&req, "invalid request: "+err.Error(), nil))
			return
		}
		req.Defaults()

		// ── 2. Cache lookup ─────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			key := cache.Key(req.URL, req.DetailOnly)
			if cached, hit := cc.Get(key, req.MaxAge); hit {
				// The stored entry is shared across requests and must never
				// be written to; the status goes on a per-request copy.
				out := *cached
				out.CacheStatus = "hit"
				metrics.ScrapesTotal.WithLabelValues("cache_hit").Inc()
				c.JSON(http.StatusOK, &out)
				return
			}
		}

		// ── 3. Scrape ───────────────────────────────────────────────
		resp, err := sc.DoScrape(c.Request.Context(), &req)
		metrics.ScrapeDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.ScrapesTotal.WithLabelValues("error").Inc()
			respondError(c, &req, resp, err)
			return
		}

		outcome := "empty"
		if resp.Found {
			outcome = "found"
		}
		metrics.ScrapesTotal.WithLabelValues(outcome).Inc()
		metrics.RecordsExtracted.Add(float64(resp.TotalCertificates))

		// ── 4. Cache store + respond ────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			resp.CacheStatus = "miss"
			// Store a status-free copy, detached from the response still
			// being serialized below.
			stored := *resp
			stored.CacheStatus = ""
			cc.Set(cache.Key(req.URL, req.DetailOnly), &stored)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code while
// keeping the legacy body (certificates_list="error" plus the trace the
// orchestrator accumulated before failing).
func respondError(c *gin.Context, req *models.ScrapeRequest, resp *models.ScrapeResponse, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	if resp == nil {
		resp = models.BuildErrorResponse(req, scrapeErr.Error(), nil)
	}
	c.JSON(mapErrorToStatus(scrapeErr), resp)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeBlocked:
		return http.StatusForbidden // 403
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
