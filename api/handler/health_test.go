package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/credscan/cache"
	"github.com/use-agent/credscan/models"
)

type fakeStats struct {
	stats  models.PoolStats
	uptime time.Duration
}

func (f *fakeStats) Stats() models.PoolStats { return f.stats }
func (f *fakeStats) Uptime() time.Duration   { return f.uptime }

func getHealth(t *testing.T, sc StatsSource, cc *cache.Cache) models.HealthResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health(sc, cc))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp
}

func TestHealth_ReportsUptimeAndCacheSize(t *testing.T) {
	cc := cache.New(8, time.Minute)
	cc.Set(cache.Key("https://www.linkedin.com/in/jane/", false), &models.ScrapeResponse{})
	cc.Set(cache.Key("https://www.linkedin.com/in/john/", false), &models.ScrapeResponse{})

	resp := getHealth(t, &fakeStats{
		stats:  models.PoolStats{MaxPages: 5, ActivePages: 1},
		uptime: 90 * time.Second,
	}, cc)

	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.Uptime != "1m30s" {
		t.Errorf("uptime = %q, want 1m30s", resp.Uptime)
	}
	if resp.CacheEntries != 2 {
		t.Errorf("cache_entries = %d, want 2", resp.CacheEntries)
	}
}

func TestHealth_DegradesOnPoolPressure(t *testing.T) {
	resp := getHealth(t, &fakeStats{
		stats: models.PoolStats{MaxPages: 5, ActivePages: 5},
	}, nil)

	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded at full pool", resp.Status)
	}
	if resp.CacheEntries != 0 {
		t.Errorf("cache_entries = %d, want 0 without a cache", resp.CacheEntries)
	}
}
