package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 5

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// CookiesPath points at the exported-cookies JSON file. Empty means
	// run unauthenticated (guest mode only).
	CookiesPath string

	// CDPURL is the devtools endpoint of an external Chrome used for
	// failover when the managed browser renders empty pages.
	CDPURL string

	// CDPFailover toggles the automatic retry over CDPURL.
	CDPFailover bool // default: true when CDPURL is set

	// UseCDP attaches the whole service to the external Chrome at CDPURL
	// instead of launching a managed browser.
	UseCDP bool // default: false

	// BlockImages toggles request interception for image/media/font
	// resources.
	BlockImages bool // default: true

	// BlockedResourceTypes lists resource types to block when
	// BlockImages is on.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig controls extraction behavior.
type ScraperConfig struct {
	// DefaultTimeout is the per-request scrape deadline.
	DefaultTimeout time.Duration // default: 25s

	// MaxTimeout is the maximum deadline a client may request.
	MaxTimeout time.Duration // default: 120s

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// StabilizeRounds caps the scroll/settle rounds per stabilization.
	StabilizeRounds int // default: 10

	// QuietRounds is how many consecutive unchanged item counts end
	// stabilization early.
	QuietRounds int // default: 2

	// SettleDelay is the pause between stabilization rounds.
	SettleDelay time.Duration // default: 700ms

	// DebugDir is where debug screenshots and HTML dumps are written.
	DebugDir string // default: "debug"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the scrape response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 500

	// TTL is how long a cached response stays fresh.
	TTL time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	cdpURL := os.Getenv("CREDSCAN_CDP_URL")
	return &Config{
		Server: ServerConfig{
			Host: envOr("CREDSCAN_HOST", "0.0.0.0"),
			Port: envIntOr("CREDSCAN_PORT", 8080),
			Mode: envOr("CREDSCAN_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("CREDSCAN_HEADLESS", true),
			MaxPages:     envIntOr("CREDSCAN_MAX_PAGES", 5),
			DefaultProxy: os.Getenv("CREDSCAN_PROXY"),
			NoSandbox:    envBoolOr("CREDSCAN_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("CREDSCAN_BROWSER_BIN"),
			CookiesPath:  envOr("CREDSCAN_COOKIES_PATH", "cookies.json"),
			CDPURL:       cdpURL,
			CDPFailover:  envBoolOr("CREDSCAN_CDP_FAILOVER", cdpURL != ""),
			UseCDP:       envBoolOr("CREDSCAN_USE_CDP", false),
			BlockImages:  envBoolOr("CREDSCAN_BLOCK_IMAGES", true),
			BlockedResourceTypes: envSliceOr("CREDSCAN_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			DefaultTimeout:    envDurationOr("CREDSCAN_DEFAULT_TIMEOUT", 25*time.Second),
			MaxTimeout:        envDurationOr("CREDSCAN_MAX_TIMEOUT", 120*time.Second),
			NavigationTimeout: envDurationOr("CREDSCAN_NAV_TIMEOUT", 15*time.Second),
			StabilizeRounds:   envIntOr("CREDSCAN_STABILIZE_ROUNDS", 10),
			QuietRounds:       envIntOr("CREDSCAN_QUIET_ROUNDS", 2),
			SettleDelay:       envDurationOr("CREDSCAN_SETTLE_DELAY", 700*time.Millisecond),
			DebugDir:          envOr("CREDSCAN_DEBUG_DIR", "debug"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("CREDSCAN_AUTH_ENABLED", false),
			APIKeys: envSliceOr("CREDSCAN_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("CREDSCAN_RATE_RPS", 2.0),
			Burst:             envIntOr("CREDSCAN_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("CREDSCAN_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("CREDSCAN_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("CREDSCAN_LOG_LEVEL", "info"),
			Format: envOr("CREDSCAN_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
