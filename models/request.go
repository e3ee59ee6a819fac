package models

// ScrapeRequest is the payload for POST /scrape/linkedin.
// It mirrors the existing public API contract so callers do not need to
// change their payload structure.
type ScrapeRequest struct {
	// URL is the target profile or detail page. Required.
	URL string `json:"url" binding:"required,url"`

	// Keyword is an optional caller-side correlation tag, echoed back in
	// the response. The scraper itself never interprets it.
	Keyword string `json:"keyword,omitempty"`

	// Debug enables screenshot/HTML dumps on empty results and verbose
	// trace tags. Never enable in production by default.
	Debug bool `json:"debug,omitempty"`

	// Headless overrides the configured headless mode for this request.
	Headless *bool `json:"headless,omitempty"`

	// MaxWait is the per-navigation/wait budget in milliseconds.
	// Default: 25000. Max: 120000.
	MaxWait int `json:"max_wait,omitempty" binding:"omitempty,min=1000,max=120000"`

	// DetailOnly skips the main-profile section search and goes straight
	// to the /details/certifications/ pages.
	DetailOnly bool `json:"detail_only,omitempty"`

	// ClickShowAll allows the orchestrator to expand truncated lists via
	// the "Show all" control. Default: true. Ignored in guest sessions.
	ClickShowAll *bool `json:"click_show_all,omitempty"`

	// Proxy overrides the default proxy for this request.
	Proxy string `json:"proxy,omitempty" binding:"omitempty,url"`

	// UseCDP connects to an already-running Chrome over CDP instead of
	// launching a managed browser.
	UseCDP bool `json:"use_cdp,omitempty"`

	// CDPURL is the devtools endpoint used when UseCDP is set (or when the
	// primary launch renders an empty DOM and failover is configured).
	CDPURL string `json:"cdp_url,omitempty"`

	// MaxAge enables response-cache lookups: a cached result younger than
	// MaxAge milliseconds is returned without touching the browser.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.MaxWait == 0 {
		r.MaxWait = 25000
	}
	if r.ClickShowAll == nil {
		t := true
		r.ClickShowAll = &t
	}
}

// ShouldClickShowAll reports whether show-all expansion is requested.
func (r *ScrapeRequest) ShouldClickShowAll() bool {
	return r.ClickShowAll == nil || *r.ClickShowAll
}
