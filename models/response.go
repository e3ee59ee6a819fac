package models

// ScrapeResponse is the response for POST /scrape/linkedin.
//
// The shape preserves the legacy contract: CertificatesList is a JSON array
// when records were found, the string "not found" when the scrape succeeded
// with zero records, and the string "error" on hard failure. This is the one
// serialized boundary that must stay stable for callers.
type ScrapeResponse struct {
	URL     string `json:"url"`
	Keyword string `json:"keyword,omitempty"`

	// Found is true when at least one record survived the merge.
	Found bool `json:"found"`

	TotalCertificates int `json:"total_certificates"`

	// CertificatesList is []CertificateRecord, "not found", or "error".
	CertificatesList any `json:"certificates_list"`

	// CookiesLoaded reports whether stored session cookies were applied.
	CookiesLoaded bool `json:"cookies_loaded"`

	// GuestMode is true when the page was served unauthenticated
	// (authwall or guest header detected).
	GuestMode bool `json:"guest_mode"`

	// Debug is the joined strategy trace ("FindSection:AnchorID | ...").
	Debug string `json:"debug"`

	// DebugFiles maps artifact names to file paths when the request debug
	// flag was set and diagnostics were captured.
	DebugFiles map[string]string `json:"debug_files,omitempty"`

	// CacheStatus is "hit" or "miss" when caching was requested.
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only on hard failures.
	Error string `json:"error,omitempty"`
}

// BuildResponse composes the public response from merged records.
func BuildResponse(req *ScrapeRequest, records []CertificateRecord, cookiesLoaded, guestMode bool, trace Trace, debugFiles map[string]string) *ScrapeResponse {
	resp := &ScrapeResponse{
		URL:               req.URL,
		Keyword:           req.Keyword,
		Found:             len(records) > 0,
		TotalCertificates: len(records),
		CookiesLoaded:     cookiesLoaded,
		GuestMode:         guestMode,
		Debug:             trace.Join(),
		DebugFiles:        debugFiles,
	}
	if len(records) > 0 {
		resp.CertificatesList = records
	} else {
		resp.CertificatesList = "not found"
	}
	return resp
}

// BuildErrorResponse composes the legacy-shaped error response.
func BuildErrorResponse(req *ScrapeRequest, errMsg string, trace Trace) *ScrapeResponse {
	return &ScrapeResponse{
		URL:              req.URL,
		Keyword:          req.Keyword,
		Found:            false,
		CertificatesList: "error",
		Debug:            trace.Join(),
		Error:            errMsg,
	}
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status       string    `json:"status"` // "healthy" or "degraded"
	Uptime       string    `json:"uptime"`
	PoolStats    PoolStats `json:"pool_stats"`
	CacheEntries int       `json:"cache_entries"`
	Version      string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
