// Package metrics exposes Prometheus instrumentation for the scrape
// pipeline. Everything registers on the default registry; the router mounts
// the handler at /api/v1/metrics.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScrapesTotal counts scrapes by outcome: found, empty, error, cache_hit.
	ScrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credscan_scrapes_total",
		Help: "Scrape requests by outcome.",
	}, []string{"outcome"})

	// RecordsExtracted counts certificate records returned to callers.
	RecordsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credscan_records_extracted_total",
		Help: "Certificate records returned across all scrapes.",
	})

	// SectionLocates counts which locator strategy found (or missed) the
	// certificate section. A drift toward the fallback strategies is the
	// early warning that the primary selectors rotted.
	SectionLocates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credscan_section_locates_total",
		Help: "Section locator outcomes by strategy.",
	}, []string{"strategy"})

	// ScrapeDuration observes end-to-end scrape latency.
	ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "credscan_scrape_duration_seconds",
		Help:    "End-to-end scrape duration.",
		Buckets: []float64{1, 2.5, 5, 10, 15, 25, 40, 60, 120},
	})
)

// StrategyLabel reduces a trace tag ("AnchorTrace:Card:Credential") to its
// leading strategy name, keeping label cardinality bounded.
func StrategyLabel(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[:i]
	}
	return tag
}

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
