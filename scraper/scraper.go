// Package scraper drives the end-to-end extraction flow: acquire a browser
// session, get the profile page into a stable state, and run the extraction
// cascade over rendered snapshots. All DOM analysis happens in the extract
// package on plain HTML; this package only decides when to snapshot, scroll,
// click and navigate.
package scraper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/use-agent/credscan/browser"
	"github.com/use-agent/credscan/config"
	"github.com/use-agent/credscan/models"
)

// Session is the live-page surface the orchestrator needs. The production
// implementation is browser.Session; tests substitute a scripted fake.
type Session interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	NavigateJS(ctx context.Context, url string) error
	CurrentURL() string
	HTML() (string, error)
	ScrollBy(viewports int) error
	ScrollToBottom() error
	ScrollToTop() error
	ClickMatching(selector, textPattern string) (bool, error)
	WaitForSelector(selector string, timeout time.Duration) error
	Screenshot() ([]byte, error)
	CookiesLoaded() bool
	Close()
}

// SessionFactory opens a prepared session for one scrape.
type SessionFactory func(ctx context.Context, opts browser.SessionOptions) (Session, error)

// Scraper coordinates scrape requests over a shared browser manager.
// It is safe for concurrent use.
type Scraper struct {
	newSession    SessionFactory
	cfg           config.ScraperConfig
	browserCfg    config.BrowserConfig
	maxPages      int
	activeScrapes atomic.Int32
	startTime     time.Time

	// sleep is swapped out in tests so stabilization rounds don't wait.
	sleep func(time.Duration)
}

// New wires a Scraper to the browser manager.
func New(mgr *browser.Manager, browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) *Scraper {
	return &Scraper{
		newSession: func(ctx context.Context, opts browser.SessionOptions) (Session, error) {
			return mgr.NewSession(ctx, opts)
		},
		cfg:        scraperCfg,
		browserCfg: browserCfg,
		maxPages:   mgr.MaxPages(),
		startTime:  time.Now(),
		sleep:      time.Sleep,
	}
}

// Stats returns a snapshot of current scrape concurrency.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.maxPages,
		ActivePages: int(s.activeScrapes.Load()),
	}
}

// Uptime reports how long this scraper has been serving.
func (s *Scraper) Uptime() time.Duration {
	return time.Since(s.startTime)
}
