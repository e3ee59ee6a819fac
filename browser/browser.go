// Package browser owns the headless-browser lifecycle and exposes page
// sessions to the extraction orchestrator. The orchestrator only ever sees
// the session operations (navigate, scroll, click, snapshot); launch flags,
// stealth fixtures, cookie plumbing and CDP failover all live here.
package browser

import (
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/credscan/config"
	"github.com/use-agent/credscan/models"
)

// Manager holds one browser process (or CDP connection) and its reusable
// page pool. It is safe for concurrent use; each scrape request borrows an
// isolated page.
type Manager struct {
	browser  *rod.Browser
	pool     rod.Pool[rod.Page]
	cfg      config.BrowserConfig
	launched bool // false when attached over CDP to an external Chrome
}

// New launches a managed headless browser and initialises the page pool.
func New(cfg config.BrowserConfig) (*Manager, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	return &Manager{
		browser:  b,
		pool:     rod.NewPagePool(cfg.MaxPages),
		cfg:      cfg,
		launched: true,
	}, nil
}

// ConnectCDP attaches to an already-running Chrome over its devtools
// endpoint. Closing the returned manager disconnects without killing the
// external browser process.
func ConnectCDP(cdpURL string, cfg config.BrowserConfig) (*Manager, error) {
	if cdpURL == "" {
		return nil, models.NewScrapeError(
			models.ErrCodeInvalidInput,
			"CDP mode requested but no CDP URL configured",
			nil,
		)
	}
	b := rod.New().ControlURL(cdpURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			fmt.Sprintf("failed to connect to CDP endpoint %s", cdpURL),
			err,
		)
	}
	slog.Info("attached to external browser", "cdpURL", cdpURL)

	return &Manager{
		browser:  b,
		pool:     rod.NewPagePool(cfg.MaxPages),
		cfg:      cfg,
		launched: false,
	}, nil
}

// MaxPages reports the pool capacity.
func (m *Manager) MaxPages() int {
	return m.cfg.MaxPages
}

// Close drains the page pool and shuts the browser down. For a launched
// browser this kills the process; for a CDP attachment it only disconnects.
func (m *Manager) Close() {
	slog.Info("browser manager shutting down: draining page pool")
	m.pool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if m.launched {
		m.browser.MustClose()
	} else {
		_ = m.browser.Close()
	}
	slog.Info("browser manager shutdown complete")
}

// acquirePage borrows a page from the pool, creating one on demand.
func (m *Manager) acquirePage() (*rod.Page, error) {
	page, err := m.pool.Get(func() (*rod.Page, error) {
		return m.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			err,
		)
	}
	return page, nil
}
