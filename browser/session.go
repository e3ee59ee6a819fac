package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/credscan/config"
	"github.com/use-agent/credscan/models"
)

// SessionOptions carries the per-request overrides that require a session
// of their own rather than a pooled page.
type SessionOptions struct {
	// Proxy routes this session through a dedicated browser behind the
	// given proxy. Empty means use the shared pool.
	Proxy string

	// Headless overrides the configured headless mode. A visible browser
	// needs its own process, so this also forces a dedicated browser.
	Headless *bool

	// CDPURL attaches this session to an external Chrome instead of the
	// managed browser.
	CDPURL string
}

// Session is one live browser tab prepared for profile extraction:
// stealth installed, resource blocking mounted, cookies applied. It is
// not safe for concurrent use.
type Session struct {
	page      *rod.Page
	router    *rod.HijackRouter
	mgr       *Manager
	dedicated *rod.Browser // non-nil when this session owns its browser
	killOnEnd bool         // dedicated browser was launched (not CDP-attached)
	cookies   bool
}

// NewSession prepares a tab for scraping. Plain requests borrow a page from
// the shared pool; proxy, headless-override and CDP requests get a
// dedicated browser that is torn down on Close.
//
// Setup order matters: stealth and the hijack router only take effect for
// navigations that happen after they are installed, so both are mounted
// here, before the caller ever navigates.
func (m *Manager) NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	s := &Session{mgr: m}

	switch {
	case opts.CDPURL != "":
		b := rod.New().ControlURL(opts.CDPURL).Context(ctx)
		if err := b.Connect(); err != nil {
			return nil, models.NewScrapeError(
				models.ErrCodeBrowserCrash,
				fmt.Sprintf("failed to connect to CDP endpoint %s", opts.CDPURL),
				err,
			)
		}
		page, err := b.Page(proto.TargetCreateTarget{})
		if err != nil {
			_ = b.Close()
			return nil, models.NewScrapeError(
				models.ErrCodeBrowserCrash,
				"failed to create page on CDP browser",
				err,
			)
		}
		s.page = page
		s.dedicated = b

	case opts.Proxy != "" || (opts.Headless != nil && *opts.Headless != m.cfg.Headless):
		headless := m.cfg.Headless
		if opts.Headless != nil {
			headless = *opts.Headless
		}
		b, err := launchDedicated(m.cfg, headless, opts.Proxy)
		if err != nil {
			return nil, err
		}
		page, err := b.Page(proto.TargetCreateTarget{})
		if err != nil {
			b.MustClose()
			return nil, models.NewScrapeError(
				models.ErrCodeBrowserCrash,
				"failed to create page on dedicated browser",
				err,
			)
		}
		s.page = page
		s.dedicated = b
		s.killOnEnd = true

	default:
		page, err := m.acquirePage()
		if err != nil {
			return nil, err
		}
		s.page = page
	}

	if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	if m.cfg.BlockImages {
		s.router = blockResources(s.page, m.cfg.BlockedResourceTypes)
	}

	setRefererHeader(s.page)

	if m.cfg.CookiesPath != "" {
		loaded, err := applyCookieFile(s.page, m.cfg.CookiesPath)
		if err != nil {
			slog.Warn("cookie load failed, continuing as guest",
				"path", m.cfg.CookiesPath, "error", err)
		}
		s.cookies = loaded
	}

	return s, nil
}

// launchDedicated starts a one-shot browser for sessions that cannot share
// the pool.
func launchDedicated(cfg config.BrowserConfig, headless bool, proxy string) (*rod.Browser, error) {
	l := launcher.New().Headless(headless).NoSandbox(cfg.NoSandbox)
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if proxy != "" {
		l = l.Proxy(proxy)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch dedicated browser",
			err,
		)
	}
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to dedicated browser",
			err,
		)
	}
	return b, nil
}

// setRefererHeader makes navigations look like arrivals from a search
// result instead of a cold address-bar hit.
func setRefererHeader(page *rod.Page) {
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{
			"Referer": gson.New("https://www.google.com/"),
		},
	}.Call(page)
}

// CookiesLoaded reports whether a session cookie was applied to this tab.
func (s *Session) CookiesLoaded() bool {
	return s.cookies
}

// Navigate loads the URL and waits for the DOM to settle.
func (s *Session) Navigate(ctx context.Context, target string, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	if err := p.Navigate(target); err != nil {
		return models.NewScrapeError(
			models.ErrCodeNavigation,
			"navigation to target URL failed",
			err,
		)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err)
	}
	return nil
}

// NavigateJS changes location from inside the page instead of issuing a
// browser-level navigation. Single-page-app routing handles this without a
// full reload, which avoids some of the checks a hard navigation trips.
func (s *Session) NavigateJS(ctx context.Context, target string) error {
	p := s.page.Context(ctx)
	if _, err := p.Eval(`(u) => { window.location.href = u }`, target); err != nil {
		return models.NewScrapeError(
			models.ErrCodeNavigation,
			"in-page navigation failed",
			err,
		)
	}
	_ = p.WaitDOMStable(300*time.Millisecond, 0.1)
	return nil
}

// CurrentURL returns the page's location after any redirects.
func (s *Session) CurrentURL() string {
	res, err := s.page.Eval(`() => window.location.href`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// HTML snapshots the rendered document.
func (s *Session) HTML() (string, error) {
	rawHTML, err := s.page.HTML()
	if err != nil {
		return "", models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to extract page HTML",
			err,
		)
	}
	return rawHTML, nil
}

// ScrollBy scrolls down by the given number of viewports, pausing between
// steps so lazy-loaded content gets a chance to trigger.
func (s *Session) ScrollBy(viewports int) error {
	if viewports <= 0 {
		viewports = 1
	}
	res, err := s.page.Eval(`() => window.innerHeight`)
	if err != nil {
		return fmt.Errorf("failed to get viewport height: %w", err)
	}
	height := res.Value.Int()

	for i := 0; i < viewports; i++ {
		if err := s.page.Mouse.Scroll(0, float64(height), 0); err != nil {
			return fmt.Errorf("scroll step %d failed: %w", i, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

// ScrollToBottom jumps straight to the end of the document.
func (s *Session) ScrollToBottom() error {
	_, err := s.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

// ScrollToTop returns to the top of the document.
func (s *Session) ScrollToTop() error {
	_, err := s.page.Eval(`() => window.scrollTo(0, 0)`)
	return err
}

// ClickMatching clicks the first element under selector whose text matches
// the pattern (case-insensitive). It returns false without error when no
// such element exists; the cascade treats that as "try the next strategy",
// not a failure.
func (s *Session) ClickMatching(selector, textPattern string) (bool, error) {
	el, err := s.page.Timeout(2 * time.Second).ElementR(selector, "/"+textPattern+"/i")
	if err != nil {
		return false, nil
	}
	if err := el.ScrollIntoView(); err != nil {
		slog.Debug("scroll into view failed before click", "error", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("click failed: %w", err)
	}
	return true, nil
}

// WaitForSelector blocks until at least one element matches or the timeout
// elapses.
func (s *Session) WaitForSelector(selector string, timeout time.Duration) error {
	return s.page.Timeout(timeout).WaitElementsMoreThan(selector, 0)
}

// Screenshot captures the full page as PNG.
func (s *Session) Screenshot() ([]byte, error) {
	return s.page.Screenshot(true, nil)
}

// Close releases the tab. Pooled pages are parked on about:blank and
// returned; dedicated browsers are shut down entirely.
func (s *Session) Close() {
	if s.router != nil {
		_ = s.router.Stop()
	}
	if s.dedicated != nil {
		_ = s.page.Close()
		if s.killOnEnd {
			s.dedicated.MustClose()
		} else {
			_ = s.dedicated.Close()
		}
		return
	}
	if err := s.page.Navigate("about:blank"); err != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", err)
	}
	s.mgr.pool.Put(s.page)
}

// blockResources mounts a hijack router that drops the configured resource
// types before they hit the network.
func blockResources(page *rod.Page, blockedTypes []string) *rod.HijackRouter {
	if len(blockedTypes) == 0 {
		return nil
	}

	blocked := make(map[proto.NetworkResourceType]bool, len(blockedTypes))
	for _, t := range blockedTypes {
		if rt, ok := configToProto[strings.ToLower(t)]; ok {
			blocked[rt] = true
		} else {
			slog.Warn("unknown blocked resource type in config, ignoring", "type", t)
		}
	}

	router := page.HijackRequests()
	err := router.Add("*", "", func(ctx *rod.Hijack) {
		if blocked[ctx.Request.Type()] {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		slog.Warn("failed to mount hijack router, resource blocking disabled",
			"error", err)
		return nil
	}

	go router.Run()
	return router
}

// configToProto maps config resource-type names to CDP resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"image":      proto.NetworkResourceTypeImage,
	"stylesheet": proto.NetworkResourceTypeStylesheet,
	"font":       proto.NetworkResourceTypeFont,
	"media":      proto.NetworkResourceTypeMedia,
}
