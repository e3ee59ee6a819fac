package scraper

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/credscan/browser"
	"github.com/use-agent/credscan/extract"
	"github.com/use-agent/credscan/metrics"
	"github.com/use-agent/credscan/models"
)

// DoScrape runs one full extraction against a profile or detail URL.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard        – hard deadline on the entire operation
//  2. Session acquire      – pooled page, or dedicated browser for
//     proxy/headless/CDP overrides; cookies applied during setup
//  3. Navigate             – direct first, in-page location change as fallback
//  4. Empty-DOM failover   – retry over the external Chrome when the
//     managed browser renders nothing
//  5. Block detection      – the site's own error page is a hard failure
//  6. Guest classification – authwall/logged-out chrome downgrades, never fails
//  7. Stabilize            – scroll/settle until the item count converges
//  8. Main pass            – locate section, extract records
//  9. Expansion pass       – click "Show all", re-stabilize, extract again
//  10. Detail fallback     – forced /details/ navigation when nothing found
//  11. Merge + purge       – dedup by name, drop signal-free fallback records
//
// Only steps 3 and 5 can fail the scrape. Every per-strategy miss inside
// the cascade is recovered locally; a clean zero-record result is a valid
// response, not an error.
func (s *Scraper) DoScrape(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResponse, error) {
	req.Defaults()
	var trace models.Trace

	s.activeScrapes.Add(1)
	defer s.activeScrapes.Add(-1)

	// ── 1. Timeout guard ────────────────────────────────────────────
	timeout := time.Duration(req.MaxWait) * time.Millisecond
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}
	if timeout > s.cfg.MaxTimeout {
		timeout = s.cfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 2. Session acquire ──────────────────────────────────────────
	opts := browser.SessionOptions{
		Proxy:    req.Proxy,
		Headless: req.Headless,
	}
	if req.UseCDP {
		opts.CDPURL = req.CDPURL
		if opts.CDPURL == "" {
			opts.CDPURL = s.browserCfg.CDPURL
		}
	}
	sess, err := s.newSession(ctx, opts)
	if err != nil {
		return models.BuildErrorResponse(req, err.Error(), trace), err
	}
	defer func() { sess.Close() }()

	cookiesLoaded := sess.CookiesLoaded()
	trace.Addf("Cookies:%t", cookiesLoaded)

	// ── 3. Navigate ─────────────────────────────────────────────────
	if err := s.navigate(ctx, sess, req.URL, &trace); err != nil {
		return models.BuildErrorResponse(req, err.Error(), trace), err
	}
	rawHTML, _ := sess.HTML()

	// ── 4. Empty-DOM failover ───────────────────────────────────────
	// A blank DOM with a live connection means the managed browser got
	// fingerprinted. A real user's Chrome over CDP usually renders fine.
	if extract.PageLooksEmpty(rawHTML) && !req.UseCDP &&
		s.browserCfg.CDPFailover && s.browserCfg.CDPURL != "" {
		slog.Warn("primary browser rendered an empty DOM, failing over to CDP",
			"url", req.URL)
		failover, ferr := s.newSession(ctx, browser.SessionOptions{CDPURL: s.browserCfg.CDPURL})
		if ferr != nil {
			trace.Add("Failover:CDP:Unavailable")
		} else {
			sess.Close()
			sess = failover
			cookiesLoaded = sess.CookiesLoaded()
			trace.Add("Failover:CDP")
			if err := s.navigate(ctx, sess, req.URL, &trace); err != nil {
				return models.BuildErrorResponse(req, err.Error(), trace), err
			}
			rawHTML, _ = sess.HTML()
		}
	}

	// ── 5. Block detection ──────────────────────────────────────────
	if extract.IsErrorPage(rawHTML) {
		trace.Add("Blocked:ErrorPage")
		serr := models.NewScrapeError(models.ErrCodeBlocked,
			"target served its error page", nil)
		return models.BuildErrorResponse(req, serr.Error(), trace), serr
	}

	// ── 6. Guest classification ─────────────────────────────────────
	doc, err := parseDoc(rawHTML)
	if err != nil {
		serr := models.NewScrapeError(models.ErrCodeInternal,
			"failed to parse rendered page", err)
		return models.BuildErrorResponse(req, serr.Error(), trace), serr
	}
	guestMode := isGuestPage(doc, sess.CurrentURL())
	if guestMode {
		trace.Add("GuestMode")
	}
	authenticated := cookiesLoaded && !guestMode

	// ── 6b. Detail-only shortcut ────────────────────────────────────
	if req.DetailOnly {
		records := s.detailPass(ctx, sess, req.URL, &trace)
		return s.finish(req, sess, rawHTML, records, cookiesLoaded, guestMode, trace), nil
	}

	// ── 7. Stabilize ────────────────────────────────────────────────
	rawHTML, _ = s.stabilize(ctx, sess, &trace)
	doc, err = parseDoc(rawHTML)
	if err != nil {
		serr := models.NewScrapeError(models.ErrCodeInternal,
			"failed to parse stabilized page", err)
		return models.BuildErrorResponse(req, serr.Error(), trace), serr
	}

	// ── 8. Main pass ────────────────────────────────────────────────
	// A page that landed on a detail URL has no section ambiguity:
	// extract straight from its main region, no section search, no
	// expansion. Judged on the resolved URL, not the requested one;
	// redirects can rewrite it either way.
	if extract.IsDetailURL(sess.CurrentURL()) {
		root := doc.Find("main").First()
		if root.Length() == 0 {
			root = doc.Selection
		}
		records, itemTag := extract.ExtractFrom(root, "DetailView")
		trace.Addf("Scraped:DetailView:%s:%d", itemTag, len(records))
		return s.finish(req, sess, rawHTML, records, cookiesLoaded, guestMode, trace), nil
	}

	section, secTag := extract.LocateSection(doc, sess.CurrentURL())
	trace.Add("FindSection:" + secTag)
	if section == nil {
		// One deeper settle round before giving up on the section; slow
		// renders can land the section after the first convergence.
		rawHTML, _ = s.stabilize(ctx, sess, &trace)
		if doc2, perr := parseDoc(rawHTML); perr == nil {
			section, secTag = extract.LocateSection(doc2, sess.CurrentURL())
			trace.Add("FindSection:Retry:" + secTag)
		}
	}
	metrics.SectionLocates.WithLabelValues(metrics.StrategyLabel(secTag)).Inc()

	var merged []models.CertificateRecord
	var showAll *extract.ShowAllControl
	if section != nil {
		records, itemTag := extract.ExtractFrom(section, "MainView")
		trace.Addf("Scraped:MainView:%s:%d", itemTag, len(records))
		merged = extract.Merge(merged, records)
		showAll = extract.FindShowAllControl(section)
	}

	// ── 9. Expansion pass ───────────────────────────────────────────
	// The main view truncates to a preview regardless of how many records
	// exist, so a present show-all control always wins over trusting the
	// visible count.
	if showAll != nil && req.ShouldClickShowAll() {
		if !authenticated {
			// Guests get bounced to the authwall by expansion clicks;
			// the truncated public list is the best available.
			trace.Add("ShowAll:SkippedGuest")
		} else {
			records := s.expand(ctx, sess, showAll, req.URL, &trace)
			merged = extract.Merge(merged, records)
		}
	}

	// ── 10. Detail fallback ─────────────────────────────────────────
	if len(merged) == 0 && authenticated {
		records := s.detailPass(ctx, sess, req.URL, &trace)
		merged = extract.Merge(merged, records)
	}

	// ── 11. Merge + purge ───────────────────────────────────────────
	return s.finish(req, sess, rawHTML, merged, cookiesLoaded, guestMode, trace), nil
}

// finish applies the post-merge purge, captures diagnostics for empty debug
// runs, and composes the public response.
func (s *Scraper) finish(req *models.ScrapeRequest, sess Session, rawHTML string, records []models.CertificateRecord, cookiesLoaded, guestMode bool, trace models.Trace) *models.ScrapeResponse {
	records = extract.DropLowConfidence(records)

	var debugFiles map[string]string
	if req.Debug && len(records) == 0 {
		debugFiles = s.captureDebugArtifacts(sess, rawHTML)
	}

	slog.Info("scrape finished",
		"url", req.URL,
		"records", len(records),
		"guest", guestMode,
		"trace", trace.Join(),
	)
	return models.BuildResponse(req, records, cookiesLoaded, guestMode, trace, debugFiles)
}

// navigate loads the target, falling back to an in-page location change
// when the browser-level navigation is rejected.
func (s *Scraper) navigate(ctx context.Context, sess Session, target string, trace *models.Trace) error {
	derr := sess.Navigate(ctx, target, s.cfg.NavigationTimeout)
	if derr == nil {
		trace.Add("Nav:Direct")
		return nil
	}
	if errors.Is(derr, context.DeadlineExceeded) {
		trace.Add("Nav:Timeout")
		return models.NewScrapeError(models.ErrCodeTimeout,
			"navigation deadline exceeded", derr)
	}
	slog.Warn("direct navigation failed, retrying in-page",
		"url", target, "error", derr)

	if jerr := sess.NavigateJS(ctx, target); jerr != nil {
		trace.Add("Nav:Failed")
		return models.NewScrapeError(models.ErrCodeNavigation,
			"both direct and in-page navigation failed", jerr)
	}
	trace.Add("Nav:InPage")
	return nil
}

// expand drives the "Show all N certifications" control: click first, fall
// back to navigating its href, recover if the click bounced to an external
// verification site, then re-stabilize and extract the expanded list.
func (s *Scraper) expand(ctx context.Context, sess Session, ctrl *extract.ShowAllControl, profileURL string, trace *models.Trace) []models.CertificateRecord {
	trace.Add("Found:" + ctrl.Tag)

	clicked, cerr := sess.ClickMatching("a, button", extract.ShowAllTextPattern)
	switch {
	case cerr == nil && clicked:
		trace.Add("ShowAll:Clicked")
	default:
		target := ctrl.Href
		if target == "" {
			target = detailURL(profileURL)
		}
		if err := sess.Navigate(ctx, target, s.cfg.NavigationTimeout); err != nil {
			trace.Add("ShowAll:NavFailed")
			return nil
		}
		trace.Add("ShowAll:Href")
	}

	// A mis-hit on the card can land on the issuer's verification site.
	if cur := sess.CurrentURL(); cur != "" && !strings.Contains(cur, "linkedin.com") {
		trace.Add("Recovered:ExternalRedirect")
		if err := sess.Navigate(ctx, detailURL(profileURL), s.cfg.NavigationTimeout); err != nil {
			return nil
		}
	}

	rawHTML, _ := s.stabilize(ctx, sess, trace)
	doc, err := parseDoc(rawHTML)
	if err != nil {
		return nil
	}
	section, secTag := extract.LocateSection(doc, sess.CurrentURL())
	trace.Add("FindSection:" + secTag)
	if section == nil {
		return nil
	}
	records, itemTag := extract.ExtractFrom(section, "DetailView")
	trace.Addf("Scraped:DetailView:%s:%d", itemTag, len(records))
	return records
}

// detailPass navigates straight to the dedicated certifications page and
// extracts from it.
func (s *Scraper) detailPass(ctx context.Context, sess Session, profileURL string, trace *models.Trace) []models.CertificateRecord {
	target := detailURL(profileURL)
	trace.Add("DetailPass")

	if err := sess.Navigate(ctx, target, s.cfg.NavigationTimeout); err != nil {
		if jerr := sess.NavigateJS(ctx, target); jerr != nil {
			trace.Add("DetailPass:NavFailed")
			return nil
		}
	}

	rawHTML, _ := s.stabilize(ctx, sess, trace)
	doc, err := parseDoc(rawHTML)
	if err != nil {
		return nil
	}
	section, secTag := extract.LocateSection(doc, sess.CurrentURL())
	trace.Add("FindSection:" + secTag)
	if section == nil {
		section = doc.Selection
	}
	records, itemTag := extract.ExtractFrom(section, "DetailView")
	trace.Addf("Scraped:DetailView:%s:%d", itemTag, len(records))
	return records
}

// detailURL derives the dedicated certifications page from a profile URL.
func detailURL(profileURL string) string {
	if extract.IsDetailURL(profileURL) {
		return profileURL
	}
	base := profileURL
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "details/certifications/"
}

func parseDoc(rawHTML string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
}
