package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/credscan/browser"
	"github.com/use-agent/credscan/config"
	"github.com/use-agent/credscan/models"
)

const (
	testProfileURL = "https://www.linkedin.com/in/someone/"
	testDetailURL  = "https://www.linkedin.com/in/someone/details/certifications/"
)

// fakeSession is a scripted Session: pages maps URLs to rendered HTML,
// clickTarget is where a successful show-all click lands, and redirects
// rewrites navigations server-side.
type fakeSession struct {
	pages       map[string]string
	htmlSeq     []string // when set, HTML() consumes this instead of pages
	current     string
	clickTarget string
	redirects   map[string]string
	cookies     bool

	navs    []string
	clicks  []string
	closed  bool
	navFail bool
}

func (f *fakeSession) land(url string) {
	f.navs = append(f.navs, url)
	f.current = url
	if to, ok := f.redirects[url]; ok {
		f.current = to
	}
}

func (f *fakeSession) Navigate(_ context.Context, url string, _ time.Duration) error {
	if f.navFail {
		return errors.New("net::ERR_CONNECTION_RESET")
	}
	f.land(url)
	return nil
}

func (f *fakeSession) NavigateJS(_ context.Context, url string) error {
	if f.navFail {
		return errors.New("Eval: target closed")
	}
	f.land(url)
	return nil
}

func (f *fakeSession) CurrentURL() string { return f.current }

func (f *fakeSession) HTML() (string, error) {
	if len(f.htmlSeq) > 0 {
		h := f.htmlSeq[0]
		if len(f.htmlSeq) > 1 {
			f.htmlSeq = f.htmlSeq[1:]
		}
		return h, nil
	}
	return f.pages[f.current], nil
}

func (f *fakeSession) ScrollBy(int) error    { return nil }
func (f *fakeSession) ScrollToBottom() error { return nil }
func (f *fakeSession) ScrollToTop() error    { return nil }

func (f *fakeSession) ClickMatching(selector, pattern string) (bool, error) {
	f.clicks = append(f.clicks, selector+"|"+pattern)
	if strings.Contains(pattern, "Show all") && f.clickTarget != "" {
		f.current = f.clickTarget
		return true, nil
	}
	return false, nil
}

func (f *fakeSession) WaitForSelector(string, time.Duration) error { return nil }

func (f *fakeSession) Screenshot() ([]byte, error) { return []byte{0x89, 'P', 'N', 'G'}, nil }
func (f *fakeSession) CookiesLoaded() bool         { return f.cookies }
func (f *fakeSession) Close()                      { f.closed = true }

func newTestScraper(t *testing.T, f *fakeSession) *Scraper {
	t.Helper()
	return &Scraper{
		newSession: func(context.Context, browser.SessionOptions) (Session, error) {
			return f, nil
		},
		cfg: config.ScraperConfig{
			DefaultTimeout:    5 * time.Second,
			MaxTimeout:        10 * time.Second,
			NavigationTimeout: time.Second,
			StabilizeRounds:   5,
			QuietRounds:       2,
			SettleDelay:       0,
			DebugDir:          t.TempDir(),
		},
		sleep:     func(time.Duration) {},
		startTime: time.Now(),
	}
}

// certItems renders n lockup-layout entries named after the given prefix.
func certItems(prefix string, n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `
			<div data-view-name="profile-component-entity">
				<span aria-hidden="true">%s Certificate Number %d</span>
				<span aria-hidden="true">Acme Institute</span>
			</div>`, prefix, i)
	}
	return b.String()
}

func mainPage(items, extra string) string {
	return `<html><body><main>
		<section><h2>Experience</h2><ul><li>Initech</li></ul></section>
		<section>
			<div id="licenses_and_certifications"></div>` +
		items + `
			<a href="/in/someone/details/certifications/">Show all 5 certifications</a>
		</section>` + extra + `
	</main></body></html>`
}

func detailPage(items string) string {
	return `<html><body><main>` + items + `</main></body></html>`
}

func TestDoScrape_TruncatedMainViewExpands(t *testing.T) {
	f := &fakeSession{
		cookies: true,
		pages: map[string]string{
			testProfileURL: mainPage(certItems("Widget", 3), ""),
			testDetailURL:  detailPage(certItems("Widget", 5)),
		},
		clickTarget: testDetailURL,
	}
	s := newTestScraper(t, f)

	resp, err := s.DoScrape(context.Background(), &models.ScrapeRequest{URL: testProfileURL})
	if err != nil {
		t.Fatalf("DoScrape: %v", err)
	}
	if !resp.Found || resp.TotalCertificates != 5 {
		t.Errorf("found=%v total=%d, want 5 records after expansion (debug: %s)",
			resp.Found, resp.TotalCertificates, resp.Debug)
	}
	records, ok := resp.CertificatesList.([]models.CertificateRecord)
	if !ok {
		t.Fatalf("certificates_list is %T, want record slice", resp.CertificatesList)
	}
	for _, rec := range records {
		if rec.Issuer != "Acme Institute" {
			t.Errorf("record %q lost its issuer: %+v", rec.Name, rec)
		}
	}

	trace := models.Trace(strings.Split(resp.Debug, " | "))
	if !trace.Contains("ShowAll:Clicked") {
		t.Errorf("trace missing expansion click: %s", resp.Debug)
	}
	if !trace.Contains("Scraped:DetailView") {
		t.Errorf("trace missing detail pass: %s", resp.Debug)
	}
	if !f.closed {
		t.Error("session was not released")
	}
}

func TestDoScrape_GuestModeSkipsExpansion(t *testing.T) {
	guestHeader := `<a class="nav__button-secondary" href="/login">Sign in</a>`
	f := &fakeSession{
		cookies: false,
		pages: map[string]string{
			testProfileURL: mainPage(certItems("Public", 3), guestHeader),
		},
		clickTarget: testDetailURL,
	}
	s := newTestScraper(t, f)

	resp, err := s.DoScrape(context.Background(), &models.ScrapeRequest{URL: testProfileURL})
	if err != nil {
		t.Fatalf("DoScrape: %v", err)
	}
	if !resp.GuestMode {
		t.Error("guest_mode not flagged")
	}
	if resp.TotalCertificates != 3 {
		t.Errorf("total = %d, want the 3 public records (debug: %s)",
			resp.TotalCertificates, resp.Debug)
	}

	trace := models.Trace(strings.Split(resp.Debug, " | "))
	if !trace.Contains("ShowAll:SkippedGuest") {
		t.Errorf("trace missing guest skip: %s", resp.Debug)
	}
	for _, c := range f.clicks {
		if strings.HasPrefix(c, "a, button|") {
			t.Errorf("expansion click attempted in guest mode: %v", f.clicks)
		}
	}
}

func TestDoScrape_NoSectionIsNotAnError(t *testing.T) {
	f := &fakeSession{
		cookies: true,
		pages: map[string]string{
			testProfileURL: `<html><body><main>
				<section><h2>Experience</h2><ul><li>Initech</li></ul></section>
			</main></body></html>`,
		},
	}
	s := newTestScraper(t, f)

	resp, err := s.DoScrape(context.Background(), &models.ScrapeRequest{URL: testProfileURL})
	if err != nil {
		t.Fatalf("missing section must not fail the scrape: %v", err)
	}
	if resp.Found {
		t.Error("found should be false")
	}
	if resp.CertificatesList != "not found" {
		t.Errorf("certificates_list = %v, want \"not found\"", resp.CertificatesList)
	}

	trace := models.Trace(strings.Split(resp.Debug, " | "))
	if !trace.Contains("NotFound") {
		t.Errorf("trace missing section miss: %s", resp.Debug)
	}
	if !trace.Contains("DetailPass") {
		t.Errorf("authenticated scrape should have tried the detail page: %s", resp.Debug)
	}
}

func TestDoScrape_NoSectionGuestHasNoFallback(t *testing.T) {
	// Guest session, no certificate section anywhere: the scrape ends with
	// an empty result and must not try the authenticated detail fallback.
	f := &fakeSession{
		cookies: false,
		pages: map[string]string{
			testProfileURL: `<html><body>
				<a class="nav__button-secondary" href="/login">Sign in</a>
				<main><section><h2>Experience</h2><ul><li>Initech</li></ul></section></main>
			</body></html>`,
		},
	}
	s := newTestScraper(t, f)

	resp, err := s.DoScrape(context.Background(), &models.ScrapeRequest{URL: testProfileURL})
	if err != nil {
		t.Fatalf("DoScrape: %v", err)
	}
	if resp.Found || resp.CertificatesList != "not found" {
		t.Errorf("resp = found=%v list=%v, want empty success", resp.Found, resp.CertificatesList)
	}

	trace := models.Trace(strings.Split(resp.Debug, " | "))
	if !trace.Contains("NotFound") {
		t.Errorf("trace missing section miss: %s", resp.Debug)
	}
	if trace.Contains("DetailPass") {
		t.Errorf("guest scrape must not force the detail page: %s", resp.Debug)
	}
}

func TestDoScrape_DetailURLSkipsSectionSearch(t *testing.T) {
	f := &fakeSession{
		cookies: true,
		pages: map[string]string{
			testDetailURL: detailPage(certItems("Direct", 4)),
		},
	}
	s := newTestScraper(t, f)

	resp, err := s.DoScrape(context.Background(), &models.ScrapeRequest{URL: testDetailURL})
	if err != nil {
		t.Fatalf("DoScrape: %v", err)
	}
	if resp.TotalCertificates != 4 {
		t.Errorf("total = %d, want 4 (debug: %s)", resp.TotalCertificates, resp.Debug)
	}

	trace := models.Trace(strings.Split(resp.Debug, " | "))
	if trace.Contains("FindSection") {
		t.Errorf("detail URL must bypass the section locator: %s", resp.Debug)
	}
	records := resp.CertificatesList.([]models.CertificateRecord)
	for _, rec := range records {
		if rec.Source != "DetailView" {
			t.Errorf("record %q source = %q, want DetailView", rec.Name, rec.Source)
		}
	}
}

func TestDoScrape_RedirectToDetailPageSkipsSectionSearch(t *testing.T) {
	// The profile URL gets rewritten to the detail page in flight; the
	// landed URL, not the requested one, decides the extraction path.
	f := &fakeSession{
		cookies:   true,
		redirects: map[string]string{testProfileURL: testDetailURL},
		pages: map[string]string{
			testDetailURL: detailPage(certItems("Routed", 4)),
		},
	}
	s := newTestScraper(t, f)

	resp, err := s.DoScrape(context.Background(), &models.ScrapeRequest{URL: testProfileURL})
	if err != nil {
		t.Fatalf("DoScrape: %v", err)
	}
	if resp.TotalCertificates != 4 {
		t.Errorf("total = %d, want 4 (debug: %s)", resp.TotalCertificates, resp.Debug)
	}

	trace := models.Trace(strings.Split(resp.Debug, " | "))
	if trace.Contains("FindSection") {
		t.Errorf("redirected detail page must bypass the section locator: %s", resp.Debug)
	}
	records := resp.CertificatesList.([]models.CertificateRecord)
	for _, rec := range records {
		if rec.Source != "DetailView" {
			t.Errorf("record %q source = %q, want DetailView", rec.Name, rec.Source)
		}
	}
}

func TestDoScrape_DetailOnlyGoesStraightToDetailPage(t *testing.T) {
	f := &fakeSession{
		cookies: true,
		pages: map[string]string{
			testProfileURL: mainPage(certItems("Widget", 1), ""),
			testDetailURL:  detailPage(certItems("Widget", 5)),
		},
	}
	s := newTestScraper(t, f)

	resp, err := s.DoScrape(context.Background(), &models.ScrapeRequest{
		URL:        testProfileURL,
		DetailOnly: true,
	})
	if err != nil {
		t.Fatalf("DoScrape: %v", err)
	}
	if resp.TotalCertificates != 5 {
		t.Errorf("total = %d, want 5 (debug: %s)", resp.TotalCertificates, resp.Debug)
	}

	visited := false
	for _, nav := range f.navs {
		if nav == testDetailURL {
			visited = true
		}
	}
	if !visited {
		t.Errorf("detail page never visited: %v", f.navs)
	}
}

func TestDoScrape_NavigationFailureIsHard(t *testing.T) {
	f := &fakeSession{navFail: true}
	s := newTestScraper(t, f)

	resp, err := s.DoScrape(context.Background(), &models.ScrapeRequest{URL: testProfileURL})
	if err == nil {
		t.Fatal("expected an error")
	}
	var serr *models.ScrapeError
	if !errors.As(err, &serr) || serr.Code != models.ErrCodeNavigation {
		t.Errorf("error = %v, want code %s", err, models.ErrCodeNavigation)
	}
	if resp == nil || resp.CertificatesList != "error" {
		t.Errorf("error response = %+v, want legacy \"error\" marker", resp)
	}
}

func TestDoScrape_BlockedPageIsHard(t *testing.T) {
	f := &fakeSession{
		pages: map[string]string{
			testProfileURL: `<html><body><main><section><h1>Something went wrong</h1></section></main></body></html>`,
		},
	}
	s := newTestScraper(t, f)

	_, err := s.DoScrape(context.Background(), &models.ScrapeRequest{URL: testProfileURL})
	var serr *models.ScrapeError
	if !errors.As(err, &serr) || serr.Code != models.ErrCodeBlocked {
		t.Errorf("error = %v, want code %s", err, models.ErrCodeBlocked)
	}
}

func TestDoScrape_DuplicatesMergeAcrossPasses(t *testing.T) {
	// Main view shows the same three names as the detail page; the merge
	// must keep one copy of each, preferring the detail render.
	f := &fakeSession{
		cookies: true,
		pages: map[string]string{
			testProfileURL: mainPage(certItems("Shared", 3), ""),
			testDetailURL:  detailPage(certItems("Shared", 3)),
		},
		clickTarget: testDetailURL,
	}
	s := newTestScraper(t, f)

	resp, err := s.DoScrape(context.Background(), &models.ScrapeRequest{URL: testProfileURL})
	if err != nil {
		t.Fatalf("DoScrape: %v", err)
	}
	if resp.TotalCertificates != 3 {
		t.Errorf("total = %d, want 3 deduplicated records (debug: %s)",
			resp.TotalCertificates, resp.Debug)
	}
	records := resp.CertificatesList.([]models.CertificateRecord)
	for _, rec := range records {
		if rec.Source != "DetailView" {
			t.Errorf("record %q kept source %q, want the later DetailView pass",
				rec.Name, rec.Source)
		}
	}
}
