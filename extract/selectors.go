package extract

import "regexp"

// This file is the single home for every selector family, keyword denylist
// and text pattern the extraction engine relies on. The target site ships
// multiple markup generations and localizations, so these tables change far
// more often than the algorithms that consume them; keeping them as plain
// data makes recalibration a one-file edit.

// siteOrigin prefixes root-relative hrefs when normalizing verify links.
const siteOrigin = "https://www.linkedin.com"

// ── Item locator cascade ────────────────────────────────────────────

// lockupItemSelector matches the newer flat "lockup" layout, keyed by a
// stable data attribute. Most reliable, tried first.
const lockupItemSelector = "[data-view-name='profile-component-entity']"

// legacyItemSelectors are the older nested-list generations, ordered from
// most to least specific. Each is validated by a minimum text length on the
// first match before the cascade declares success.
var legacyItemSelectors = []string{
	"li.pvs-list__paged-list-item",
	"div.pvs-list__paged-list-item",
	"li.artdeco-list__item",
	"div.artdeco-list__item",
	"ul.pvs-list > li",
	"div.pvs-list > div",
	"div.pvs-entity, div.pvs-entity--padded",
	"li.profile-section-card",
}

// genericItemSelector is the last-resort fallback to survive selector
// churn. High false-positive risk, mitigated by the field parser's
// rejection rules.
const genericItemSelector = "li, div[class*='entity'], div[class*='card']"

// minItemTextLen guards against declaring success on empty containers.
const minItemTextLen = 10

// ── Section locator ─────────────────────────────────────────────────

const sectionAnchorID = "#licenses_and_certifications"

const headingSelector = "h2, h3, span.pvs-header__title, span[class*='title'], div.pvs-header__title-container"

// sectionHeadingPatterns match the section title across supported languages.
var sectionHeadingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Licenses?\s*(&|and)?\s*certifications?`),
	regexp.MustCompile(`(?i)Certifications?`),
	regexp.MustCompile(`(?i)Lisensi(\s*(&|dan)?\s*Sertifikat)?`),
	regexp.MustCompile(`(?i)Sertifikat`),
	regexp.MustCompile(`(?i)Professional\s*Certifications?`),
}

// unrelatedSectionKeywords reject heading candidates whose container is
// actually a sibling section (experience, education, ...).
var unrelatedSectionKeywords = []string{"experience", "education", "pengalaman", "pendidikan"}

// anchorKeywordPatterns are small signal phrases unique to certificate
// entries, used by the keyword-anchor trace strategy.
var anchorKeywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Credential\s*ID`),
	regexp.MustCompile(`(?i)ID\s*Kredensial`),
	regexp.MustCompile(`(?i)Issued\s*by`),
	regexp.MustCompile(`(?i)Diterbitkan\s*oleh`),
	regexp.MustCompile(`(?i)Issue\s*Date`),
	regexp.MustCompile(`(?i)Expiration\s*Date`),
}

// cardAncestorSelector finds the nearest card-like container when an anchor
// keyword has no <section> ancestor.
const cardAncestorSelector = "div[class*='artdeco-card'], div[class*='pvs-list'], div[class*='pvs-entity']"

// detailURLMarkers identify dedicated certificate detail pages.
var detailURLMarkers = []string{"details/certifications", "details/licenses"}

// ── Field parser: name ──────────────────────────────────────────────

// nameSelectors are tried in order; first non-empty match wins.
var nameSelectors = []string{
	"h3",
	"span.mr1.t-bold",
	"span.t-bold",
	"div.display-flex > span:first-child",
}

const ariaHiddenSpanSelector = "span[aria-hidden='true']"

// nameStopPattern extracts a name from flattened item text, stopping at
// known separator phrases.
var nameStopPattern = regexp.MustCompile(`(?i)^(.*?)(?:Issued by|Diterbitkan oleh|Oleh|Issuer|Organization|–|—|\s{2,})`)

const (
	minNameLen = 5
	maxNameLen = 500
)

// personMentionPattern matches "X is Y at Z" endorsement snippets that must
// never be indexed as certificate names.
var personMentionPattern = regexp.MustCompile(`(?i)^.{2,120}\s+is\s+.{2,120}\s+at\s+.{2,}$`)

// uiChromeKeywords is the primary defense against indexing navigation
// chrome as certificates. Matched case-insensitively against the whole
// candidate name.
var uiChromeKeywords = []string{
	"home",
	"jobs",
	"messaging",
	"notifications",
	"my network",
	"log in",
	"sign in",
	"sign up",
	"join now",
	"skip to",
	"advertising",
	"accessibility",
	"user agreement",
	"privacy policy",
	"cookie policy",
}

// ── Field parser: issuer / dates / credential id ────────────────────

const issuerCaptionSelector = "span.t-14.t-normal, span.t-black--light, div.pvs-entity__caption-wrapper"

const companyLinkSelector = "a[href*='/company/']"

var issuerPrefixPattern = regexp.MustCompile(`(?i)^(?:Issued by|Diterbitkan oleh|Oleh|Issuer|Organization)[:\s]*`)

// bareYearPattern strips 4-digit years that leak from date captions into
// issuer text.
var bareYearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

const dateSpanSelector = "span.t-14.t-normal.t-black--light, span.visually-hidden, div.pvs-entity__caption-wrapper"

var (
	issuedDatePattern = regexp.MustCompile(`(?i)(?:Issued|Diterbitkan)\s*(?:on|pada)?\s*:?\s*([A-Za-z]+\s*\d{4})`)
	expiryDatePattern = regexp.MustCompile(`(?i)(?:Expires?|Expired|Kadaluarsa|Berakhir)\s*(?:on|pada)?\s*:?\s*([A-Za-z]+\s*\d{4})`)
	anyDatePattern    = regexp.MustCompile(`[A-Za-z]+\s*\d{4}`)
)

// noExpirationPattern recognizes the explicit "does not expire" phrase
// family, recorded as the models.NoExpiration sentinel.
var noExpirationPattern = regexp.MustCompile(`(?i)no\s+expiration(?:\s+date)?|does\s+not\s+expire|tidak\s+(?:ada\s+)?(?:masa\s+berlaku|kedaluwarsa)`)

var credentialIDPattern = regexp.MustCompile(`(?i)(?:Credential\s*ID|ID\s*Kredensial|License\s*Number)[:\s]+([\w\-.]+)`)

// ── Field parser: verify link ───────────────────────────────────────

// verifyIntentPattern marks anchors that plausibly point at a credential
// verification page, by href or by visible text.
var verifyIntentPattern = regexp.MustCompile(`(?i)credential|show\s+credential|verify|lihat\s+kredensial`)

// linkDenyKeywords reject false positives from generic anchor scanning:
// help/preferences/legal chrome, media viewers, and person-profile links
// (endorsement artifacts).
var linkDenyKeywords = []string{
	"/help/",
	"/legal/",
	"/psettings/",
	"/preferences",
	"/overlay/",
	"/media/",
	"linkedin.com/in/",
}

// ── Show-all / load-more controls ───────────────────────────────────

// showAllTextPattern matches list-expansion controls across languages.
// Exported as a string (not a compiled regexp) because the live-page click
// path feeds it to the browser's element-by-regex lookup.
const ShowAllTextPattern = `Show all|Tampilkan semua|See all|Lihat semua`

var showAllPattern = regexp.MustCompile(`(?i)` + ShowAllTextPattern)

const showAllNavSelector = "[id*='navigation-index']"

const showAllFooterSelector = ".pvs-footer__text, .artdeco-card__action"

// LoadMoreTextPattern matches incremental "load more" buttons clicked
// during stabilization rounds.
const LoadMoreTextPattern = `Show more|Load more|Muat lainnya|Tampilkan lainnya`
