package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/credscan/models"
)

// ParseItem extracts a typed certificate record from one item node.
//
// Every field follows the same ordered-heuristic shape: structural selectors
// first, text patterns second, first success wins. The function is pure and
// read-only over the DOM snapshot. A nil return means the node is not a
// certificate (no valid name, or noise) — that is a normal outcome, not an
// error, and the caller simply moves to the next item.
func ParseItem(item *goquery.Selection, source string) *models.CertificateRecord {
	fullText := normalizeSpace(item.Text())

	name := extractName(item, fullText)
	if name == "" {
		return nil
	}

	rec := &models.CertificateRecord{
		Name:   name,
		Source: source,
	}

	issuer, endorsementMarker := extractIssuer(item, name)
	rec.Issuer = issuer
	rec.IssueDate, rec.ExpiryDate = extractDates(item, fullText)
	rec.CredentialID = extractCredentialID(item, fullText)
	rec.VerifyLink = extractVerifyLink(item)

	// An "issuer" that is only an endorsement-count marker, with nothing
	// else behind it, is rendering noise rather than a certificate.
	if endorsementMarker &&
		rec.IssueDate == "" && rec.ExpiryDate == "" &&
		rec.CredentialID == "" && rec.VerifyLink == "" {
		return nil
	}

	return rec
}

// extractName runs the name cascade: structural selectors, aria-hidden
// span, separator-stopping regex over flattened text, first raw line.
// Candidates containing "logo" (image alt leakage) lose to any alternate
// valid candidate.
func extractName(item *goquery.Selection, fullText string) string {
	var candidates []string

	for _, sel := range nameSelectors {
		if t := normalizeSpace(item.Find(sel).First().Text()); t != "" {
			candidates = append(candidates, t)
		}
	}
	if t := normalizeSpace(item.Find(ariaHiddenSpanSelector).First().Text()); t != "" {
		candidates = append(candidates, t)
	}
	if m := nameStopPattern.FindStringSubmatch(fullText); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			candidates = append(candidates, t)
		}
	}
	if line := firstLine(item.Text()); line != "" {
		candidates = append(candidates, line)
	}

	var valid []string
	for _, c := range candidates {
		if validName(c) {
			valid = append(valid, c)
		}
	}
	for _, c := range valid {
		if !strings.Contains(strings.ToLower(c), "logo") {
			return c
		}
	}
	if len(valid) > 0 {
		return valid[0]
	}
	return ""
}

// validName applies the rejection rules that keep UI chrome and
// endorsement snippets out of the record set.
func validName(name string) bool {
	if len(name) < minNameLen || len(name) > maxNameLen {
		return false
	}
	if personMentionPattern.MatchString(name) {
		return false
	}
	lower := strings.ToLower(name)
	for _, kw := range uiChromeKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

// extractIssuer prefers a second aria-hidden span distinct from the name,
// then a company-profile link, then a caption span with the localized
// "Issued by" prefix stripped. The second return is true when the raw
// candidate was an endorsement-count marker (leading "·") rather than a
// real issuer.
func extractIssuer(item *goquery.Selection, name string) (string, bool) {
	var issuer string

	item.Find(ariaHiddenSpanSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := normalizeSpace(s.Text())
		if t != "" && t != name {
			issuer = t
			return false
		}
		return true
	})

	if issuer == "" {
		issuer = normalizeSpace(item.Find(companyLinkSelector).First().Text())
	}
	if issuer == "" {
		issuer = normalizeSpace(item.Find(issuerCaptionSelector).First().Text())
	}

	issuer = issuerPrefixPattern.ReplaceAllString(issuer, "")

	if strings.HasPrefix(issuer, "·") {
		return "", true
	}

	// Date and credential captions share markup with the issuer line in
	// some generations; anything that still reads like one is leakage.
	if issuedDatePattern.MatchString(issuer) || expiryDatePattern.MatchString(issuer) {
		return "", false
	}
	issuer = credentialIDPattern.ReplaceAllString(issuer, "")
	issuer = bareYearPattern.ReplaceAllString(issuer, "")
	issuer = strings.Trim(normalizeSpace(issuer), " ·,-")

	return issuer, false
}

// extractDates scans caption-class spans (and the flattened item text as a
// last resort) for locale-aware issue/expiry markers.
func extractDates(item *goquery.Selection, fullText string) (issued, expiry string) {
	texts := spanTexts(item, dateSpanSelector)
	texts = append(texts, fullText)

	for _, t := range texts {
		if expiry == "" {
			if noExpirationPattern.MatchString(t) {
				expiry = models.NoExpiration
			} else if m := expiryDatePattern.FindStringSubmatch(t); m != nil {
				expiry = strings.TrimSpace(m[1])
			}
		}
		if issued == "" {
			if m := issuedDatePattern.FindStringSubmatch(t); m != nil {
				issued = strings.TrimSpace(m[1])
			}
		}
	}

	// Fallback: first bare month-year in a caption span, skipping spans
	// that are clearly expiry-only so the issue date never steals them.
	if issued == "" {
		for _, t := range texts[:len(texts)-1] {
			if expiryDatePattern.MatchString(t) && !issuedDatePattern.MatchString(t) {
				continue
			}
			if m := anyDatePattern.FindString(t); m != "" {
				issued = strings.TrimSpace(m)
				break
			}
		}
	}
	return issued, expiry
}

// extractCredentialID scans hidden/caption spans for the localized
// credential-id label.
func extractCredentialID(item *goquery.Selection, fullText string) string {
	for _, t := range spanTexts(item, dateSpanSelector) {
		if m := credentialIDPattern.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	}
	if m := credentialIDPattern.FindStringSubmatch(fullText); m != nil {
		return m[1]
	}
	return ""
}

// extractVerifyLink returns the first anchor with credential/verify intent,
// else the first external anchor, normalized to an absolute URL. Chrome,
// media-viewer and person-profile links are rejected as false positives.
func extractVerifyLink(item *goquery.Selection) string {
	var intent, external string

	item.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return true
		}
		abs := absoluteLink(href)
		if abs == "" || deniedLink(abs) {
			return true
		}
		if verifyIntentPattern.MatchString(href) || verifyIntentPattern.MatchString(normalizeSpace(a.Text())) {
			intent = abs
			return false
		}
		if external == "" && strings.HasPrefix(href, "http") {
			external = abs
		}
		return true
	})

	if intent != "" {
		return intent
	}
	return external
}

// absoluteLink normalizes a root-relative href against the site origin.
func absoluteLink(href string) string {
	if strings.HasPrefix(href, "/") {
		return siteOrigin + href
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}

func deniedLink(href string) bool {
	lower := strings.ToLower(href)
	for _, kw := range linkDenyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// spanTexts collects the normalized text of every node matching sel.
func spanTexts(item *goquery.Selection, sel string) []string {
	var out []string
	item.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if t := normalizeSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// normalizeSpace collapses all whitespace runs to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstLine returns the first non-empty raw text line, trimmed.
func firstLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return normalizeSpace(t)
		}
	}
	return ""
}
