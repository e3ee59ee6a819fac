package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LocateSection finds the page region containing the certificate list.
//
// Four independent, side-effect-free strategies are tried in order; the
// first to return a non-empty result wins and its tag is recorded in the
// trace. A nil result with the "NotFound" tag is a normal, expected outcome
// handled by the orchestrator's detail-page fallback — never an error.
func LocateSection(doc *goquery.Document, currentURL string) (*goquery.Selection, string) {
	// 1. Anchor id: the stable section id, walked up to the nearest
	// section-like container.
	if anchor := doc.Find(sectionAnchorID); anchor.Length() > 0 {
		if sec := anchor.First().Closest("section"); sec.Length() > 0 {
			return sec, "AnchorID:Section"
		}
		return anchor.First(), "AnchorID"
	}

	// 2. Localized heading match.
	if sec, tag := sectionByHeading(doc); sec != nil {
		return sec, tag
	}

	// 3. Keyword-anchor trace: most resilient, least precise.
	if sec, tag := sectionByAnchorTrace(doc); sec != nil {
		return sec, tag
	}

	// 4. Contextual fallback: a dedicated detail page has no "find the
	// section" ambiguity — its main content region is the section.
	if IsDetailURL(currentURL) {
		if main := doc.Find("main").First(); main.Length() > 0 {
			return main, "FullPageMain"
		}
	}

	return nil, "NotFound"
}

// sectionByHeading matches heading/title elements against the localized
// section-title patterns and climbs to the ancestor section. Candidates
// whose container opens with an unrelated section's keywords (experience,
// education) are rejected to avoid grabbing the wrong sibling.
func sectionByHeading(doc *goquery.Document) (*goquery.Selection, string) {
	for _, pattern := range sectionHeadingPatterns {
		var found *goquery.Selection
		var tag string

		doc.Find(headingSelector).EachWithBreak(func(_ int, h *goquery.Selection) bool {
			if !pattern.MatchString(normalizeSpace(h.Text())) {
				return true
			}
			if sec := h.Closest("section"); sec.Length() > 0 {
				if !dominatedByUnrelated(sec) {
					found = sec
					tag = fmt.Sprintf("HeadingText:%s", patternTag(pattern))
					return false
				}
				return true
			}
			// Div-soup layouts have no <section>; fall back to the
			// container wrapping the pvs-header block.
			if header := h.Closest("div[class*='pvs-header']"); header.Length() > 0 {
				if parent := header.Parent(); parent.Length() > 0 {
					found = parent
					tag = "HeadingDiv"
					return false
				}
			}
			return true
		})

		if found != nil {
			return found, tag
		}
	}
	return nil, ""
}

// sectionByAnchorTrace searches broadly for small signal phrases unique to
// certificate entries, then walks upward from the deepest matching element
// to the nearest section- or card-like ancestor.
func sectionByAnchorTrace(doc *goquery.Document) (*goquery.Selection, string) {
	for _, pattern := range anchorKeywordPatterns {
		anchor := deepestMatch(doc, pattern)
		if anchor == nil {
			continue
		}
		if sec := anchor.Closest("section"); sec.Length() > 0 {
			return sec, "AnchorTrace:Section:" + patternTag(pattern)
		}
		if card := anchor.Closest(cardAncestorSelector); card.Length() > 0 {
			return card, "AnchorTrace:Card:" + patternTag(pattern)
		}
	}
	return nil, ""
}

// deepestMatch returns the deepest small element whose text matches the
// pattern. Walking up from the deepest match (rather than the outermost,
// which can be a page-level wrapper) keeps the trace anchored to the actual
// entry markup.
func deepestMatch(doc *goquery.Document, pattern *regexp.Regexp) *goquery.Selection {
	var deepest *goquery.Selection
	doc.Find("div, span, a, li").Each(func(_ int, s *goquery.Selection) {
		if !pattern.MatchString(s.Text()) {
			return
		}
		// A match with a matching child is a wrapper, not the anchor.
		if s.Children().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return pattern.MatchString(c.Text())
		}).Length() > 0 {
			return
		}
		deepest = s
	})
	if deepest == nil {
		return nil
	}
	return deepest.First()
}

// dominatedByUnrelated reports whether the container's opening text belongs
// to a neighboring section (experience, education, ...).
func dominatedByUnrelated(sec *goquery.Selection) bool {
	head := strings.ToLower(normalizeSpace(sec.Text()))
	if len(head) > 80 {
		head = head[:80]
	}
	for _, kw := range unrelatedSectionKeywords {
		if strings.Contains(head, kw) {
			return true
		}
	}
	return false
}

// IsDetailURL reports whether the URL is a dedicated certificate detail
// page.
func IsDetailURL(url string) bool {
	for _, marker := range detailURLMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}

// patternTag shortens a regexp into a stable trace label.
func patternTag(pattern *regexp.Regexp) string {
	s := pattern.String()
	s = strings.TrimPrefix(s, "(?i)")
	if len(s) > 20 {
		s = s[:20]
	}
	return s
}
