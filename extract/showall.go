package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ShowAllControl describes a detected list-expansion control. Href carries
// the absolute target URL when the control is an anchor, so the caller can
// fall back to direct navigation when clicking fails.
type ShowAllControl struct {
	Href string
	Tag  string
}

// FindShowAllControl detects the "Show all N certifications" control inside
// a section snapshot. Detection is heuristic across three generations of
// markup: localized anchor/button text, navigation-index ids, and the card
// footer action area. Returns nil when the section shows no expansion
// control — meaning the visible list is the full list.
func FindShowAllControl(section *goquery.Selection) *ShowAllControl {
	var ctrl *ShowAllControl

	section.Find("a, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !showAllPattern.MatchString(normalizeSpace(s.Text())) {
			return true
		}
		ctrl = &ShowAllControl{
			Href: absoluteLink(strings.TrimSpace(s.AttrOr("href", ""))),
			Tag:  "ShowAll:Text",
		}
		return false
	})
	if ctrl != nil {
		return ctrl
	}

	if nav := section.Find(showAllNavSelector).First(); nav.Length() > 0 {
		return &ShowAllControl{
			Href: absoluteLink(strings.TrimSpace(nav.AttrOr("href", ""))),
			Tag:  "ShowAll:NavID",
		}
	}

	if footer := section.Find(showAllFooterSelector).First(); footer.Length() > 0 {
		href := footer.Closest("a").AttrOr("href", "")
		if href == "" {
			href = footer.Find("a").First().AttrOr("href", "")
		}
		return &ShowAllControl{
			Href: absoluteLink(strings.TrimSpace(href)),
			Tag:  "ShowAll:Footer",
		}
	}

	return nil
}
