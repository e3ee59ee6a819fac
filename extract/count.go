package extract

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Pre-compiled matchers for the stabilization convergence check. The count
// runs once per scroll round, so it skips goquery and queries the parsed
// tree directly.
var (
	lockupCountSel = cascadia.MustCompile(lockupItemSelector)
	legacyCountSel = cascadia.MustCompile(
		"li.pvs-list__paged-list-item, li.artdeco-list__item, ul.pvs-list > li",
	)
	sectionCountSel  = cascadia.MustCompile("section")
	mainCountSel     = cascadia.MustCompile("main")
	errorPageMarkers = []string{"something went wrong", "terjadi kesalahan"}
)

// CountItems reports the number of visible certificate-shaped items in a
// rendered HTML snapshot: the max of the new-layout and legacy-selector
// counts. The stabilization controller compares this across scroll rounds
// to detect convergence.
func CountItems(rawHTML string) int {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return 0
	}
	lockup := len(cascadia.QueryAll(root, lockupCountSel))
	legacy := len(cascadia.QueryAll(root, legacyCountSel))
	if lockup > legacy {
		return lockup
	}
	return legacy
}

// PageLooksEmpty detects a blocked or unrendered DOM: no structural
// containers and a near-empty main region. Used to decide whether the
// primary browser connection should fail over to CDP.
func PageLooksEmpty(rawHTML string) bool {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return true
	}
	if len(cascadia.QueryAll(root, sectionCountSel)) > 0 {
		return false
	}
	var mainText string
	if main := cascadia.Query(root, mainCountSel); main != nil {
		mainText = nodeText(main)
	}
	return len(strings.TrimSpace(mainText)) < 20
}

// IsErrorPage detects the site's explicit error/block page, which
// short-circuits the whole scrape as a hard failure.
func IsErrorPage(rawHTML string) bool {
	lower := strings.ToLower(rawHTML)
	for _, marker := range errorPageMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// nodeText flattens the text content of a parsed node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
