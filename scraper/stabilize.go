package scraper

import (
	"context"

	"github.com/use-agent/credscan/extract"
	"github.com/use-agent/credscan/models"
)

// stabilize scrolls the page until its item count stops changing, then
// returns the settled HTML snapshot and the final count.
//
// The target renders list items lazily on scroll and behind incremental
// "show more" buttons, so a snapshot taken right after navigation is
// usually truncated. Each round scrolls to the bottom, clicks a load-more
// control if one is visible, waits for the render to settle, and re-counts
// the items in a fresh snapshot. Convergence is QuietRounds consecutive
// rounds with an unchanged count; StabilizeRounds is the hard cap, so a
// page that keeps loading forever still terminates.
//
// The page is scrolled back to the top afterwards because some layouts
// virtualize off-screen items out of the DOM.
func (s *Scraper) stabilize(ctx context.Context, sess Session, trace *models.Trace) (string, int) {
	var (
		rawHTML   string
		lastCount = -1
		stable    = 0
		rounds    = 0
	)

	for rounds = 0; rounds < s.cfg.StabilizeRounds; rounds++ {
		if ctx.Err() != nil {
			break
		}

		_ = sess.ScrollBy(2)
		_ = sess.ScrollToBottom()
		if clicked, err := sess.ClickMatching("button", extract.LoadMoreTextPattern); err == nil && clicked {
			trace.Add("Stabilize:LoadMore")
		}
		s.sleep(s.cfg.SettleDelay)

		snapshot, err := sess.HTML()
		if err != nil {
			// Keep the last good snapshot rather than failing the scrape.
			break
		}
		rawHTML = snapshot

		count := extract.CountItems(snapshot)
		if count == lastCount {
			stable++
			if stable >= s.cfg.QuietRounds {
				rounds++
				break
			}
		} else {
			stable = 0
			lastCount = count
		}
	}

	_ = sess.ScrollToTop()

	if rawHTML == "" {
		rawHTML, _ = sess.HTML()
	}
	count := extract.CountItems(rawHTML)
	trace.Addf("Stabilized:items=%d:rounds=%d", count, rounds)
	return rawHTML, count
}
