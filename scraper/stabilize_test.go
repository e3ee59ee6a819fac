package scraper

import (
	"context"
	"strings"
	"testing"

	"github.com/use-agent/credscan/models"
)

func TestStabilize_ConvergesWhenCountSettles(t *testing.T) {
	// Item count grows 1 -> 2 -> 3, then holds. Two quiet rounds after the
	// last growth should end the loop well under the hard cap.
	f := &fakeSession{
		htmlSeq: []string{
			detailPage(certItems("Grow", 1)),
			detailPage(certItems("Grow", 2)),
			detailPage(certItems("Grow", 3)),
			detailPage(certItems("Grow", 3)),
			detailPage(certItems("Grow", 3)),
		},
	}
	s := newTestScraper(t, f)

	var trace models.Trace
	rawHTML, count := s.stabilize(context.Background(), f, &trace)
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if !strings.Contains(rawHTML, "Grow Certificate Number 3") {
		t.Error("returned snapshot is not the settled one")
	}
	if !trace.Contains("Stabilized:items=3") {
		t.Errorf("trace = %s", trace.Join())
	}
}

func TestStabilize_HardCapOnEndlessGrowth(t *testing.T) {
	// A page that grows on every round must still terminate at the cap.
	var seq []string
	for i := 1; i <= 20; i++ {
		seq = append(seq, detailPage(certItems("Endless", i)))
	}
	f := &fakeSession{htmlSeq: seq}
	s := newTestScraper(t, f)

	var trace models.Trace
	_, count := s.stabilize(context.Background(), f, &trace)
	if count != s.cfg.StabilizeRounds {
		t.Errorf("count = %d, want growth cut off at %d rounds", count, s.cfg.StabilizeRounds)
	}
}

func TestStabilize_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeSession{
		pages:   map[string]string{"": detailPage(certItems("Idle", 2))},
		htmlSeq: nil,
	}
	s := newTestScraper(t, f)

	var trace models.Trace
	_, count := s.stabilize(ctx, f, &trace)
	// No rounds ran; the final snapshot fallback still counts what's there.
	if count != 2 {
		t.Errorf("count = %d, want 2 from the fallback snapshot", count)
	}
	if !trace.Contains("rounds=0") {
		t.Errorf("trace = %s", trace.Join())
	}
}
