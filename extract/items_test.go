package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func rootFrom(t *testing.T, rawHTML string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc.Selection
}

func TestLocateItems_PrefersLockupLayout(t *testing.T) {
	root := rootFrom(t, `
		<section>
			<div data-view-name="profile-component-entity">First certificate entry text</div>
			<div data-view-name="profile-component-entity">Second certificate entry text</div>
			<ul><li class="artdeco-list__item">Legacy entry that must lose</li></ul>
		</section>`)

	items, tag := LocateItems(root)
	if tag != "Lockup" {
		t.Errorf("tag = %q, want Lockup", tag)
	}
	if items.Length() != 2 {
		t.Errorf("items = %d, want 2", items.Length())
	}
}

func TestLocateItems_FallsThroughToLegacySelectors(t *testing.T) {
	root := rootFrom(t, `
		<section>
			<ul class="pvs-list">
				<li>Certified Widget Professional entry</li>
				<li>Another certificate entry here</li>
				<li>Third certificate entry here</li>
			</ul>
		</section>`)

	items, tag := LocateItems(root)
	if !strings.HasPrefix(tag, "Legacy:") {
		t.Errorf("tag = %q, want a Legacy selector", tag)
	}
	if items.Length() != 3 {
		t.Errorf("items = %d, want 3", items.Length())
	}
}

func TestLocateItems_SkipsEmptyContainers(t *testing.T) {
	// The legacy list exists but is empty; the cascade must not declare
	// success on it.
	root := rootFrom(t, `
		<section>
			<ul class="pvs-list"><li> </li></ul>
			<div class="entity-card">A generic certificate-looking entry</div>
		</section>`)

	_, tag := LocateItems(root)
	if tag != "GenericFallback" {
		t.Errorf("tag = %q, want GenericFallback", tag)
	}
}

func TestLocateItems_NothingFound(t *testing.T) {
	root := rootFrom(t, `<section><p>no list markup at all</p></section>`)

	items, tag := LocateItems(root)
	if tag != "NoItems" {
		t.Errorf("tag = %q, want NoItems", tag)
	}
	if items.Length() != 0 {
		t.Errorf("items = %d, want 0", items.Length())
	}
}

func TestParseItems_SkipsMalformedItems(t *testing.T) {
	root := rootFrom(t, `
		<section>
			<ul class="pvs-list">
				<li><span class="t-bold">Valid Certificate Name</span></li>
				<li> </li>
				<li><span class="t-bold">Jobs</span></li>
			</ul>
		</section>`)

	items, _ := LocateItems(root)
	records := ParseItems(items, "MainView")
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 (malformed items dropped, not fatal)", len(records))
	}
	if records[0].Name != "Valid Certificate Name" {
		t.Errorf("name = %q", records[0].Name)
	}
}
