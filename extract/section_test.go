package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, rawHTML string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

const profileURL = "https://www.linkedin.com/in/someone/"

func TestLocateSection_AnchorID(t *testing.T) {
	doc := docFrom(t, `
		<main>
			<section><h2>Experience</h2></section>
			<section>
				<div id="licenses_and_certifications"></div>
				<ul><li>Certified Widget Professional</li></ul>
			</section>
		</main>`)

	sec, tag := LocateSection(doc, profileURL)
	if sec == nil {
		t.Fatal("expected a section")
	}
	if tag != "AnchorID:Section" {
		t.Errorf("tag = %q", tag)
	}
	if !strings.Contains(sec.Text(), "Certified Widget Professional") {
		t.Error("wrong section selected")
	}
}

func TestLocateSection_LocalizedHeading(t *testing.T) {
	doc := docFrom(t, `
		<main>
			<section><h2>Education</h2><ul><li>Some University</li></ul></section>
			<section><h2>Licenses &amp; certifications</h2><ul><li>Cloud Practitioner</li></ul></section>
		</main>`)

	sec, tag := LocateSection(doc, profileURL)
	if sec == nil {
		t.Fatal("expected a section")
	}
	if !strings.HasPrefix(tag, "HeadingText:") {
		t.Errorf("tag = %q, want a HeadingText strategy", tag)
	}
	if !strings.Contains(sec.Text(), "Cloud Practitioner") {
		t.Error("wrong section selected")
	}
}

func TestLocateSection_RejectsUnrelatedSiblingSections(t *testing.T) {
	// "Certifications" appears inside the Experience section body; the
	// heading strategy must not grab that sibling.
	doc := docFrom(t, `
		<main>
			<section>
				<h2>Experience</h2>
				<span class="pvs-header__title">Certifications earned on the job</span>
			</section>
		</main>`)

	sec, tag := LocateSection(doc, profileURL)
	if sec != nil {
		t.Errorf("expected no section, got one via %q", tag)
	}
	if tag != "NotFound" {
		t.Errorf("tag = %q, want NotFound", tag)
	}
}

func TestLocateSection_AnchorKeywordTrace(t *testing.T) {
	doc := docFrom(t, `
		<main>
			<div class="artdeco-card">
				<div class="pvs-entity">
					<span>Credential ID XYZ-1</span>
				</div>
			</div>
		</main>`)

	sec, tag := LocateSection(doc, profileURL)
	if sec == nil {
		t.Fatal("expected a container via anchor trace")
	}
	if !strings.HasPrefix(tag, "AnchorTrace:") {
		t.Errorf("tag = %q, want an AnchorTrace strategy", tag)
	}
}

func TestLocateSection_DetailPageFallback(t *testing.T) {
	doc := docFrom(t, `<main><ul><li>Entry on a detail page</li></ul></main>`)

	sec, tag := LocateSection(doc, "https://www.linkedin.com/in/someone/details/certifications/")
	if sec == nil {
		t.Fatal("expected main as the section on a detail page")
	}
	if tag != "FullPageMain" {
		t.Errorf("tag = %q", tag)
	}
}

func TestLocateSection_NotFoundIsNormal(t *testing.T) {
	doc := docFrom(t, `<main><section><h2>Experience</h2></section></main>`)

	sec, tag := LocateSection(doc, profileURL)
	if sec != nil {
		t.Error("expected nil section")
	}
	if tag != "NotFound" {
		t.Errorf("tag = %q, want NotFound", tag)
	}
}

func TestIsDetailURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.linkedin.com/in/x/details/certifications/", true},
		{"https://www.linkedin.com/in/x/details/licenses/", true},
		{"https://www.linkedin.com/in/x/", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsDetailURL(tt.url); got != tt.want {
			t.Errorf("IsDetailURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestFindShowAllControl(t *testing.T) {
	t.Run("localized text anchor", func(t *testing.T) {
		doc := docFrom(t, `
			<section>
				<a href="/in/someone/details/certifications/">Show all 17 certifications</a>
			</section>`)
		ctrl := FindShowAllControl(doc.Find("section"))
		if ctrl == nil {
			t.Fatal("expected a control")
		}
		if ctrl.Href != "https://www.linkedin.com/in/someone/details/certifications/" {
			t.Errorf("href = %q", ctrl.Href)
		}
	})

	t.Run("absent", func(t *testing.T) {
		doc := docFrom(t, `<section><ul><li>Only entry</li></ul></section>`)
		if ctrl := FindShowAllControl(doc.Find("section")); ctrl != nil {
			t.Errorf("expected nil, got %+v", ctrl)
		}
	})
}

func TestCountItems(t *testing.T) {
	rawHTML := `
		<section>
			<div data-view-name="profile-component-entity">a</div>
			<div data-view-name="profile-component-entity">b</div>
			<div data-view-name="profile-component-entity">c</div>
			<ul class="pvs-list"><li>a</li><li>b</li></ul>
		</section>`

	// Max of the two layout counts: 3 lockup vs 2 legacy.
	if got := CountItems(rawHTML); got != 3 {
		t.Errorf("CountItems = %d, want 3", got)
	}
	if got := CountItems("<p>nothing</p>"); got != 0 {
		t.Errorf("CountItems on empty page = %d, want 0", got)
	}
}

func TestPageLooksEmpty(t *testing.T) {
	if PageLooksEmpty(`<section><h2>anything</h2></section>`) {
		t.Error("page with sections is not empty")
	}
	if PageLooksEmpty(`<main>This main region carries enough text to count as rendered.</main>`) {
		t.Error("page with substantial main text is not empty")
	}
	if !PageLooksEmpty(`<main> </main>`) {
		t.Error("blank main with no sections should look empty")
	}
}

func TestIsErrorPage(t *testing.T) {
	if !IsErrorPage(`<h1>Something went wrong</h1>`) {
		t.Error("error page not detected")
	}
	if IsErrorPage(`<h1>Licenses and certifications</h1>`) {
		t.Error("false positive on normal page")
	}
}
