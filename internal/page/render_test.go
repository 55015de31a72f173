package page

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"
	"sync"
	"testing"
	"time"

	"careersite/internal/jobfeed"
)

type recordingObserver struct {
	mu       sync.Mutex
	renders  []int
	degrades []string
}

func (o *recordingObserver) ObserveRender(sections int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.renders = append(o.renders, sections)
}

func (o *recordingObserver) ObserveDegrade(kind Kind, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.degrades = append(o.degrades, string(kind)+":"+reason)
}

func testCompany() Company {
	return Company{
		ID:          7,
		Name:        "Acme",
		Slug:        "acme",
		LogoURL:     "/uploads/logo.png",
		Theme:       DefaultTheme(),
		Content:     DefaultContent(),
		SocialLinks: SocialLinks{LinkedIn: "https://linkedin.com/company/acme"},
		Sections: Sections{
			{ID: "hero-1", Kind: KindHero, Title: "Build with Acme", Enabled: true, Order: 0},
			{ID: "about-1", Kind: KindText, Title: "About", Content: "We make things.", Enabled: true, Order: 1},
			{ID: "jobs-1", Kind: KindJobs, Title: "Open Positions", Enabled: true, Order: 2},
		},
	}
}

func testJobs(n int) []jobfeed.Job {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	jobs := make([]jobfeed.Job, n)
	for i := range jobs {
		jobs[i] = jobfeed.Job{
			ID:          uint(i + 1),
			CompanyID:   7,
			Title:       "Engineer " + string(rune('A'+i)),
			Location:    "Berlin",
			JobType:     jobfeed.FullTime,
			Description: "Ship it.",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
	}
	return jobs
}

func render(t *testing.T, in Input) (string, *recordingObserver) {
	t.Helper()
	obs := &recordingObserver{}
	if in.Year == 0 {
		in.Year = 2024
	}
	doc := NewRenderer(obs).Render(in)
	return string(doc.Body), obs
}

func TestRenderShowsEnabledSectionsInOrder(t *testing.T) {
	c := testCompany()
	c.Sections[0].Order, c.Sections[1].Order = 1, 0
	c.Sections = append(c.Sections, Section{ID: "off", Kind: KindCTA, Title: "Hidden CTA", Enabled: false, Order: 3})

	body, obs := render(t, Input{Company: c})
	about := strings.Index(body, `id="section-about-1"`)
	hero := strings.Index(body, `id="section-hero-1"`)
	if about < 0 || hero < 0 || about > hero {
		t.Fatalf("sections out of order: about=%d hero=%d", about, hero)
	}
	if strings.Contains(body, "Hidden CTA") {
		t.Fatalf("disabled section rendered")
	}
	if strings.Contains(body, `id="section-legacy-hero"`) {
		t.Fatalf("legacy hero rendered alongside a hero section")
	}
	if len(obs.renders) != 1 || obs.renders[0] != 3 {
		t.Fatalf("observed renders = %v", obs.renders)
	}
}

func TestRenderAllDisabledShowsPlaceholderAndFooter(t *testing.T) {
	c := testCompany()
	for i := range c.Sections {
		c.Sections[i].Enabled = false
	}
	body, obs := render(t, Input{Company: c})
	if !strings.Contains(body, "No visible sections. Add one from the sidebar.") {
		t.Fatalf("placeholder missing:\n%s", body)
	}
	if !strings.Contains(body, "&copy; 2024 Acme. All rights reserved.") {
		t.Fatalf("footer missing:\n%s", body)
	}
	if strings.Contains(body, `class="hero-section"`) {
		t.Fatalf("hero rendered on an empty page")
	}
	if len(obs.degrades) != 1 || obs.degrades[0] != ":"+DegradeEmptyPage {
		t.Fatalf("degrades = %v", obs.degrades)
	}
}

func TestRenderLegacyHeroWithoutHeroSection(t *testing.T) {
	c := testCompany()
	c.Sections = c.Sections[1:]
	body, _ := render(t, Input{Company: c})
	if !strings.Contains(body, `id="section-legacy-hero"`) {
		t.Fatalf("legacy hero missing")
	}
	if !strings.Contains(body, "Join Our Team") {
		t.Fatalf("legacy hero title missing")
	}

	// Only enabled hero sections suppress the legacy hero.
	c = testCompany()
	c.Sections[0].Enabled = false
	body, _ = render(t, Input{Company: c})
	if !strings.Contains(body, `id="section-legacy-hero"`) {
		t.Fatalf("legacy hero missing when the only hero section is disabled:\n%s", body)
	}
	if strings.Contains(body, `id="section-`+c.Sections[0].ID+`"`) {
		t.Fatalf("disabled hero section rendered")
	}
}

func TestRenderHeroFallsBackToLegacyContent(t *testing.T) {
	c := testCompany()
	c.Sections[0].Title = ""
	c.Content = Content{HeroTitle: "Work at Acme", HeroSubtitle: "Really"}
	body, _ := render(t, Input{Company: c, Host: Host{AssetBaseURL: "https://cdn.example.com"}})
	if !strings.Contains(body, "Work at Acme") {
		t.Fatalf("hero title did not fall back to content")
	}
	if !strings.Contains(body, `src="https://cdn.example.com/uploads/logo.png"`) {
		t.Fatalf("logo not resolved against asset base:\n%s", body)
	}
}

func TestRenderVideoSection(t *testing.T) {
	c := testCompany()
	c.Sections = append(c.Sections,
		Section{ID: "video-1", Kind: KindVideo, Title: "Story", Enabled: true, Order: 3,
			Config: Config{KeyVideoURL: json.RawMessage(`"https://youtu.be/dQw4w9WgXcQ"`)}},
		Section{ID: "video-2", Kind: KindVideo, Title: "Broken", Enabled: true, Order: 4,
			Config: Config{KeyVideoURL: json.RawMessage(`"https://example.com/clip"`)}},
	)
	body, obs := render(t, Input{Company: c})
	if !strings.Contains(body, `src="https://www.youtube.com/embed/dQw4w9WgXcQ"`) {
		t.Fatalf("youtube embed missing:\n%s", body)
	}
	if !strings.Contains(body, "Add a video URL") {
		t.Fatalf("video placeholder missing")
	}
	found := false
	for _, d := range obs.degrades {
		if d == string(KindVideo)+":"+DegradeUnresolvedVideo {
			found = true
		}
	}
	if !found {
		t.Fatalf("unresolved video not observed: %v", obs.degrades)
	}
}

func TestRenderGallery(t *testing.T) {
	c := testCompany()
	c.Sections = append(c.Sections,
		Section{ID: "gallery-1", Kind: KindGallery, Title: "Team", Enabled: true, Order: 3,
			Config: Config{KeyImageURLs: json.RawMessage(`["/uploads/a.jpg"]`)}},
		Section{ID: "gallery-2", Kind: KindGallery, Title: "Empty", Enabled: true, Order: 4},
	)
	body, _ := render(t, Input{Company: c, Host: Host{AssetBaseURL: "https://cdn.example.com/"}})
	if !strings.Contains(body, `src="https://cdn.example.com/uploads/a.jpg"`) {
		t.Fatalf("legacy imageUrls not rendered:\n%s", body)
	}
	if strings.Count(body, "gallery-placeholder") != 6 {
		t.Fatalf("placeholders = %d, want 6", strings.Count(body, "gallery-placeholder"))
	}
}

func TestRenderCustomCSSAfterBase(t *testing.T) {
	c := testCompany()
	c.Theme.CustomCSS = ".job-card{outline:1px solid red}"
	body, _ := render(t, Input{Company: c})
	if strings.Count(body, "data-custom-css") != 1 {
		t.Fatalf("custom css emitted %d times", strings.Count(body, "data-custom-css"))
	}
	base := strings.Index(body, ".careers-page{")
	custom := strings.Index(body, ".job-card{outline:1px solid red}")
	if base < 0 || custom < 0 || custom < base {
		t.Fatalf("custom css not after base: base=%d custom=%d", base, custom)
	}
}

func TestRenderSectionThemeOverride(t *testing.T) {
	c := testCompany()
	c.Sections[1].Theme = &SectionTheme{BackgroundColor: "#123456"}
	body, _ := render(t, Input{Company: c})
	start := strings.Index(body, `id="section-about-1"`)
	if start < 0 {
		t.Fatalf("about section missing")
	}
	if !strings.Contains(body[start:start+200], "background-color:#123456") {
		t.Fatalf("override background not applied: %s", body[start:start+200])
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	feed := jobfeed.Filter(testJobs(12), jobfeed.Request{})
	in := Input{Company: testCompany(), Jobs: feed, Year: 2024, Host: Host{SEO: true, JobsMode: JobsLinked, PageURL: "/careers/acme"}}
	r := NewRenderer(nil)
	first := r.Render(in)
	second := r.Render(in)
	if !bytes.Equal(first.HTML(), second.HTML()) {
		t.Fatalf("render is not deterministic")
	}
}

func TestRenderJobsEmptyStates(t *testing.T) {
	body, _ := render(t, Input{Company: testCompany(), Jobs: jobfeed.Filter(nil, jobfeed.Request{})})
	if !strings.Contains(body, NoJobsMessage) {
		t.Fatalf("empty message missing")
	}

	filtered := jobfeed.Filter(testJobs(2), jobfeed.Request{Search: "designer"})
	body, _ = render(t, Input{Company: testCompany(), Jobs: filtered})
	if !strings.Contains(body, NoMatchingMessage) {
		t.Fatalf("filtered empty message missing")
	}
}

func TestRenderJobsPaginationLinked(t *testing.T) {
	feed := jobfeed.Filter(testJobs(30), jobfeed.Request{Page: 2, Location: "berlin"})
	body, _ := render(t, Input{
		Company: testCompany(),
		Jobs:    feed,
		Host:    Host{JobsMode: JobsLinked, PageURL: "/careers/acme"},
	})
	if strings.Count(body, `class="job-card"`) != jobfeed.DefaultPageSize {
		t.Fatalf("job cards = %d", strings.Count(body, `class="job-card"`))
	}
	if !strings.Contains(body, `href="/careers/acme?location=berlin&amp;page=3"`) {
		t.Fatalf("next page link missing:\n%s", body)
	}
	if !strings.Contains(body, `aria-current="page">2<`) {
		t.Fatalf("current page not marked")
	}
	if !strings.Contains(body, `<form class="jobs-filters"`) || !strings.Contains(body, "Clear filters") {
		t.Fatalf("filter form missing")
	}
}

func TestRenderJobsPaginationInteractive(t *testing.T) {
	feed := jobfeed.Filter(testJobs(20), jobfeed.Request{})
	body, _ := render(t, Input{Company: testCompany(), Jobs: feed})
	if !strings.Contains(body, `data-page="2"`) {
		t.Fatalf("interactive paging missing:\n%s", body)
	}
	if strings.Contains(body, `<form class="jobs-filters"`) {
		t.Fatalf("filter form rendered in interactive mode")
	}
}

func TestRenderSEOHead(t *testing.T) {
	c := testCompany()
	c.Theme.HeadingFont = "Playfair Display, serif"
	doc := NewRenderer(nil).Render(Input{
		Company: c,
		Jobs:    jobfeed.Filter(testJobs(1), jobfeed.Request{}),
		Host:    Host{SEO: true, AssetBaseURL: "https://acme.example", CanonicalURL: "https://acme.example/careers/acme"},
		Year:    2024,
	})
	head := string(doc.Head)
	if doc.Title != "Acme - Careers" {
		t.Fatalf("title = %q", doc.Title)
	}
	for _, want := range []string{
		`content="Explore career opportunities at Acme. Browse our open positions and join our team."`,
		`<meta property="og:image" content="https://acme.example/uploads/logo.png">`,
		`<link rel="canonical" href="https://acme.example/careers/acme">`,
		`application/ld+json`,
		`FULL_TIME`,
	} {
		if !strings.Contains(head, want) {
			t.Errorf("head missing %q:\n%s", want, head)
		}
	}

	// Font hrefs are attribute-escaped, so compare the decoded markup.
	decoded := html.UnescapeString(head)
	for _, stack := range []string{c.Theme.FontFamily, c.Theme.HeadingFont} {
		href := FontStylesheet(stack)
		if href == "" || !strings.Contains(decoded, `href="`+href+`"`) {
			t.Errorf("head missing stylesheet for %q (%q):\n%s", stack, href, head)
		}
	}
	if !strings.Contains(FontStylesheet(c.Theme.HeadingFont), "family=Playfair+Display:wght@") {
		t.Errorf("heading stylesheet = %q", FontStylesheet(c.Theme.HeadingFont))
	}

	plain := NewRenderer(nil).Render(Input{Company: c})
	if plain.Head != "" {
		t.Fatalf("head rendered without SEO")
	}
}

func TestPageWindow(t *testing.T) {
	cases := []struct {
		current, total int
		want           []int
	}{
		{1, 3, []int{1, 2, 3}},
		{2, 10, []int{1, 2, 3, 4, 0, 10}},
		{9, 10, []int{1, 0, 7, 8, 9, 10}},
		{5, 10, []int{1, 0, 4, 5, 6, 0, 10}},
	}
	for _, tc := range cases {
		got := PageWindow(tc.current, tc.total)
		if len(got) != len(tc.want) {
			t.Errorf("PageWindow(%d, %d) = %v, want %v", tc.current, tc.total, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("PageWindow(%d, %d) = %v, want %v", tc.current, tc.total, got, tc.want)
				break
			}
		}
	}
}

func TestEmploymentType(t *testing.T) {
	if got := EmploymentType(jobfeed.PartTime); got != "PART_TIME" {
		t.Fatalf("EmploymentType = %q", got)
	}
	if got := FontStylesheet("system-ui, sans-serif"); got != "" {
		t.Fatalf("system font produced stylesheet %q", got)
	}
}
