package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"

	"careersite/internal/database"
	"careersite/internal/database/dbtest"
	"careersite/internal/page"
)

type recordingEnqueuer struct {
	mu  sync.Mutex
	ids []uint
}

func (r *recordingEnqueuer) EnqueueSnapshot(_ context.Context, companyID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, companyID)
	return nil
}

func (r *recordingEnqueuer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingEnqueuer) {
	t.Helper()
	db := dbtest.Open(t)
	enq := &recordingEnqueuer{}
	svc := NewService(db, enq, nil)
	n := 0
	svc.newID = func(k page.Kind) string {
		n++
		return fmt.Sprintf("%s-new-%d", k, n)
	}
	return svc, db, enq
}

func seedRecruiter(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	rec := database.Recruiter{Email: fmt.Sprintf("r%d@example.test", id), PasswordHash: "x"}
	rec.ID = id
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed recruiter: %v", err)
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":         "acme-corp",
		"  Hello, World!  ": "hello-world",
		"Ünïcode & Co":      "n-code-co",
		"!!!":               "company",
		"already-a-slug":    "already-a-slug",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateDefaultsAndOnePerRecruiter(t *testing.T) {
	svc, db, enq := newTestService(t)
	seedRecruiter(t, db, 1)
	ctx := context.Background()

	c, err := svc.Create(ctx, 1, CreateInput{Name: "Acme Corp"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Slug != "acme-corp" || c.Version != 1 || c.RecruiterID != 1 {
		t.Fatalf("company = %+v", c)
	}
	if got := c.Sections.IDs(); len(got) != 4 || got[0] != "hero-1" || got[3] != "jobs-1" {
		t.Fatalf("sections = %v", got)
	}
	if c.Theme != page.DefaultTheme() {
		t.Fatalf("theme = %+v", c.Theme)
	}
	if enq.count() != 1 {
		t.Fatalf("snapshots enqueued = %d", enq.count())
	}

	if _, err := svc.Create(ctx, 1, CreateInput{Name: "Second"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second create err = %v, want ErrAlreadyExists", err)
	}
	if _, err := svc.Create(ctx, 1, CreateInput{Name: "   "}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("blank name err = %v", err)
	}
}

func TestCreateSlugCollision(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	for id := uint(1); id <= 3; id++ {
		seedRecruiter(t, db, id)
	}

	want := []string{"acme", "acme-2", "acme-3"}
	for i, w := range want {
		c, err := svc.Create(ctx, uint(i+1), CreateInput{Name: "Acme"})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if c.Slug != w {
			t.Fatalf("slug %d = %q, want %q", i, c.Slug, w)
		}
	}
}

func TestCreateValidatesSections(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedRecruiter(t, db, 1)

	_, err := svc.Create(context.Background(), 1, CreateInput{
		Name:     "Acme",
		Sections: []page.SectionInput{{ID: "x", Kind: "banner", Order: intPtr(0)}},
	})
	var verr *page.ValidationError
	if !errors.As(err, &verr) || verr.Code != page.CodeInvalidKind {
		t.Fatalf("err = %v, want InvalidKind", err)
	}
}

func TestUpdateMergesAndRegeneratesSlug(t *testing.T) {
	svc, db, enq := newTestService(t)
	seedRecruiter(t, db, 1)
	ctx := context.Background()
	c, err := svc.Create(ctx, 1, CreateInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, 1, c.ID, Patch{
		Name:        strPtr("Acme Labs"),
		Theme:       json.RawMessage(`{"primaryColor":"#FF0000"}`),
		Content:     json.RawMessage(`{"heroTitle":"Work here"}`),
		SocialLinks: json.RawMessage(`{"linkedin":"https://linkedin.com/company/acme"}`),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Slug != "acme-labs" || updated.Name != "Acme Labs" {
		t.Fatalf("name/slug = %q/%q", updated.Name, updated.Slug)
	}
	if updated.Theme.PrimaryColor != "#FF0000" || updated.Theme.AccentColor != page.DefaultAccentColor {
		t.Fatalf("theme = %+v", updated.Theme)
	}
	if updated.Content.HeroTitle != "Work here" || updated.Content.HeroSubtitle != page.DefaultContent().HeroSubtitle {
		t.Fatalf("content = %+v", updated.Content)
	}
	if updated.SocialLinks.LinkedIn == "" {
		t.Fatalf("social links not merged")
	}
	if updated.Version != 2 {
		t.Fatalf("version = %d", updated.Version)
	}
	if enq.count() != 2 {
		t.Fatalf("snapshots enqueued = %d", enq.count())
	}

	found, err := svc.BySlug(ctx, "ACME-LABS")
	if err != nil || found.ID != c.ID {
		t.Fatalf("by slug = %+v, %v", found, err)
	}
}

func TestUpdatePresetThenTheme(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedRecruiter(t, db, 1)
	ctx := context.Background()
	c, _ := svc.Create(ctx, 1, CreateInput{Name: "Acme"})

	updated, err := svc.Update(ctx, 1, c.ID, Patch{
		Preset: strPtr("luxury"),
		Theme:  json.RawMessage(`{"accentColor":"#000000"}`),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Theme.Preset != "luxury" || updated.Theme.ButtonStyle != page.ButtonSharp {
		t.Fatalf("preset not applied: %+v", updated.Theme)
	}
	if updated.Theme.AccentColor != "#000000" {
		t.Fatalf("explicit theme must win over preset: %+v", updated.Theme)
	}

	if _, err := svc.Update(ctx, 1, c.ID, Patch{Preset: strPtr("neon")}); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("unknown preset err = %v", err)
	}
}

func TestUpdateOwnershipAndVersion(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedRecruiter(t, db, 1)
	seedRecruiter(t, db, 2)
	ctx := context.Background()
	c, _ := svc.Create(ctx, 1, CreateInput{Name: "Acme"})

	if _, err := svc.Update(ctx, 2, c.ID, Patch{Name: strPtr("Stolen")}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign update err = %v", err)
	}
	if _, err := svc.Update(ctx, 1, 999, Patch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing company err = %v", err)
	}
	if _, err := svc.Update(ctx, 1, c.ID, Patch{Version: intPtr(7)}); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale version err = %v", err)
	}
	if _, err := svc.Update(ctx, 1, c.ID, Patch{Version: intPtr(1), Description: strPtr("hi")}); err != nil {
		t.Fatalf("fresh version: %v", err)
	}
}

func TestUpdateReplacesSections(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedRecruiter(t, db, 1)
	ctx := context.Background()
	c, _ := svc.Create(ctx, 1, CreateInput{Name: "Acme"})

	inputs := []page.SectionInput{
		{ID: "jobs-1", Kind: page.KindJobs, Order: intPtr(5)},
		{ID: "hero-1", Kind: page.KindHero, Order: intPtr(1)},
	}
	updated, err := svc.Update(ctx, 1, c.ID, Patch{Sections: &inputs})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	ids := updated.Sections.Sorted().IDs()
	if len(ids) != 2 || ids[0] != "hero-1" || ids[1] != "jobs-1" {
		t.Fatalf("ids = %v", ids)
	}
	if updated.Sections.Sorted()[1].Order != 1 {
		t.Fatalf("orders not densified: %+v", updated.Sections)
	}

	dup := []page.SectionInput{
		{ID: "a", Kind: page.KindText, Order: intPtr(0)},
		{ID: "a", Kind: page.KindText, Order: intPtr(1)},
	}
	if _, err := svc.Update(ctx, 1, c.ID, Patch{Sections: &dup}); !errors.Is(err, page.ErrDuplicateID) {
		t.Fatalf("duplicate err = %v", err)
	}
}

func TestSectionOps(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedRecruiter(t, db, 1)
	ctx := context.Background()
	c, _ := svc.Create(ctx, 1, CreateInput{Name: "Acme"})

	c, added, err := svc.AddSection(ctx, 1, c.ID, nil, page.KindGallery)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.ID != "gallery-new-1" || added.Order != 4 || added.Title != page.KindGallery.DefaultTitle() {
		t.Fatalf("added = %+v", added)
	}

	c, err = svc.ApplySectionOp(ctx, 1, c.ID, intPtr(c.Version), MoveSection(added.ID, page.Up))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if ids := c.Sections.Sorted().IDs(); ids[3] != added.ID || ids[4] != "jobs-1" {
		t.Fatalf("after move = %v", ids)
	}

	c, err = svc.ApplySectionOp(ctx, 1, c.ID, nil, ToggleSection("about-1"))
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if i, _ := c.Sections.Find("about-1"); c.Sections[i].Enabled {
		t.Fatalf("about-1 still enabled")
	}

	before := c.Version
	if _, err := svc.ApplySectionOp(ctx, 1, c.ID, nil, RemoveSection("missing")); !errors.Is(err, page.ErrSectionNotFound) {
		t.Fatalf("remove missing err = %v", err)
	}
	again, _ := svc.Get(ctx, c.ID)
	if again.Version != before {
		t.Fatalf("failed op bumped version %d -> %d", before, again.Version)
	}

	c, err = svc.ApplySectionOp(ctx, 1, c.ID, nil, RemoveSection(added.ID))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(c.Sections) != 4 {
		t.Fatalf("sections = %d", len(c.Sections))
	}

	if _, err := svc.ApplySectionOp(ctx, 2, c.ID, nil, ToggleSection("hero-1")); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign op err = %v", err)
	}
}

func TestListPublicOnlyCompaniesWithJobs(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	seedRecruiter(t, db, 1)
	seedRecruiter(t, db, 2)
	withJobs, _ := svc.Create(ctx, 1, CreateInput{Name: "Hiring"})
	if _, err := svc.Create(ctx, 2, CreateInput{Name: "Quiet"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := db.Create(&database.Job{CompanyID: withJobs.ID, Title: "Role", Location: "Remote", JobType: "Full-time"}).Error; err != nil {
			t.Fatalf("seed job: %v", err)
		}
	}

	list, err := svc.ListPublic(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Slug != "hiring" || list[0].JobCount != 2 {
		t.Fatalf("list = %+v", list)
	}
	if list[0].HeroTitle != page.DefaultContent().HeroTitle || list[0].PrimaryColor != page.DefaultPrimaryColor {
		t.Fatalf("summary = %+v", list[0])
	}
}

func TestSetPreviewImageIgnoresStaleVersion(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedRecruiter(t, db, 1)
	ctx := context.Background()
	c, _ := svc.Create(ctx, 1, CreateInput{Name: "Acme"})
	if _, err := svc.Update(ctx, 1, c.ID, Patch{Description: strPtr("v2")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	ok, err := svc.SetPreviewImage(ctx, c.ID, 1, "https://cdn/old.jpg")
	if err != nil || ok {
		t.Fatalf("stale set = %v, %v", ok, err)
	}
	ok, err = svc.SetPreviewImage(ctx, c.ID, 2, "https://cdn/new.jpg")
	if err != nil || !ok {
		t.Fatalf("fresh set = %v, %v", ok, err)
	}
	got, _ := svc.Mine(ctx, 1)
	if got.PreviewImageURL != "https://cdn/new.jpg" {
		t.Fatalf("preview = %q", got.PreviewImageURL)
	}
}

// stealSlugs registers an update hook that inserts another company holding
// the slug about to be written, for the first n updates.
func stealSlugs(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	stolen := 0
	err := db.Callback().Update().Before("gorm:update").Register("test:steal_slug", func(tx *gorm.DB) {
		if stolen >= n {
			return
		}
		values, ok := tx.Statement.Dest.(map[string]any)
		if !ok {
			return
		}
		slug, _ := values["slug"].(string)
		stolen++
		rival := database.Company{RecruiterID: uint(100 + stolen), Name: "Rival", Slug: slug, Version: 1}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			t.Errorf("insert rival %q: %v", slug, err)
		}
	})
	if err != nil {
		t.Fatalf("register hook: %v", err)
	}
}

func TestUpdateRepicksSlugTakenDuringSave(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedRecruiter(t, db, 1)
	seedRecruiter(t, db, 2)
	ctx := context.Background()
	if _, err := svc.Create(ctx, 1, CreateInput{Name: "Acme"}); err != nil {
		t.Fatalf("create acme: %v", err)
	}
	beta, err := svc.Create(ctx, 2, CreateInput{Name: "Beta"})
	if err != nil {
		t.Fatalf("create beta: %v", err)
	}

	stealSlugs(t, db, 1)
	updated, err := svc.Update(ctx, 2, beta.ID, Patch{Name: strPtr("Acme")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Slug != "acme-3" || updated.Version != beta.Version+1 {
		t.Fatalf("slug/version = %q/%d, want acme-3/%d", updated.Slug, updated.Version, beta.Version+1)
	}
}

func TestUpdateReportsSlugTakenAfterRetries(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedRecruiter(t, db, 1)
	ctx := context.Background()
	c, err := svc.Create(ctx, 1, CreateInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stealSlugs(t, db, slugRetries+1)
	_, err = svc.Update(ctx, 1, c.ID, Patch{Name: strPtr("Acme Labs")})
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("err = %v, want ErrSlugTaken", err)
	}
	if errors.Is(err, ErrVersionConflict) {
		t.Fatalf("slug clash reported as version conflict")
	}

	fresh, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fresh.Slug != "acme" || fresh.Version != c.Version {
		t.Fatalf("company changed: slug=%q version=%d", fresh.Slug, fresh.Version)
	}
}
