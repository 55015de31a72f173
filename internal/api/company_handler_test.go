package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"careersite/internal/page"
)

func TestCompanyCreateAndPublicLookup(t *testing.T) {
	a := newTestAPI(t)
	token, recruiterID := a.register("hr@acme.test")

	created := a.createCompany(token, "Acme Labs")
	if created.Slug != "acme-labs" || created.RecruiterID != recruiterID || created.Version != 1 {
		t.Fatalf("created = %+v", created)
	}
	if len(created.Sections) != 4 {
		t.Fatalf("default sections = %d", len(created.Sections))
	}

	w := a.do(http.MethodPost, "/v1/companies", gin.H{"name": "Second"}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("second company: %d %s", w.Code, w.Body.String())
	}

	w = a.do(http.MethodPost, "/v1/companies", gin.H{"name": "  "}, token)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Company name is required") {
		t.Fatalf("empty name: %d %s", w.Code, w.Body.String())
	}

	w = a.do(http.MethodGet, "/v1/companies/public/acme-labs", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("public lookup: %d %s", w.Code, w.Body.String())
	}
	w = a.do(http.MethodGet, "/v1/companies/public/nobody", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing slug: %d", w.Code)
	}

	w = a.do(http.MethodGet, "/v1/companies/me", nil, token)
	var mine companyResponse
	decode(t, w, &mine)
	if mine.Company.ID != created.ID {
		t.Fatalf("mine = %+v", mine.Company)
	}
}

func TestCompanyUpdateChecksOwnershipAndVersion(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.register("hr@acme.test")
	other, _ := a.register("hr@rival.test")
	created := a.createCompany(token, "Acme")
	path := fmt.Sprintf("/v1/companies/%d", created.ID)

	w := a.do(http.MethodPatch, path, gin.H{"theme": gin.H{"primaryColor": "#112233"}, "version": 1}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	var updated companyResponse
	decode(t, w, &updated)
	if updated.Company.Theme.PrimaryColor != "#112233" || updated.Company.Version != 2 {
		t.Fatalf("updated = %+v", updated.Company)
	}
	if updated.Company.Theme.AccentColor != page.DefaultAccentColor {
		t.Fatalf("accent lost in merge: %q", updated.Company.Theme.AccentColor)
	}

	w = a.do(http.MethodPatch, path, gin.H{"name": "Stale", "version": 1}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale version: %d %s", w.Code, w.Body.String())
	}

	w = a.do(http.MethodPatch, path, gin.H{"name": "Hijack"}, other)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign update: %d %s", w.Code, w.Body.String())
	}

	w = a.do(http.MethodPatch, "/v1/companies/999", gin.H{"name": "Ghost"}, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing company: %d", w.Code)
	}
}

func TestCompanyReplaceSectionsValidates(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.register("hr@acme.test")
	created := a.createCompany(token, "Acme")
	path := fmt.Sprintf("/v1/companies/%d/sections", created.ID)

	w := a.do(http.MethodPut, path, gin.H{"sections": []gin.H{
		{"id": "hero-1", "type": "hero", "order": 0},
		{"id": "hero-1", "type": "text", "order": 1},
	}}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate ids: %d %s", w.Code, w.Body.String())
	}
	var verr struct {
		Code  page.ErrorCode `json:"code"`
		Field string         `json:"field"`
	}
	decode(t, w, &verr)
	if verr.Code != page.CodeDuplicateID {
		t.Fatalf("error = %+v", verr)
	}

	w = a.do(http.MethodPut, path, gin.H{"sections": []gin.H{
		{"id": "a", "type": "text", "title": "About", "order": 5},
		{"id": "b", "type": "hero", "order": 2},
	}}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("replace: %d %s", w.Code, w.Body.String())
	}
	var resp companyResponse
	decode(t, w, &resp)
	got := resp.Company.Sections
	if len(got) != 2 || got[0].ID != "b" || got[0].Order != 0 || got[1].ID != "a" || got[1].Order != 1 {
		t.Fatalf("sections = %+v", got)
	}
}

func TestSectionEndpoints(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.register("hr@acme.test")
	created := a.createCompany(token, "Acme")
	base := fmt.Sprintf("/v1/companies/%d/sections", created.ID)

	w := a.do(http.MethodPost, base, gin.H{"type": "cta"}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	var added struct {
		Section page.Section `json:"section"`
	}
	decode(t, w, &added)
	if added.Section.Kind != page.KindCTA || added.Section.Order != 4 || !added.Section.Enabled {
		t.Fatalf("added = %+v", added.Section)
	}
	sid := added.Section.ID

	w = a.do(http.MethodPost, base+"/"+sid+"/move", gin.H{"direction": "up"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("move: %d %s", w.Code, w.Body.String())
	}
	var moved companyResponse
	decode(t, w, &moved)
	if i, ok := moved.Company.Sections.Find(sid); !ok || moved.Company.Sections[i].Order != 3 {
		t.Fatalf("sections after move = %+v", moved.Company.Sections)
	}

	w = a.do(http.MethodPost, base+"/"+sid+"/move", gin.H{"direction": "sideways"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad direction: %d %s", w.Code, w.Body.String())
	}

	w = a.do(http.MethodPost, base+"/"+sid+"/toggle", nil, token)
	var toggled companyResponse
	decode(t, w, &toggled)
	if i, _ := toggled.Company.Sections.Find(sid); toggled.Company.Sections[i].Enabled {
		t.Fatalf("section still enabled")
	}

	w = a.do(http.MethodPatch, base+"/"+sid+"/config", gin.H{"buttonText": "Apply now"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("config: %d %s", w.Code, w.Body.String())
	}

	w = a.do(http.MethodPatch, base+"/"+sid, gin.H{"title": "Talk to us"}, token)
	var fields companyResponse
	decode(t, w, &fields)
	if i, _ := fields.Company.Sections.Find(sid); fields.Company.Sections[i].Title != "Talk to us" {
		t.Fatalf("title not updated: %+v", fields.Company.Sections[i])
	}

	w = a.do(http.MethodDelete, base+"/missing", nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("remove missing: %d %s", w.Code, w.Body.String())
	}
	w = a.do(http.MethodDelete, base+"/"+sid, nil, token)
	var removed companyResponse
	decode(t, w, &removed)
	if _, ok := removed.Company.Sections.Find(sid); ok || len(removed.Company.Sections) != 4 {
		t.Fatalf("sections after remove = %+v", removed.Company.Sections)
	}
}

func TestPresetsAreListed(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(http.MethodGet, "/v1/presets", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "luxury") {
		t.Fatalf("presets: %d %s", w.Code, w.Body.String())
	}
}
