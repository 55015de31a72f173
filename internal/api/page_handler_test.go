package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCareersPageRendersPublishedCompany(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.register("hr@acme.test")
	created := a.createCompany(token, "Acme Labs")
	w := a.do(http.MethodPost, fmt.Sprintf("/v1/companies/%d/jobs", created.ID), validJob("Backend Engineer", "Berlin", "Full-time"), token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create job: %d %s", w.Code, w.Body.String())
	}

	w = a.do(http.MethodGet, "/careers/acme-labs", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("careers: %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Acme Labs",
		"Backend Engineer",
		`<link rel="canonical" href="https://careers.example.test/careers/acme-labs">`,
		"application/ld+json",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	w = a.do(http.MethodGet, "/careers/nobody", nil, "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Company not found") {
		t.Fatalf("missing page: %d %s", w.Code, w.Body.String())
	}
}

func TestPreviewIsOwnerOnly(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.register("hr@acme.test")
	other, _ := a.register("hr@rival.test")
	created := a.createCompany(token, "Acme")
	path := fmt.Sprintf("/preview/%d", created.ID)

	w := a.do(http.MethodGet, path, nil, token)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Acme") {
		t.Fatalf("preview: %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "application/ld+json") {
		t.Fatalf("preview must not carry SEO metadata")
	}

	w = a.do(http.MethodGet, path, nil, other)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign preview: %d", w.Code)
	}
}

func TestRenderDraftUsesUnsavedDocument(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.register("hr@acme.test")
	created := a.createCompany(token, "Acme")
	path := fmt.Sprintf("/v1/companies/%d/preview/render", created.ID)

	draft := gin.H{
		"theme": gin.H{"primaryColor": "#ABCDEF"},
		"sections": []gin.H{
			{"id": "hero-1", "type": "hero", "title": "Draft Headline", "order": 0},
		},
	}
	w := a.do(http.MethodPost, path, draft, token)
	if w.Code != http.StatusOK {
		t.Fatalf("render: %d %s", w.Code, w.Body.String())
	}
	var doc struct {
		Title string `json:"title"`
		Head  string `json:"head"`
		Body  string `json:"body"`
	}
	decode(t, w, &doc)
	if !strings.Contains(doc.Body, "Draft Headline") || !strings.Contains(doc.Body, "#ABCDEF") {
		t.Fatalf("draft not rendered: %s", doc.Body)
	}

	// 草稿不落库
	w = a.do(http.MethodGet, "/v1/companies/me", nil, token)
	var mine companyResponse
	decode(t, w, &mine)
	if mine.Company.Version != 1 || mine.Company.Theme.PrimaryColor == "#ABCDEF" {
		t.Fatalf("draft was persisted: %+v", mine.Company)
	}

	w = a.do(http.MethodPost, path, gin.H{"sections": []gin.H{{"id": "x", "type": "carousel", "order": 0}}}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid draft: %d %s", w.Code, w.Body.String())
	}
}

func TestRenderDraftReturnsHTMLWhenAsked(t *testing.T) {
	a := newTestAPI(t)
	token, _ := a.register("hr@acme.test")
	created := a.createCompany(token, "Acme")

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/companies/%d/preview/render", created.ID), strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Authorization", "Bearer "+token)
	w := a.serve(req)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "<!DOCTYPE html>") {
		t.Fatalf("html render: %d %.80s", w.Code, w.Body.String())
	}
}
