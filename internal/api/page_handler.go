package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"careersite/internal/api/middleware"
	"careersite/internal/company"
	"careersite/internal/jobfeed"
	"careersite/internal/page"
)

// PageHandler 渲染公开招聘页、所有者预览与编辑器实时预览。
type PageHandler struct {
	companies *company.Service
	feed      jobfeed.Source
	public    *page.Renderer
	preview   *page.Renderer
	logger    *slog.Logger

	publicBaseURL string
	assetBaseURL  string
	pageSize      int
	now           func() time.Time
}

// PageOptions 汇总页面渲染相关的配置。
type PageOptions struct {
	PublicBaseURL string
	AssetBaseURL  string
	PageSize      int
}

// NewPageHandler 构造页面处理器。public 与 preview 分别上报到不同的指标面。
func NewPageHandler(companies *company.Service, feed jobfeed.Source, public, preview *page.Renderer, logger *slog.Logger, opts PageOptions) *PageHandler {
	return &PageHandler{
		companies:     companies,
		feed:          feed,
		public:        public,
		preview:       preview,
		logger:        logger,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		assetBaseURL:  strings.TrimRight(opts.AssetBaseURL, "/"),
		pageSize:      opts.PageSize,
		now:           time.Now,
	}
}

// Careers 渲染 /careers/:slug 公开页面，筛选与分页通过 GET 链接完成。
func (h *PageHandler) Careers(c *gin.Context) {
	got, err := h.companies.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.failHTML(c, err)
		return
	}
	jobsPage, err := h.feed.Jobs(c.Request.Context(), got.ID, feedRequest(c, h.pageSize))
	if err != nil {
		h.failHTML(c, err)
		return
	}

	pagePath := "/careers/" + url.PathEscape(got.Slug)
	host := page.Host{
		AssetBaseURL: h.assetBaseURL,
		PageURL:      pagePath,
		JobsMode:     page.JobsLinked,
		SEO:          true,
	}
	if h.publicBaseURL != "" {
		host.CanonicalURL = h.publicBaseURL + pagePath
	}
	doc := h.public.Render(page.Input{Company: got.Company, Jobs: jobsPage, Host: host, Year: h.now().Year()})

	c.Header("Cache-Control", "public, max-age=60")
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc.HTML())
}

// Preview 渲染所有者已保存的页面，不做 SEO 输出。
func (h *PageHandler) Preview(c *gin.Context) {
	recruiterID, companyID, ok := h.ids(c)
	if !ok {
		return
	}
	got, err := h.companies.Owned(c.Request.Context(), recruiterID, companyID)
	if err != nil {
		h.failHTML(c, err)
		return
	}
	jobsPage, err := h.feed.Jobs(c.Request.Context(), got.ID, feedRequest(c, h.pageSize))
	if err != nil {
		h.failHTML(c, err)
		return
	}
	host := page.Host{
		AssetBaseURL: h.assetBaseURL,
		PageURL:      "/preview/" + strconv.FormatUint(uint64(got.ID), 10),
		JobsMode:     page.JobsLinked,
	}
	doc := h.preview.Render(page.Input{Company: got.Company, Jobs: jobsPage, Host: host, Year: h.now().Year()})

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc.HTML())
}

type renderRequest struct {
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	LogoURL     *string             `json:"logoUrl"`
	BannerURL   *string             `json:"bannerUrl"`
	Theme       json.RawMessage     `json:"theme"`
	Content     *page.Content       `json:"content"`
	SocialLinks *page.SocialLinks   `json:"socialLinks"`
	Sections    []page.SectionInput `json:"sections"`
	Jobs        *jobfeed.Request    `json:"jobs"`
}

// RenderDraft 渲染编辑器中尚未保存的文档，客户端通过 data-page 按钮翻页。
// Accept: text/html 时返回完整文档，否则返回 {title, head, body}。
func (h *PageHandler) RenderDraft(c *gin.Context) {
	recruiterID, companyID, ok := h.ids(c)
	if !ok {
		return
	}
	saved, err := h.companies.Owned(c.Request.Context(), recruiterID, companyID)
	if err != nil {
		h.failJSON(c, err)
		return
	}

	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	draft, err := applyDraft(saved.Company, req)
	if err != nil {
		h.failJSON(c, err)
		return
	}

	feedReq := feedRequest(c, h.pageSize)
	if req.Jobs != nil {
		feedReq = jobfeed.Reconcile(feedReq, *req.Jobs)
	}
	jobsPage, err := h.feed.Jobs(c.Request.Context(), saved.ID, feedReq)
	if err != nil {
		h.failJSON(c, err)
		return
	}

	host := page.Host{AssetBaseURL: h.assetBaseURL, JobsMode: page.JobsInteractive}
	doc := h.preview.Render(page.Input{Company: draft, Jobs: jobsPage, Host: host, Year: h.now().Year()})

	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		c.Data(http.StatusOK, "text/html; charset=utf-8", doc.HTML())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title": doc.Title,
		"head":  string(doc.Head),
		"body":  string(doc.Body),
		"jobs":  gin.H{"total": jobsPage.Total, "page": jobsPage.Page, "pages": jobsPage.Pages},
	})
}

// applyDraft 把未保存的编辑覆盖到已保存文档上，区块按保存时的规则校验。
func applyDraft(base page.Company, req renderRequest) (page.Company, error) {
	draft := base
	if name := strings.TrimSpace(req.Name); name != "" {
		draft.Name = name
	}
	if req.Description != nil {
		draft.Description = *req.Description
	}
	if req.LogoURL != nil {
		draft.LogoURL = *req.LogoURL
	}
	if req.BannerURL != nil {
		draft.BannerURL = *req.BannerURL
	}
	if req.Content != nil {
		draft.Content = *req.Content
	}
	if req.SocialLinks != nil {
		draft.SocialLinks = *req.SocialLinks
	}
	if len(req.Theme) > 0 {
		theme, err := page.MergeThemeJSON(base.Theme, req.Theme)
		if err != nil {
			return page.Company{}, company.ErrInvalidTheme
		}
		draft.Theme = theme
	}
	if req.Sections != nil {
		sections, err := page.ValidateSections(req.Sections)
		if err != nil {
			return page.Company{}, err
		}
		draft.Sections = sections
	} else {
		draft.Sections = base.Sections.Clone()
	}
	return draft, nil
}

func (h *PageHandler) ids(c *gin.Context) (recruiterID, companyID uint, ok bool) {
	recruiterID, ok = recruiterIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return 0, 0, false
	}
	companyID, ok = uintParam(c, "id")
	if !ok {
		BadRequest(c, "invalid company id")
		return 0, 0, false
	}
	return recruiterID, companyID, true
}

func (h *PageHandler) failHTML(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "Something went wrong"
	switch {
	case errors.Is(err, company.ErrNotFound):
		status, msg = http.StatusNotFound, "Company not found"
	case errors.Is(err, company.ErrForbidden):
		status, msg = http.StatusForbidden, "Not authorized"
	default:
		middleware.RequestLogger(c, h.logger).Error("render page failed", slog.Any("error", err))
	}
	c.Data(status, "text/html; charset=utf-8", []byte("<!DOCTYPE html><html><head><title>"+msg+"</title></head><body><h1>"+msg+"</h1></body></html>"))
}

func (h *PageHandler) failJSON(c *gin.Context, err error) {
	var verr *page.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": verr.Code, "field": verr.Field})
	case errors.Is(err, company.ErrInvalidTheme):
		BadRequest(c, err.Error())
	case errors.Is(err, company.ErrNotFound):
		NotFound(c, "Company not found")
	case errors.Is(err, company.ErrForbidden):
		Forbidden(c, "Not authorized")
	default:
		middleware.RequestLogger(c, h.logger).Error("render draft failed", slog.Any("error", err))
		Internal(c, "Server error")
	}
}
