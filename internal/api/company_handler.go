package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"careersite/internal/api/middleware"
	"careersite/internal/company"
	"careersite/internal/page"
)

// CompanyHandler 暴露公司文档与区块编辑接口。
type CompanyHandler struct {
	companies *company.Service
	logger    *slog.Logger
}

// NewCompanyHandler 构造公司处理器。
func NewCompanyHandler(companies *company.Service, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{companies: companies, logger: logger}
}

// ListPublic 返回至少有一个职位的公司。
func (h *CompanyHandler) ListPublic(c *gin.Context) {
	list, err := h.companies.ListPublic(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": list})
}

// GetBySlug 返回公开的公司文档。
func (h *CompanyHandler) GetBySlug(c *gin.Context) {
	got, err := h.companies.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": got})
}

// Create 为当前招聘方创建公司。
func (h *CompanyHandler) Create(c *gin.Context) {
	recruiterID, ok := recruiterIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req company.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	created, err := h.companies.Create(c.Request.Context(), recruiterID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.loggerFromContext(c).Info("company created", slog.Uint64("company_id", uint64(created.ID)))
	c.JSON(http.StatusCreated, gin.H{"message": "Company created", "company": created})
}

// Mine 返回当前招聘方的公司。
func (h *CompanyHandler) Mine(c *gin.Context) {
	recruiterID, ok := recruiterIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	got, err := h.companies.Mine(c.Request.Context(), recruiterID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": got})
}

// Update 合并主题、内容与品牌字段；传入 sections 时整体替换。
func (h *CompanyHandler) Update(c *gin.Context) {
	recruiterID, companyID, ok := h.ids(c)
	if !ok {
		return
	}
	var patch company.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	if patch.Version == nil {
		patch.Version = versionFromQuery(c)
	}
	updated, err := h.companies.Update(c.Request.Context(), recruiterID, companyID, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Company updated", "company": updated})
}

// Presets 列出内置样式预设。
func (h *CompanyHandler) Presets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": page.Presets()})
}

type addSectionRequest struct {
	Type page.Kind `json:"type" binding:"required"`
}

// AddSection 追加一个默认配置的区块。
func (h *CompanyHandler) AddSection(c *gin.Context) {
	recruiterID, companyID, ok := h.ids(c)
	if !ok {
		return
	}
	var req addSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "section type is required")
		return
	}
	updated, sec, err := h.companies.AddSection(c.Request.Context(), recruiterID, companyID, versionFromQuery(c), req.Type)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"section": sec, "company": updated})
}

type replaceSectionsRequest struct {
	Sections []page.SectionInput `json:"sections" binding:"required"`
	Version  *int                `json:"version"`
}

// ReplaceSections 校验并整体替换区块集合。
func (h *CompanyHandler) ReplaceSections(c *gin.Context) {
	recruiterID, companyID, ok := h.ids(c)
	if !ok {
		return
	}
	var req replaceSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "sections array is required")
		return
	}
	version := req.Version
	if version == nil {
		version = versionFromQuery(c)
	}
	updated, err := h.companies.Update(c.Request.Context(), recruiterID, companyID, company.Patch{Sections: &req.Sections, Version: version})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": updated})
}

// RemoveSection 删除区块，至少保留一个。
func (h *CompanyHandler) RemoveSection(c *gin.Context) {
	h.sectionOp(c, company.RemoveSection(c.Param("sid")))
}

type moveSectionRequest struct {
	Direction page.Direction `json:"direction" binding:"required"`
}

// MoveSection 与相邻区块交换顺序。
func (h *CompanyHandler) MoveSection(c *gin.Context) {
	var req moveSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "direction is required")
		return
	}
	h.sectionOp(c, company.MoveSection(c.Param("sid"), req.Direction))
}

// ToggleSection 切换区块的启用状态。
func (h *CompanyHandler) ToggleSection(c *gin.Context) {
	h.sectionOp(c, company.ToggleSection(c.Param("sid")))
}

// UpdateSectionConfig 浅合并区块配置，值为 null 的键被删除。
func (h *CompanyHandler) UpdateSectionConfig(c *gin.Context) {
	var partial page.Config
	if err := c.ShouldBindJSON(&partial); err != nil {
		BadRequest(c, "config must be a JSON object")
		return
	}
	h.sectionOp(c, company.UpdateSectionConfig(c.Param("sid"), partial))
}

// UpdateSectionTheme 浅合并区块配色覆盖。
func (h *CompanyHandler) UpdateSectionTheme(c *gin.Context) {
	var partial page.SectionThemePatch
	if err := c.ShouldBindJSON(&partial); err != nil {
		BadRequest(c, "theme must be a JSON object")
		return
	}
	h.sectionOp(c, company.UpdateSectionTheme(c.Param("sid"), partial))
}

// UpdateSectionFields 更新标题、副标题、正文与启用状态。
func (h *CompanyHandler) UpdateSectionFields(c *gin.Context) {
	var patch page.FieldsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	h.sectionOp(c, company.UpdateSectionFields(c.Param("sid"), patch))
}

func (h *CompanyHandler) sectionOp(c *gin.Context, op company.SectionOp) {
	recruiterID, companyID, ok := h.ids(c)
	if !ok {
		return
	}
	updated, err := h.companies.ApplySectionOp(c.Request.Context(), recruiterID, companyID, versionFromQuery(c), op)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": updated})
}

func (h *CompanyHandler) ids(c *gin.Context) (recruiterID, companyID uint, ok bool) {
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

// fail 把服务层错误映射为 HTTP 响应。
func (h *CompanyHandler) fail(c *gin.Context, err error) {
	var verr *page.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": verr.Code, "field": verr.Field})
	case errors.Is(err, company.ErrNotFound):
		NotFound(c, "Company not found")
	case errors.Is(err, company.ErrForbidden):
		Forbidden(c, "Not authorized")
	case errors.Is(err, company.ErrAlreadyExists):
		Conflict(c, "Recruiter already has a company")
	case errors.Is(err, company.ErrVersionConflict):
		Conflict(c, "Company was modified, reload and try again")
	case errors.Is(err, company.ErrSlugTaken):
		Conflict(c, "Company name is in use, try another")
	case errors.Is(err, company.ErrNameRequired):
		BadRequest(c, "Company name is required")
	case errors.Is(err, company.ErrUnknownPreset), errors.Is(err, company.ErrInvalidTheme),
		errors.Is(err, page.ErrLastSection), errors.Is(err, page.ErrInvalidDirection):
		BadRequest(c, err.Error())
	case errors.Is(err, page.ErrSectionNotFound):
		NotFound(c, "Section not found")
	default:
		h.loggerFromContext(c).Error("company request failed", slog.Any("error", err))
		Internal(c, "Server error")
	}
}

func (h *CompanyHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	return middleware.RequestLogger(c, h.logger)
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// versionFromQuery 读取 ?version= 作为乐观锁版本，缺省时不校验。
func versionFromQuery(c *gin.Context) *int {
	raw := c.Query("version")
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
