package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"careersite/internal/api/middleware"
	"careersite/internal/database"
	"careersite/internal/jobfeed"
	"careersite/internal/jobs"
)

// JobsHandler 暴露职位列表与职位管理接口。
type JobsHandler struct {
	jobs     *jobs.Service
	feed     jobfeed.Source
	logger   *slog.Logger
	pageSize int
}

// NewJobsHandler 构造职位处理器。pageSize 是未指定 limit 时的默认分页大小。
func NewJobsHandler(svc *jobs.Service, feed jobfeed.Source, logger *slog.Logger, pageSize int) *JobsHandler {
	return &JobsHandler{jobs: svc, feed: feed, logger: logger, pageSize: pageSize}
}

// Feed 返回一页经过筛选的职位，公开访问。
func (h *JobsHandler) Feed(c *gin.Context) {
	companyID, ok := uintParam(c, "id")
	if !ok {
		companyID, ok = uintParam(c, "companyId")
	}
	if !ok {
		BadRequest(c, "invalid company id")
		return
	}

	exists, err := h.jobs.CompanyExists(c.Request.Context(), companyID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !exists {
		NotFound(c, "Company not found")
		return
	}

	page, err := h.feed.Jobs(c.Request.Context(), companyID, feedRequest(c, h.pageSize))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":  page.Jobs,
		"total": page.Total,
		"page":  page.Page,
		"pages": page.Pages,
	})
}

// Create 为自己的公司新增一个职位。
func (h *JobsHandler) Create(c *gin.Context) {
	recruiterID, companyID, ok := h.ids(c)
	if !ok {
		return
	}
	var in jobs.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	job, err := h.jobs.Create(c.Request.Context(), recruiterID, companyID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Job created", "job": job.Feed()})
}

type bulkJobsRequest struct {
	Jobs []jobs.Input `json:"jobs"`
}

// BulkCreate 一次写入多个职位，任一校验失败则全部不写入。
func (h *JobsHandler) BulkCreate(c *gin.Context) {
	recruiterID, companyID, ok := h.ids(c)
	if !ok {
		return
	}
	var req bulkJobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Jobs array is required")
		return
	}
	created, err := h.jobs.BulkCreate(c.Request.Context(), recruiterID, companyID, req.Jobs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Jobs created",
		"count":   len(created),
		"jobs":    feedJobs(created),
	})
}

// Delete 删除自己公司下的职位。
func (h *JobsHandler) Delete(c *gin.Context) {
	recruiterID, ok := recruiterIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	jobID, ok := uintParam(c, "jobId")
	if !ok {
		BadRequest(c, "invalid job id")
		return
	}
	if err := h.jobs.Delete(c.Request.Context(), recruiterID, jobID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted"})
}

func (h *JobsHandler) ids(c *gin.Context) (recruiterID, companyID uint, ok bool) {
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

func (h *JobsHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrCompanyNotFound):
		NotFound(c, "Company not found")
	case errors.Is(err, jobs.ErrJobNotFound):
		NotFound(c, "Job not found")
	case errors.Is(err, jobs.ErrForbidden):
		Forbidden(c, "Not authorized")
	case errors.Is(err, jobs.ErrNoJobs):
		BadRequest(c, "Jobs array is required")
	case errors.Is(err, jobs.ErrTooManyJobs):
		BadRequest(c, err.Error())
	case isValidationError(err):
		ValidationFailed(c, "All job fields are required", err)
	default:
		middleware.RequestLogger(c, h.logger).Error("jobs request failed", slog.Any("error", err))
		Internal(c, "Server error")
	}
}

// feedRequest 解析查询参数；未给出 limit 时使用配置的分页大小。
func feedRequest(c *gin.Context, pageSize int) jobfeed.Request {
	q := c.Request.URL.Query()
	req := jobfeed.ParseRequest(q)
	if q.Get("limit") == "" && pageSize > 0 {
		req.PageSize = pageSize
		req = req.Normalize()
	}
	return req
}

func feedJobs(rows []database.Job) []jobfeed.Job {
	out := make([]jobfeed.Job, len(rows))
	for i, row := range rows {
		out[i] = row.Feed()
	}
	return out
}
