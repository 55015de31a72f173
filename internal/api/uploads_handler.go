package api

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"careersite/internal/api/middleware"
	"careersite/internal/storage"
	"careersite/internal/uploads"
)

// maxFilesPerRequest 是批量上传一次允许的文件数。
const maxFilesPerRequest = 10

// UploadsHandler 负责图片上传、删除与公开读取。
type UploadsHandler struct {
	uploads  *uploads.Service
	logger   *slog.Logger
	maxBytes int64
}

// NewUploadsHandler 返回 UploadsHandler。maxBytes 用于限制 multipart 请求体。
func NewUploadsHandler(svc *uploads.Service, logger *slog.Logger, maxBytes int64) *UploadsHandler {
	return &UploadsHandler{uploads: svc, logger: logger, maxBytes: maxBytes}
}

// Upload 接收表单字段 image 中的单张图片。
func (h *UploadsHandler) Upload(c *gin.Context) {
	recruiterID, ok := recruiterIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	h.limitBody(c, 1)

	header, err := c.FormFile("image")
	if err != nil {
		if isBodyTooLarge(err) {
			TooLarge(c, "File too large")
			return
		}
		BadRequest(c, "No file uploaded")
		return
	}

	file, err := h.store(c, recruiterID, header)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File uploaded", "url": file.URL, "filename": file.Filename})
}

// UploadMultiple 接收表单字段 images 中的多张图片，任一失败即中止。
func (h *UploadsHandler) UploadMultiple(c *gin.Context) {
	recruiterID, ok := recruiterIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	h.limitBody(c, maxFilesPerRequest)

	form, err := c.MultipartForm()
	if err != nil {
		if isBodyTooLarge(err) {
			TooLarge(c, "File too large")
			return
		}
		BadRequest(c, "No files uploaded")
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		BadRequest(c, "No files uploaded")
		return
	}
	if len(headers) > maxFilesPerRequest {
		BadRequest(c, "At most "+strconv.Itoa(maxFilesPerRequest)+" files per upload")
		return
	}

	files := make([]uploads.File, 0, len(headers))
	for _, header := range headers {
		file, err := h.store(c, recruiterID, header)
		if err != nil {
			h.fail(c, err)
			return
		}
		files = append(files, file)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Files uploaded", "files": files})
}

// Delete 删除当前招聘方上传的文件。
func (h *UploadsHandler) Delete(c *gin.Context) {
	recruiterID, ok := recruiterIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if err := h.uploads.Delete(c.Request.Context(), recruiterID, uploadKeyParam(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted"})
}

// Serve 公开读取上传的图片，页面中的 /uploads/... 路径由此提供。
func (h *UploadsHandler) Serve(c *gin.Context) {
	rc, meta, err := h.uploads.Open(c.Request.Context(), uploadKeyParam(c))
	if err != nil {
		if errors.Is(err, uploads.ErrNotFound) {
			NotFound(c, "File not found")
			return
		}
		h.loggerFromContext(c).Error("open upload", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}
	defer rc.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	if meta.ETag != "" {
		c.Header("ETag", `"`+meta.ETag+`"`)
	}
	c.DataFromReader(http.StatusOK, meta.Size, contentType, rc, nil)
}

func (h *UploadsHandler) store(c *gin.Context, recruiterID uint, header *multipart.FileHeader) (uploads.File, error) {
	f, err := header.Open()
	if err != nil {
		return uploads.File{}, err
	}
	defer f.Close()
	return h.uploads.Upload(c.Request.Context(), recruiterID, header.Filename, f)
}

// limitBody 为 multipart 预留边界与字段开销。
func (h *UploadsHandler) limitBody(c *gin.Context, files int64) {
	if h.maxBytes <= 0 {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, files*h.maxBytes+1<<20)
}

func (h *UploadsHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		TooLarge(c, "File too large")
	case errors.Is(err, uploads.ErrEmptyFile):
		BadRequest(c, "No file uploaded")
	case errors.Is(err, uploads.ErrUnsupportedType), errors.Is(err, uploads.ErrCorruptImage):
		BadRequest(c, "Only image files are allowed")
	case errors.Is(err, uploads.ErrInfected):
		BadRequest(c, "Malicious file detected")
	case errors.Is(err, uploads.ErrQuotaExceeded):
		TooManyRequests(c, "Upload quota exceeded")
	case errors.Is(err, uploads.ErrRateLimited):
		TooManyRequests(c, "Too many uploads today")
	case errors.Is(err, uploads.ErrForbidden):
		Forbidden(c, "Not authorized")
	case errors.Is(err, uploads.ErrNotFound):
		NotFound(c, "File not found")
	case isBodyTooLarge(err):
		TooLarge(c, "File too large")
	default:
		h.loggerFromContext(c).Error("upload request failed", slog.Any("error", err))
		Internal(c, "Upload failed")
	}
}

func (h *UploadsHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	return middleware.RequestLogger(c, h.logger)
}

// uploadKeyParam 同时接受 "/3/a.png" 与 "/uploads/3/a.png" 两种写法。
func uploadKeyParam(c *gin.Context) string {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !strings.HasPrefix(key, "uploads/") {
		key = "uploads/" + key
	}
	return storage.KeyFromPublicPath("/" + key)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
