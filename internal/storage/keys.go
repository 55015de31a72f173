package storage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	uploadPrefix   = "uploads"
	snapshotPrefix = "snapshots"
	maxKeyLength   = 200
)

// UploadPrefix 是某个招聘方上传目录的前缀。
func UploadPrefix(recruiterID uint) string {
	return fmt.Sprintf("%s/%d/", uploadPrefix, recruiterID)
}

// NewUploadKey 生成 "uploads/<recruiter>/<uuid><ext>" 形式的对象键。
func NewUploadKey(recruiterID uint, ext string) string {
	return UploadPrefix(recruiterID) + uuid.NewString() + ext
}

// PublicPath 返回对象在页面中引用的路径，由 GET /uploads/*key 提供。
func PublicPath(key string) string {
	return "/" + key
}

// KeyFromPublicPath 是 PublicPath 的逆操作。
func KeyFromPublicPath(p string) string {
	return strings.TrimPrefix(p, "/")
}

// SnapshotPrefix 是某家公司预览截图的前缀。
func SnapshotPrefix(companyID uint) string {
	return fmt.Sprintf("%s/%d/", snapshotPrefix, companyID)
}

// SnapshotKey 按文档版本生成截图对象键。
func SnapshotKey(companyID uint, version int) string {
	return fmt.Sprintf("%sv%d.jpg", SnapshotPrefix(companyID), version)
}

var uploadExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// IsValidUploadKey 校验对象键位于招聘方自己的上传目录且不含路径穿越。
func IsValidUploadKey(recruiterID uint, key string) bool {
	if !IsValidPublicUploadKey(key) {
		return false
	}
	return strings.HasPrefix(key, UploadPrefix(recruiterID))
}

// IsValidPublicUploadKey 校验任意招聘方上传的对象键，用于公开读取。
func IsValidPublicUploadKey(key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > maxKeyLength {
		return false
	}
	if !strings.HasPrefix(key, uploadPrefix+"/") {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(key))
	for _, ext := range uploadExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
