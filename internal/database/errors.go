package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsUniqueViolation 兼容 PostgreSQL 与 SQLite 的唯一约束错误。
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
