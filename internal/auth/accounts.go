package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"careersite/internal/database"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRecruiterNotFound  = errors.New("recruiter not found")
)

// Accounts 管理招聘方账号的注册与登录。
type Accounts struct {
	db *gorm.DB
}

// NewAccounts 返回基于 GORM 的账号服务。
func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

// Register 创建新账号。邮箱会先规范化，重复时返回 ErrEmailTaken。
func (a *Accounts) Register(ctx context.Context, email, password string) (database.Recruiter, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return database.Recruiter{}, err
	}
	if err := CheckPasswordStrength(password); err != nil {
		return database.Recruiter{}, err
	}

	var count int64
	if err := a.db.WithContext(ctx).Model(&database.Recruiter{}).Where("email = ?", normalized).Count(&count).Error; err != nil {
		return database.Recruiter{}, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return database.Recruiter{}, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return database.Recruiter{}, err
	}

	recruiter := database.Recruiter{Email: normalized, PasswordHash: hash}
	if err := a.db.WithContext(ctx).Create(&recruiter).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return database.Recruiter{}, ErrEmailTaken
		}
		return database.Recruiter{}, fmt.Errorf("create recruiter: %w", err)
	}
	return recruiter, nil
}

// Authenticate 校验邮箱与密码。任何不匹配都返回 ErrInvalidCredentials。
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (database.Recruiter, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	var recruiter database.Recruiter
	err := a.db.WithContext(ctx).Where("email = ?", normalized).First(&recruiter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Recruiter{}, ErrInvalidCredentials
	}
	if err != nil {
		return database.Recruiter{}, fmt.Errorf("load recruiter: %w", err)
	}
	if !CheckPasswordHash(password, recruiter.PasswordHash) {
		return database.Recruiter{}, ErrInvalidCredentials
	}
	return recruiter, nil
}

// Get 按 ID 读取账号。
func (a *Accounts) Get(ctx context.Context, id uint) (database.Recruiter, error) {
	var recruiter database.Recruiter
	err := a.db.WithContext(ctx).First(&recruiter, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Recruiter{}, ErrRecruiterNotFound
	}
	if err != nil {
		return database.Recruiter{}, fmt.Errorf("load recruiter: %w", err)
	}
	return recruiter, nil
}

// ChangePassword 校验旧密码后写入新哈希。
func (a *Accounts) ChangePassword(ctx context.Context, id uint, current, next string) error {
	recruiter, err := a.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CheckPasswordHash(current, recruiter.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := CheckPasswordStrength(next); err != nil {
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := a.db.WithContext(ctx).Model(&recruiter).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
