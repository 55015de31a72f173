package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"careersite/internal/api/middleware"
	"careersite/internal/auth"
	"careersite/internal/database"
)

const refreshTokenCookieName = "refresh_token"
const refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"

// AuthOptions 是登录限流与 Cookie 相关的配置。
type AuthOptions struct {
	LoginRateLimitPerHour int
	LoginLockThreshold    int
	LoginLockTTL          time.Duration
	CookieDomain          string
	CookieSecure          bool
}

// AuthHandler 处理招聘方注册、登录、刷新与退出。
// redis 为 nil 时跳过限流与刷新令牌黑名单。
type AuthHandler struct {
	accounts    *auth.Accounts
	authService *auth.AuthService
	redis       redis.UniversalClient
	logger      *slog.Logger
	opts        AuthOptions
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(accounts *auth.Accounts, authService *auth.AuthService, redisClient redis.UniversalClient, logger *slog.Logger, opts AuthOptions) *AuthHandler {
	if opts.LoginLockTTL <= 0 {
		opts.LoginLockTTL = 15 * time.Minute
	}
	return &AuthHandler{
		accounts:    accounts,
		authService: authService,
		redis:       redisClient,
		logger:      logger,
		opts:        opts,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,max=72"`
}

type recruiterView struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	Message     string        `json:"message"`
	Token       string        `json:"token"`
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in"`
	Recruiter   recruiterView `json:"recruiter"`
}

// Register 创建招聘方账号并直接登录。
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, "Email and password are required", err)
		return
	}

	logger := h.loggerFromContext(c)
	recruiter, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		logger.Info("register conflict: email already registered")
		BadRequest(c, "Email already registered")
		return
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		BadRequest(c, err.Error())
		return
	case err != nil:
		logger.Error("register failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("recruiter registered", slog.Uint64("recruiter_id", uint64(recruiter.ID)))
	h.replyWithTokenPair(c, http.StatusCreated, "Registration successful", recruiter)
}

// Login 校验口令并返回 Token。
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, "Email and password are required", err)
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := h.loggerFromContext(c)

	if h.redis != nil {
		// 速率限制：每 IP+邮箱 每小时 N 次，Redis 不可用时放行
		rateKey := "rate:login:" + c.ClientIP() + ":" + email + ":" + time.Now().UTC().Format("2006010215")
		count, err := incrWithTTL(ctx, h.redis, rateKey, time.Hour)
		if err != nil {
			count = 0
		}
		if h.opts.LoginRateLimitPerHour > 0 && count > int64(h.opts.LoginRateLimitPerHour) {
			TooManyRequests(c, "rate limit exceeded")
			return
		}

		if ttl, _ := h.redis.TTL(ctx, "lock:login:"+email).Result(); ttl > 0 {
			TooManyRequests(c, "account temporarily locked")
			return
		}
	}

	recruiter, err := h.accounts.Authenticate(ctx, email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		logger.Info("login failed: invalid credentials")
		h.incrementLoginFail(ctx, email)
		Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if h.redis != nil {
		_ = h.redis.Del(ctx, "lock:login:fail:"+email).Err()
	}
	h.replyWithTokenPair(c, http.StatusOK, "Login successful", recruiter)
}

// Me 返回当前登录的招聘方。
func (h *AuthHandler) Me(c *gin.Context) {
	recruiterID, ok := recruiterIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	recruiter, err := h.accounts.Get(c.Request.Context(), recruiterID)
	if errors.Is(err, auth.ErrRecruiterNotFound) {
		NotFound(c, "Recruiter not found")
		return
	}
	if err != nil {
		h.loggerFromContext(c).Error("load recruiter failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recruiter": recruiterView{ID: recruiter.ID, Email: recruiter.Email}})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh 校验刷新令牌并颁发新的 TokenPair，旧令牌随即失效。
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		Unauthorized(c)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	claims, err := h.authService.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil || claims.ID == "" {
		logger.Info("refresh token invalid", slog.Any("error", err))
		Unauthorized(c)
		return
	}

	key := refreshTokenBlacklistKeyPrefix + claims.ID
	if h.redis != nil {
		if err := h.redis.Get(ctx, key).Err(); err == nil {
			logger.Info("refresh token revoked", slog.String("jti", claims.ID))
			Unauthorized(c)
			return
		} else if !errors.Is(err, redis.Nil) {
			logger.Error("refresh token blacklist lookup failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	}

	recruiter, err := h.accounts.Get(ctx, claims.RecruiterID)
	if err != nil {
		logger.Info("refresh recruiter not found", slog.Any("error", err))
		Unauthorized(c)
		return
	}

	if err := h.revokeRefreshToken(ctx, key, claims.ExpiresAt); err != nil {
		logger.Error("refresh revoke old token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.replyWithTokenPair(c, http.StatusOK, "Token refreshed", recruiter)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,max=72"`
}

// ChangePassword 校验当前密码并更新为新密码。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, "current_password and new_password are required", err)
		return
	}
	recruiterID, ok := recruiterIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if req.CurrentPassword == req.NewPassword {
		BadRequest(c, "new password must be different from current password")
		return
	}

	err := h.accounts.ChangePassword(c.Request.Context(), recruiterID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrRecruiterNotFound):
		Unauthorized(c)
		return
	case errors.Is(err, auth.ErrWeakPassword):
		BadRequest(c, err.Error())
		return
	case err != nil:
		h.loggerFromContext(c).Error("change password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// Logout 将刷新令牌加入黑名单，防止继续使用。
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		BadRequest(c, "refresh token missing")
		return
	}

	logger := h.loggerFromContext(c)
	claims, err := h.authService.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil || claims.ID == "" {
		logger.Info("logout token invalid", slog.Any("error", err))
		Unauthorized(c)
		return
	}

	key := refreshTokenBlacklistKeyPrefix + claims.ID
	if err := h.revokeRefreshToken(c.Request.Context(), key, claims.ExpiresAt); err != nil {
		logger.Error("logout revoke token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	// 清除 Cookie。
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   h.isSecure(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   strings.TrimSpace(h.opts.CookieDomain),
	})
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) replyWithTokenPair(c *gin.Context, status int, message string, recruiter database.Recruiter) {
	pair, err := h.authService.GenerateTokenPair(recruiter.ID, recruiter.Email)
	if err != nil {
		h.loggerFromContext(c).Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(status, authResponse{
		Message:     message,
		Token:       pair.AccessToken,
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.authService.AccessTokenTTL().Seconds()),
		Recruiter:   recruiterView{ID: recruiter.ID, Email: recruiter.Email},
	})
}

func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string) {
	ttl := h.authService.RefreshTokenTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    refreshToken,
		MaxAge:   int(ttl.Seconds()),
		Path:     "/",
		Secure:   h.isSecure(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   strings.TrimSpace(h.opts.CookieDomain),
		Expires:  time.Now().Add(ttl),
	})
}

func (h *AuthHandler) revokeRefreshToken(ctx context.Context, key string, expiresAt *jwt.NumericDate) error {
	if h.redis == nil {
		return nil
	}
	var ttl time.Duration
	if expiresAt == nil {
		ttl = h.authService.RefreshTokenTTL()
	} else {
		ttl = time.Until(expiresAt.Time)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return h.redis.Set(ctx, key, "revoked", ttl).Err()
}

func (h *AuthHandler) incrementLoginFail(ctx context.Context, email string) {
	if h.redis == nil || h.opts.LoginLockThreshold <= 0 {
		return
	}
	count, err := incrWithTTL(ctx, h.redis, "lock:login:fail:"+email, h.opts.LoginLockTTL)
	if err != nil {
		return
	}
	if count >= int64(h.opts.LoginLockThreshold) {
		_ = h.redis.Set(ctx, "lock:login:"+email, "1", h.opts.LoginLockTTL).Err()
	}
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	return middleware.RequestLogger(c, h.logger)
}

func (h *AuthHandler) isSecure(c *gin.Context) bool {
	if h.opts.CookieSecure {
		return true
	}
	if c.Request == nil {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
