package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"careersite/internal/api/middleware"
	"careersite/internal/auth"
	"careersite/internal/company"
	"careersite/internal/config"
	"careersite/internal/jobfeed"
	"careersite/internal/jobs"
	"careersite/internal/page"
	"careersite/internal/uploads"
)

// Deps 汇总注册路由所需的服务。Redis 为 nil 时禁用登录限流，Notifications 为 nil 时不注册 /v1/ws。
type Deps struct {
	Config        *config.Config
	Logger        *slog.Logger
	Redis         redis.UniversalClient
	Notifications NotificationSource
	Auth          *auth.AuthService
	Accounts      *auth.Accounts
	Companies     *company.Service
	Jobs          *jobs.Service
	Feed          jobfeed.Source
	Uploads       *uploads.Service
	// Public 渲染 /careers 页面，Preview 渲染所有者预览与编辑器实时预览。
	Public  *page.Renderer
	Preview *page.Renderer
}

// RegisterRoutes 注册 API 与页面路由。
func RegisterRoutes(router *gin.Engine, d Deps) {
	cfg := d.Config.API
	authHandler := NewAuthHandler(d.Accounts, d.Auth, d.Redis, d.Logger, AuthOptions{
		LoginRateLimitPerHour: cfg.LoginRateLimit,
		LoginLockThreshold:    cfg.LoginMaxFailures,
		CookieDomain:          d.Config.Auth.CookieDomain,
		CookieSecure:          d.Config.Auth.CookieSecure,
	})
	companyHandler := NewCompanyHandler(d.Companies, d.Logger)
	jobsHandler := NewJobsHandler(d.Jobs, d.Feed, d.Logger, cfg.JobsPageSize)
	pageHandler := NewPageHandler(d.Companies, d.Feed, d.Public, d.Preview, d.Logger, PageOptions{
		PublicBaseURL: cfg.PublicBaseURL,
		AssetBaseURL:  cfg.AssetBaseURL,
		PageSize:      cfg.JobsPageSize,
	})
	uploadsHandler := NewUploadsHandler(d.Uploads, d.Logger, cfg.MaxUploadBytes)
	authMiddleware := middleware.AuthMiddleware(d.Auth)

	router.GET("/careers/:slug", pageHandler.Careers)
	router.GET("/preview/:id", authMiddleware, pageHandler.Preview)
	router.GET("/uploads/*key", uploadsHandler.Serve)

	v1 := router.Group("/v1")
	{
		if d.Notifications != nil {
			wsHandler := NewWsHandler(d.Auth, d.Notifications, d.Logger, cfg.CORSOrigins)
			v1.GET("/ws", wsHandler.HandleConnection)
		}

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/me", authMiddleware, authHandler.Me)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		v1.GET("/presets", companyHandler.Presets)
		v1.GET("/companies/public", companyHandler.ListPublic)
		v1.GET("/companies/public/:slug", companyHandler.GetBySlug)
		v1.GET("/companies/:id/jobs", jobsHandler.Feed)
		v1.GET("/jobs/public/:companyId", jobsHandler.Feed)

		companyGroup := v1.Group("/companies")
		companyGroup.Use(authMiddleware)
		{
			companyGroup.POST("", companyHandler.Create)
			companyGroup.GET("/me", companyHandler.Mine)
			companyGroup.PATCH("/:id", companyHandler.Update)
			companyGroup.PUT("/:id", companyHandler.Update)

			companyGroup.PUT("/:id/sections", companyHandler.ReplaceSections)
			companyGroup.POST("/:id/sections", companyHandler.AddSection)
			companyGroup.PATCH("/:id/sections/:sid", companyHandler.UpdateSectionFields)
			companyGroup.DELETE("/:id/sections/:sid", companyHandler.RemoveSection)
			companyGroup.POST("/:id/sections/:sid/move", companyHandler.MoveSection)
			companyGroup.POST("/:id/sections/:sid/toggle", companyHandler.ToggleSection)
			companyGroup.PATCH("/:id/sections/:sid/config", companyHandler.UpdateSectionConfig)
			companyGroup.PATCH("/:id/sections/:sid/theme", companyHandler.UpdateSectionTheme)

			companyGroup.POST("/:id/jobs", jobsHandler.Create)
			companyGroup.POST("/:id/jobs/bulk", jobsHandler.BulkCreate)
			companyGroup.POST("/:id/preview/render", pageHandler.RenderDraft)
		}

		v1.DELETE("/jobs/:jobId", authMiddleware, jobsHandler.Delete)

		uploadGroup := v1.Group("/uploads")
		uploadGroup.Use(authMiddleware)
		{
			uploadGroup.POST("", uploadsHandler.Upload)
			uploadGroup.POST("/multiple", uploadsHandler.UploadMultiple)
			uploadGroup.DELETE("/*key", uploadsHandler.Delete)
		}
	}
}
