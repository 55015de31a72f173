package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"careersite/internal/api"
	"careersite/internal/auth"
	"careersite/internal/company"
	"careersite/internal/config"
	"careersite/internal/database"
	"careersite/internal/jobs"
	"careersite/internal/metrics"
	"careersite/internal/page"
	"careersite/internal/storage"
	"careersite/internal/tasks"
	"careersite/internal/uploads"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateDSN(ctx, cfg.Database); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
		logger.Info("database migrated")
	}

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("db", cfg.Database.Name),
	)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()
	snapshots := tasks.NewAsynqEnqueuer(asynqClient)

	storageClient, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	privPEM, pubPEM, err := cfg.Auth.Keys()
	if err != nil {
		log.Fatalf("load jwt keys: %v", err)
	}
	authService, err := auth.NewAuthService(privPEM, pubPEM, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	var scanner uploads.Scanner = uploads.NopScanner{}
	if cfg.Clamd.Enabled() {
		scanner = uploads.NewClamdScanner(cfg.Clamd.Address)
	} else {
		logger.Warn("clamd address not configured, uploads are not virus scanned")
	}

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, api.Deps{
		Config:        cfg,
		Logger:        logger,
		Redis:         redisClient,
		Notifications: api.NewRedisNotifications(redisClient),
		Auth:          authService,
		Accounts:      auth.NewAccounts(db),
		Companies:     company.NewService(db, snapshots, logger),
		Jobs:          jobs.NewService(db, snapshots, logger),
		Feed:          jobs.NewGormSource(db),
		Uploads: &uploads.Service{
			Objects: storageClient,
			Assets:  uploads.NewGormAssetStore(db),
			Processor: uploads.Processor{
				MaxBytes: cfg.API.MaxUploadBytes,
				MaxWidth: cfg.API.MaxImageWidth,
			},
			Scanner:               scanner,
			Counter:               api.NewRedisCounter(redisClient),
			Logger:                logger,
			MaxAssetsPerRecruiter: 500,
			MaxUploadsPerDay:      200,
		},
		Public:  page.NewRenderer(metrics.NewPageObserver("public")),
		Preview: page.NewRenderer(metrics.NewPageObserver("preview")),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
		}
	}()

	logger.Info("api listening", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("failed to start api server: %v", err)
	}
	logger.Info("api stopped")
}
