package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"careersite/internal/company"
	"careersite/internal/config"
	"careersite/internal/database"
	"careersite/internal/jobs"
	"careersite/internal/metrics"
	"careersite/internal/page"
	"careersite/internal/storage"
	"careersite/internal/tasks"
	"careersite/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	storageClient, err := storage.NewClient(context.Background(), cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues:      map[string]int{tasks.QueueSnapshots: 1},
	})

	snapshotHandler := worker.NewSnapshotHandler(
		company.NewService(db, tasks.NopEnqueuer{}, logger),
		jobs.NewGormSource(db),
		page.NewRenderer(metrics.NewPageObserver("snapshot")),
		worker.NewRodScreenshotter(logger, cfg.Worker.BrowserBin),
		storageClient,
		worker.NewRedisNotifier(redisClient),
		logger,
		worker.SnapshotConfig{
			Quality:      cfg.Worker.SnapshotQuality,
			PresignTTL:   7 * 24 * time.Hour,
			AssetBaseURL: cfg.API.AssetBaseURL,
		},
	)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeCompanySnapshot, snapshotHandler)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
