package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"careersite/internal/company"
	"careersite/internal/errcode"
	"careersite/internal/jobfeed"
	"careersite/internal/page"
	"careersite/internal/storage"
	"careersite/internal/tasks"
)

// CompanyStore 是快照任务用到的公司仓储能力，由 *company.Service 实现。
type CompanyStore interface {
	Get(ctx context.Context, id uint) (company.Company, error)
	SetPreviewImage(ctx context.Context, companyID uint, version int, url string) (bool, error)
}

// SnapshotConfig 是快照任务的可调参数。
type SnapshotConfig struct {
	Quality      int
	PresignTTL   time.Duration
	AssetBaseURL string
}

// SnapshotHandler 负责消费 company:snapshot 任务：渲染页面、截图、上传并回写预览地址。
type SnapshotHandler struct {
	companies CompanyStore
	jobs      jobfeed.Source
	renderer  *page.Renderer
	shooter   Screenshotter
	objects   storage.ObjectStore
	notifier  Notifier
	logger    *slog.Logger
	cfg       SnapshotConfig
	now       func() time.Time
}

// NewSnapshotHandler 创建任务处理器。
func NewSnapshotHandler(
	companies CompanyStore,
	jobs jobfeed.Source,
	renderer *page.Renderer,
	shooter Screenshotter,
	objects storage.ObjectStore,
	notifier Notifier,
	logger *slog.Logger,
	cfg SnapshotConfig,
) *SnapshotHandler {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 80
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 7 * 24 * time.Hour
	}
	return &SnapshotHandler{
		companies: companies,
		jobs:      jobs,
		renderer:  renderer,
		shooter:   shooter,
		objects:   objects,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *SnapshotHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	payload, err := tasks.ParseCompanySnapshotPayload(t)
	if err != nil {
		h.logger.Error("parse snapshot payload failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("company_id", uint64(payload.CompanyID)),
	)
	log.Info("Starting company snapshot task...")

	c, err := h.companies.Get(ctx, payload.CompanyID)
	if errors.Is(err, company.ErrNotFound) {
		log.Warn("company not found, skipping task")
		return nil
	}
	if err != nil {
		log.Error("load company failed", slog.Any("error", err))
		return err
	}
	log = log.With(slog.Uint64("recruiter_id", uint64(c.RecruiterID)), slog.Int("version", c.Version))

	code := errcode.SystemError
	defer func() {
		if retErr == nil || !isFinalAsynqAttempt(ctx) {
			return
		}
		msg := h.message(c, payload.CorrelationID)
		msg.Status = SnapshotError
		msg.ErrorCode = code
		msg.ErrorMessage = strings.TrimSpace(retErr.Error())
		if err := h.notifier.Notify(ctx, c.RecruiterID, msg); err != nil {
			log.Error("publish snapshot error notification failed", slog.Any("error", err))
		}
	}()

	feed, err := h.jobs.Jobs(ctx, c.ID, jobfeed.Request{}.Normalize())
	if err != nil {
		log.Warn("load jobs failed, rendering without jobs", slog.Any("error", err))
		feed = jobfeed.NewPage(jobfeed.Request{}.Normalize(), nil, 0)
	}

	doc := h.renderer.Render(page.Input{
		Company: c.Company,
		Jobs:    feed,
		Host:    page.Host{AssetBaseURL: h.cfg.AssetBaseURL, JobsMode: page.JobsLinked},
		Year:    h.now().Year(),
	})

	shot, err := h.shooter.Capture(ctx, doc.HTML(), h.cfg.Quality)
	if err != nil {
		code = errcode.BrowserFailed
		log.Error("capture snapshot failed", slog.Any("error", err))
		return err
	}

	key := storage.SnapshotKey(c.ID, c.Version)
	if err := h.objects.Put(ctx, key, bytes.NewReader(shot), int64(len(shot)), "image/jpeg"); err != nil {
		code = errcode.StorageFailed
		log.Error("upload snapshot failed", slog.Any("error", err))
		return err
	}
	url, err := h.objects.PresignedURL(ctx, key, h.cfg.PresignTTL)
	if err != nil {
		code = errcode.StorageFailed
		log.Error("presign snapshot failed", slog.Any("error", err))
		return err
	}

	msg := h.message(c, payload.CorrelationID)
	updated, err := h.companies.SetPreviewImage(ctx, c.ID, c.Version, url)
	if err != nil {
		log.Error("store preview url failed", slog.Any("error", err))
		return err
	}
	if !updated {
		// 截图期间文档又被保存过，新的任务会生成对应版本的截图
		log.Info("company changed during snapshot, discarding result")
		if err := h.objects.Delete(ctx, key); err != nil {
			log.Warn("delete superseded snapshot failed", slog.Any("error", err))
		}
		msg.Status = SnapshotError
		msg.ErrorCode = errcode.Superseded
		msg.ErrorMessage = "page changed while the preview was rendering"
	} else {
		msg.PreviewImageURL = url
		h.pruneOlder(ctx, log, c.ID, key)
	}

	if err := h.notifier.Notify(ctx, c.RecruiterID, msg); err != nil {
		log.Warn("publish snapshot notification failed", slog.Any("error", err))
	}
	log.Info("Company snapshot task completed.", slog.Bool("stored", updated))
	return nil
}

func (h *SnapshotHandler) message(c company.Company, correlationID string) SnapshotNotifyMessage {
	return SnapshotNotifyMessage{
		Type:          tasks.TypeCompanySnapshot,
		Status:        SnapshotCompleted,
		CompanyID:     c.ID,
		Version:       c.Version,
		CorrelationID: correlationID,
		ErrorCode:     errcode.OK,
	}
}

// prefixLister 是可以按前缀列举对象的存储，*storage.Client 实现了它。
type prefixLister interface {
	List(ctx context.Context, prefix string, limit int) ([]storage.ObjectMeta, error)
}

// pruneOlder 删除同一公司旧版本的截图，失败只记录日志。
func (h *SnapshotHandler) pruneOlder(ctx context.Context, log *slog.Logger, companyID uint, keep string) {
	lister, ok := h.objects.(prefixLister)
	if !ok {
		return
	}
	objects, err := lister.List(ctx, storage.SnapshotPrefix(companyID), 100)
	if err != nil {
		log.Warn("list old snapshots failed", slog.Any("error", err))
		return
	}
	for _, obj := range objects {
		if obj.Key == keep {
			continue
		}
		if err := h.objects.Delete(ctx, obj.Key); err != nil {
			log.Warn("delete old snapshot failed", slog.String("key", obj.Key), slog.Any("error", err))
		}
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
