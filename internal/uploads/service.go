package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"gorm.io/gorm"

	"careersite/internal/database"
	"careersite/internal/storage"
)

var (
	ErrQuotaExceeded = errors.New("upload quota exceeded")
	ErrRateLimited   = errors.New("too many uploads today")
	ErrNotFound      = errors.New("file not found")
	ErrForbidden     = errors.New("access denied")
)

// Counter is a windowed hit counter, typically backed by redis.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// AssetStore persists the metadata rows of uploaded objects.
type AssetStore interface {
	Create(ctx context.Context, asset database.Asset) error
	CountByRecruiter(ctx context.Context, recruiterID uint) (int64, error)
	FindByKey(ctx context.Context, key string) (database.Asset, error)
	DeleteByKey(ctx context.Context, key string) error
}

// Service stores recruiter images in object storage.
type Service struct {
	Objects   storage.ObjectStore
	Assets    AssetStore
	Processor Processor
	Scanner   Scanner
	Counter   Counter
	Logger    *slog.Logger

	// MaxAssetsPerRecruiter and MaxUploadsPerDay of zero disable the checks.
	MaxAssetsPerRecruiter int64
	MaxUploadsPerDay      int64

	now func() time.Time
}

// File is one stored upload as returned to the editor.
type File struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Upload validates, scans and stores one image for recruiterID.
func (s *Service) Upload(ctx context.Context, recruiterID uint, filename string, r io.Reader) (File, error) {
	data, err := readLimited(r, s.Processor.MaxBytes)
	if err != nil {
		return File{}, err
	}

	if err := s.checkQuota(ctx, recruiterID); err != nil {
		return File{}, err
	}

	prepared, err := s.Processor.Prepare(data)
	if err != nil {
		return File{}, err
	}

	if s.Scanner != nil {
		if err := s.Scanner.Scan(ctx, prepared.Data); err != nil {
			return File{}, err
		}
	}

	key := storage.NewUploadKey(recruiterID, prepared.Ext)
	if err := s.Objects.Put(ctx, key, bytes.NewReader(prepared.Data), int64(len(prepared.Data)), prepared.ContentType); err != nil {
		return File{}, fmt.Errorf("store upload: %w", err)
	}

	asset := database.Asset{
		RecruiterID: recruiterID,
		ObjectKey:   key,
		Filename:    cleanFilename(filename),
		ContentType: prepared.ContentType,
		Size:        int64(len(prepared.Data)),
	}
	if err := s.Assets.Create(ctx, asset); err != nil {
		if delErr := s.Objects.Delete(ctx, key); delErr != nil {
			s.logger().Warn("cleanup orphan upload", slog.String("objectKey", key), slog.Any("error", delErr))
		}
		return File{}, fmt.Errorf("record upload: %w", err)
	}

	return File{URL: storage.PublicPath(key), Filename: path.Base(key)}, nil
}

func (s *Service) checkQuota(ctx context.Context, recruiterID uint) error {
	if s.MaxAssetsPerRecruiter > 0 {
		count, err := s.Assets.CountByRecruiter(ctx, recruiterID)
		if err != nil {
			return fmt.Errorf("count uploads: %w", err)
		}
		if count >= s.MaxAssetsPerRecruiter {
			return ErrQuotaExceeded
		}
	}
	if s.MaxUploadsPerDay > 0 && s.Counter != nil {
		key := fmt.Sprintf("rate:upload:%d:%s", recruiterID, s.clock().UTC().Format("20060102"))
		hits, err := s.Counter.Hit(ctx, key, 24*time.Hour)
		if err != nil {
			// 计数器不可用时放行
			s.logger().Warn("upload rate counter unavailable", slog.Any("error", err))
			return nil
		}
		if hits > s.MaxUploadsPerDay {
			return ErrRateLimited
		}
	}
	return nil
}

// Delete removes an upload owned by recruiterID.
func (s *Service) Delete(ctx context.Context, recruiterID uint, key string) error {
	if !storage.IsValidPublicUploadKey(key) {
		return ErrNotFound
	}
	if !storage.IsValidUploadKey(recruiterID, key) {
		return ErrForbidden
	}
	if _, err := s.Assets.FindByKey(ctx, key); err != nil {
		return err
	}
	if err := s.Objects.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	if err := s.Assets.DeleteByKey(ctx, key); err != nil {
		return fmt.Errorf("delete upload record: %w", err)
	}
	return nil
}

// Open streams a public upload. Only keys under the upload prefix are served.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, storage.ObjectMeta, error) {
	if !storage.IsValidPublicUploadKey(key) {
		return nil, storage.ObjectMeta{}, ErrNotFound
	}
	rc, meta, err := s.Objects.Open(ctx, key)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			return nil, storage.ObjectMeta{}, ErrNotFound
		}
		return nil, storage.ObjectMeta{}, err
	}
	return rc, meta, nil
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	return data, nil
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}

// GormAssetStore implements AssetStore on the assets table.
type GormAssetStore struct {
	db *gorm.DB
}

// NewGormAssetStore returns an AssetStore backed by db.
func NewGormAssetStore(db *gorm.DB) *GormAssetStore {
	return &GormAssetStore{db: db}
}

func (s *GormAssetStore) Create(ctx context.Context, asset database.Asset) error {
	return s.db.WithContext(ctx).Create(&asset).Error
}

func (s *GormAssetStore) CountByRecruiter(ctx context.Context, recruiterID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&database.Asset{}).Where("recruiter_id = ?", recruiterID).Count(&count).Error
	return count, err
}

func (s *GormAssetStore) FindByKey(ctx context.Context, key string) (database.Asset, error) {
	var asset database.Asset
	err := s.db.WithContext(ctx).Where("object_key = ?", key).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Asset{}, ErrNotFound
	}
	return asset, err
}

func (s *GormAssetStore) DeleteByKey(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Unscoped().Where("object_key = ?", key).Delete(&database.Asset{}).Error
}
