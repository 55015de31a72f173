// Package company persists careers page documents and applies editor changes.
package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"careersite/internal/database"
	"careersite/internal/page"
	"careersite/internal/tasks"
)

var (
	ErrNotFound        = errors.New("company not found")
	ErrForbidden       = errors.New("not authorized")
	ErrAlreadyExists   = errors.New("recruiter already has a company")
	ErrNameRequired    = errors.New("company name is required")
	ErrVersionConflict = errors.New("company was modified by another request")
	ErrSlugTaken       = errors.New("company slug is taken")
	ErrUnknownPreset   = errors.New("unknown style preset")
	ErrInvalidTheme    = errors.New("invalid theme")
)

// slugAttempts bounds the -2, -3, ... suffix search.
const slugAttempts = 50

// slugRetries bounds re-picking a slug after a unique violation on save.
const slugRetries = 3

// errSlugClash marks a save rejected by the slug unique index.
var errSlugClash = errors.New("slug unique violation")

// Company is a stored careers page document with its ownership metadata.
type Company struct {
	page.Company
	RecruiterID     uint      `json:"recruiterId"`
	Version         int       `json:"version"`
	PreviewImageURL string    `json:"previewImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func fromRecord(rec database.Company) (Company, error) {
	doc, err := rec.Document()
	if err != nil {
		return Company{}, err
	}
	return Company{
		Company:         doc,
		RecruiterID:     rec.RecruiterID,
		Version:         rec.Version,
		PreviewImageURL: rec.PreviewImageURL,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}, nil
}

// Summary is the public directory entry of a company.
type Summary struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	LogoURL      string    `json:"logoUrl"`
	BannerURL    string    `json:"bannerUrl"`
	PrimaryColor string    `json:"primaryColor"`
	HeroTitle    string    `json:"heroTitle"`
	HeroSubtitle string    `json:"heroSubtitle"`
	JobCount     int64     `json:"jobCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Service is the company repository plus the editor operations on it.
type Service struct {
	db        *gorm.DB
	snapshots tasks.SnapshotEnqueuer
	logger    *slog.Logger
	newID     page.IDFunc
}

// NewService returns a company service. snapshots may be nil.
func NewService(db *gorm.DB, snapshots tasks.SnapshotEnqueuer, logger *slog.Logger) *Service {
	if snapshots == nil {
		snapshots = tasks.NopEnqueuer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, snapshots: snapshots, logger: logger, newID: page.NewSectionID}
}

// CreateInput is the body of a create request. Theme and Sections are optional.
type CreateInput struct {
	Name     string              `json:"name"`
	Theme    json.RawMessage     `json:"theme"`
	Sections []page.SectionInput `json:"sections"`
}

// Create makes the single company of recruiterID.
func (s *Service) Create(ctx context.Context, recruiterID uint, in CreateInput) (Company, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Company{}, ErrNameRequired
	}

	theme, err := page.MergeThemeJSON(page.DefaultTheme(), in.Theme)
	if err != nil {
		return Company{}, fmt.Errorf("%w: %v", ErrInvalidTheme, err)
	}
	sections := DefaultSections()
	if in.Sections != nil {
		sections, err = page.ValidateSections(in.Sections)
		if err != nil {
			return Company{}, err
		}
	}

	var rec database.Company
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.Company{}).Where("recruiter_id = ?", recruiterID).Count(&count).Error; err != nil {
			return fmt.Errorf("check existing company: %w", err)
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		slug, err := s.uniqueSlug(tx, Slugify(name), 0)
		if err != nil {
			return err
		}

		rec = database.Company{RecruiterID: recruiterID, Version: 1}
		doc := page.Company{
			Name:     name,
			Slug:     slug,
			Theme:    theme.WithDefaults(),
			Content:  page.DefaultContent(),
			Sections: sections,
		}
		if err := rec.SetDocument(doc); err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("create company: %w", err)
		}
		return nil
	})
	if err != nil {
		return Company{}, err
	}

	s.changed(ctx, rec.ID)
	return fromRecord(rec)
}

// uniqueSlug returns base or the first free base-N. excludeID lets a
// company keep its own slug on rename.
func (s *Service) uniqueSlug(tx *gorm.DB, base string, excludeID uint) (string, error) {
	for n := 1; n <= slugAttempts; n++ {
		candidate := withSuffix(base, n)
		var count int64
		q := tx.Unscoped().Model(&database.Company{}).Where("slug = ?", candidate)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return withSuffix(base, int(time.Now().Unix())), nil
}

func (s *Service) load(ctx context.Context, q func(*gorm.DB) *gorm.DB) (database.Company, error) {
	var rec database.Company
	err := q(s.db.WithContext(ctx)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Company{}, ErrNotFound
	}
	if err != nil {
		return database.Company{}, fmt.Errorf("load company: %w", err)
	}
	return rec, nil
}

// Get loads a company by id regardless of owner.
func (s *Service) Get(ctx context.Context, id uint) (Company, error) {
	rec, err := s.load(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("id = ?", id) })
	if err != nil {
		return Company{}, err
	}
	return fromRecord(rec)
}

// Mine loads the company of recruiterID.
func (s *Service) Mine(ctx context.Context, recruiterID uint) (Company, error) {
	rec, err := s.load(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("recruiter_id = ?", recruiterID) })
	if err != nil {
		return Company{}, err
	}
	return fromRecord(rec)
}

// Owned loads companyID and checks that recruiterID owns it.
func (s *Service) Owned(ctx context.Context, recruiterID, companyID uint) (Company, error) {
	c, err := s.Get(ctx, companyID)
	if err != nil {
		return Company{}, err
	}
	if c.RecruiterID != recruiterID {
		return Company{}, ErrForbidden
	}
	return c, nil
}

// BySlug loads the company published at slug.
func (s *Service) BySlug(ctx context.Context, slug string) (Company, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	rec, err := s.load(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("slug = ?", slug) })
	if err != nil {
		return Company{}, err
	}
	return fromRecord(rec)
}

type jobCount struct {
	CompanyID uint
	Count     int64
}

// ListPublic returns the companies that have at least one open job,
// most recently created first.
func (s *Service) ListPublic(ctx context.Context) ([]Summary, error) {
	var counts []jobCount
	err := s.db.WithContext(ctx).Model(&database.Job{}).
		Select("company_id, COUNT(*) AS count").
		Group("company_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	byCompany := make(map[uint]int64, len(counts))
	ids := make([]uint, 0, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			byCompany[c.CompanyID] = c.Count
			ids = append(ids, c.CompanyID)
		}
	}
	out := make([]Summary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var recs []database.Company
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	for _, rec := range recs {
		doc, err := rec.Document()
		if err != nil {
			s.logger.Warn("skip undecodable company", slog.Uint64("company_id", uint64(rec.ID)), slog.Any("error", err))
			continue
		}
		logo := doc.LogoURL
		if logo == "" {
			logo = doc.Theme.LogoURL
		}
		banner := doc.BannerURL
		if banner == "" {
			banner = doc.Theme.BannerURL
		}
		out = append(out, Summary{
			ID:           rec.ID,
			Name:         doc.Name,
			Slug:         doc.Slug,
			LogoURL:      logo,
			BannerURL:    banner,
			PrimaryColor: doc.Theme.PrimaryColor,
			HeroTitle:    doc.Content.HeroTitle,
			HeroSubtitle: doc.Content.HeroSubtitle,
			JobCount:     byCompany[rec.ID],
			CreatedAt:    rec.CreatedAt,
		})
	}
	return out, nil
}

// SetPreviewImage stores a snapshot URL unless the document moved past
// version in the meantime. It reports whether the row was updated.
func (s *Service) SetPreviewImage(ctx context.Context, companyID uint, version int, url string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&database.Company{}).
		Where("id = ? AND version = ?", companyID, version).
		UpdateColumn("preview_image_url", url)
	if res.Error != nil {
		return false, fmt.Errorf("set preview image: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// save writes doc over rec with an optimistic version check and bumps the version.
// A renamed company that loses its new slug to a concurrent writer picks
// the next free one, up to slugRetries times.
func (s *Service) save(ctx context.Context, rec database.Company, doc page.Company) (Company, error) {
	renamed := doc.Slug != rec.Slug
	for attempt := 0; ; attempt++ {
		out, err := s.write(ctx, rec, doc)
		if !errors.Is(err, errSlugClash) {
			return out, err
		}
		if !renamed {
			return Company{}, ErrVersionConflict
		}
		if attempt == slugRetries {
			return Company{}, ErrSlugTaken
		}
		if doc.Slug, err = s.uniqueSlug(s.db.WithContext(ctx), Slugify(doc.Name), rec.ID); err != nil {
			return Company{}, err
		}
	}
}

func (s *Service) write(ctx context.Context, rec database.Company, doc page.Company) (Company, error) {
	prev := rec.Version
	if err := rec.SetDocument(doc); err != nil {
		return Company{}, err
	}
	rec.Touch()

	res := s.db.WithContext(ctx).Model(&database.Company{}).
		Where("id = ? AND version = ?", rec.ID, prev).
		Updates(map[string]any{
			"name":         rec.Name,
			"slug":         rec.Slug,
			"description":  rec.Description,
			"logo_url":     rec.LogoURL,
			"banner_url":   rec.BannerURL,
			"theme":        rec.Theme,
			"content":      rec.Content,
			"social_links": rec.SocialLinks,
			"sections":     rec.Sections,
			"version":      rec.Version,
		})
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error) {
			return Company{}, errSlugClash
		}
		return Company{}, fmt.Errorf("save company: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Company{}, ErrVersionConflict
	}

	s.changed(ctx, rec.ID)
	fresh, err := s.load(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("id = ?", rec.ID) })
	if err != nil {
		return Company{}, err
	}
	return fromRecord(fresh)
}

func (s *Service) ownedRecord(ctx context.Context, recruiterID, companyID uint, expectedVersion *int) (database.Company, error) {
	rec, err := s.load(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("id = ?", companyID) })
	if err != nil {
		return database.Company{}, err
	}
	if rec.RecruiterID != recruiterID {
		return database.Company{}, ErrForbidden
	}
	if expectedVersion != nil && *expectedVersion != rec.Version {
		return database.Company{}, ErrVersionConflict
	}
	return rec, nil
}

func (s *Service) changed(ctx context.Context, companyID uint) {
	if err := s.snapshots.EnqueueSnapshot(ctx, companyID); err != nil {
		s.logger.Warn("enqueue snapshot", slog.Uint64("company_id", uint64(companyID)), slog.Any("error", err))
	}
}
