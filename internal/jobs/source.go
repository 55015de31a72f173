package jobs

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"careersite/internal/database"
	"careersite/internal/jobfeed"
)

// GormSource serves job feeds from the jobs table.
type GormSource struct {
	db *gorm.DB
}

var _ jobfeed.Source = (*GormSource)(nil)

// NewGormSource returns a jobfeed.Source backed by db.
func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

// Jobs runs req against companyID: case-insensitive substring match on
// title and location, exact job type, newest first.
func (s *GormSource) Jobs(ctx context.Context, companyID uint, req jobfeed.Request) (jobfeed.Page, error) {
	req = req.Normalize()

	q := s.db.WithContext(ctx).Model(&database.Job{}).Where("company_id = ?", companyID)
	if req.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", likePattern(req.Search))
	}
	if req.Location != "" {
		q = q.Where("LOWER(location) LIKE ?", likePattern(req.Location))
	}
	if req.JobType != "" {
		q = q.Where("job_type = ?", string(req.JobType))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return jobfeed.Page{}, fmt.Errorf("count jobs: %w", err)
	}

	var rows []database.Job
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(req.Offset()).
		Limit(req.PageSize).
		Find(&rows).Error
	if err != nil {
		return jobfeed.Page{}, fmt.Errorf("list jobs: %w", err)
	}

	out := make([]jobfeed.Job, len(rows))
	for i, row := range rows {
		out[i] = row.Feed()
	}
	return jobfeed.NewPage(req, out, total), nil
}

// likePattern lowercases term and drops LIKE wildcards so user input
// matches literally.
func likePattern(term string) string {
	term = strings.ToLower(term)
	term = strings.NewReplacer("%", "", "_", "").Replace(term)
	return "%" + term + "%"
}
