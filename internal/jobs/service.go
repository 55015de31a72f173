// Package jobs manages the postings shown in the jobs section of a company page.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"careersite/internal/database"
	"careersite/internal/tasks"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrJobNotFound     = errors.New("job not found")
	ErrForbidden       = errors.New("not authorized")
	ErrNoJobs          = errors.New("jobs array is required")
	ErrTooManyJobs     = fmt.Errorf("at most %d jobs per request", MaxBulkJobs)
)

// MaxBulkJobs bounds one bulk create request.
const MaxBulkJobs = 200

// Input is a posting as submitted by a recruiter.
type Input struct {
	Title       string `json:"title" validate:"required,max=255"`
	Location    string `json:"location" validate:"required,max=255"`
	JobType     string `json:"jobType" validate:"required,oneof=Full-time Part-time Contract Temporary Permanent Internship"`
	Description string `json:"description" validate:"required"`
	WorkPolicy  string `json:"workPolicy" validate:"omitempty,oneof=Remote Hybrid On-site"`
	Department  string `json:"department" validate:"max=128"`
	Experience  string `json:"experienceLevel" validate:"omitempty,oneof=Junior Mid-level Senior"`
	SalaryRange string `json:"salaryRange" validate:"max=64"`
}

func (in Input) trimmed() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	in.JobType = strings.TrimSpace(in.JobType)
	in.Description = strings.TrimSpace(in.Description)
	in.WorkPolicy = strings.TrimSpace(in.WorkPolicy)
	in.Department = strings.TrimSpace(in.Department)
	in.Experience = strings.TrimSpace(in.Experience)
	in.SalaryRange = strings.TrimSpace(in.SalaryRange)
	return in
}

func (in Input) model(companyID uint) database.Job {
	policy := in.WorkPolicy
	if policy == "" {
		policy = "On-site"
	}
	return database.Job{
		CompanyID:   companyID,
		Title:       in.Title,
		Location:    in.Location,
		JobType:     in.JobType,
		Description: in.Description,
		WorkPolicy:  policy,
		Department:  in.Department,
		Experience:  in.Experience,
		SalaryRange: in.SalaryRange,
	}
}

// Service creates and deletes postings on behalf of the owning recruiter.
type Service struct {
	db        *gorm.DB
	validate  *validator.Validate
	snapshots tasks.SnapshotEnqueuer
	logger    *slog.Logger
}

// NewService returns a job service. snapshots may be nil.
func NewService(db *gorm.DB, snapshots tasks.SnapshotEnqueuer, logger *slog.Logger) *Service {
	if snapshots == nil {
		snapshots = tasks.NopEnqueuer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, validate: validator.New(), snapshots: snapshots, logger: logger}
}

// Validate checks one input. Failures are validator.ValidationErrors.
func (s *Service) Validate(in Input) error {
	return s.validate.Struct(in.trimmed())
}

func (s *Service) ownedCompany(ctx context.Context, tx *gorm.DB, recruiterID, companyID uint) error {
	var company database.Company
	err := tx.WithContext(ctx).Select("id", "recruiter_id").First(&company, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCompanyNotFound
	}
	if err != nil {
		return fmt.Errorf("load company: %w", err)
	}
	if company.RecruiterID != recruiterID {
		return ErrForbidden
	}
	return nil
}

// Create adds one posting to a company owned by recruiterID.
func (s *Service) Create(ctx context.Context, recruiterID, companyID uint, in Input) (database.Job, error) {
	created, err := s.BulkCreate(ctx, recruiterID, companyID, []Input{in})
	if err != nil {
		return database.Job{}, err
	}
	return created[0], nil
}

// BulkCreate adds all postings or none.
func (s *Service) BulkCreate(ctx context.Context, recruiterID, companyID uint, inputs []Input) ([]database.Job, error) {
	if len(inputs) == 0 {
		return nil, ErrNoJobs
	}
	if len(inputs) > MaxBulkJobs {
		return nil, ErrTooManyJobs
	}
	rows := make([]database.Job, len(inputs))
	for i, in := range inputs {
		in = in.trimmed()
		if err := s.validate.Struct(in); err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		rows[i] = in.model(companyID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ownedCompany(ctx, tx, recruiterID, companyID); err != nil {
			return err
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("create jobs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, companyID)
	return rows, nil
}

// Delete removes a posting when recruiterID owns its company.
func (s *Service) Delete(ctx context.Context, recruiterID, jobID uint) error {
	var job database.Job
	err := s.db.WithContext(ctx).First(&job, jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	if err := s.ownedCompany(ctx, s.db, recruiterID, job.CompanyID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&job).Error; err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	s.changed(ctx, job.CompanyID)
	return nil
}

// CompanyExists reports whether companyID refers to a live company.
func (s *Service) CompanyExists(ctx context.Context, companyID uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.Company{}).Where("id = ?", companyID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check company: %w", err)
	}
	return count > 0, nil
}

func (s *Service) changed(ctx context.Context, companyID uint) {
	if err := s.snapshots.EnqueueSnapshot(ctx, companyID); err != nil {
		s.logger.Warn("enqueue snapshot after job change", slog.Uint64("company_id", uint64(companyID)), slog.Any("error", err))
	}
}
