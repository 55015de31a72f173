package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"careersite/internal/company"
	"careersite/internal/jobs"
	"careersite/internal/tasks"
)

var demoJobs = []jobs.Input{
	{Title: "Senior Backend Engineer", Location: "Berlin", JobType: "Full-time", WorkPolicy: "Hybrid", Department: "Engineering", Experience: "Senior", Description: "Own the services behind our hiring platform."},
	{Title: "Product Designer", Location: "Remote", JobType: "Full-time", WorkPolicy: "Remote", Department: "Design", Experience: "Mid-level", Description: "Shape how candidates discover us."},
	{Title: "Data Analyst Intern", Location: "Lisbon", JobType: "Internship", WorkPolicy: "On-site", Department: "Data", Experience: "Junior", Description: "Help us understand our funnel."},
	{Title: "Customer Success Manager", Location: "London", JobType: "Contract", WorkPolicy: "Hybrid", Department: "Operations", Experience: "Mid-level", SalaryRange: "£45k - £55k", Description: "Keep our customers happy."},
}

// seedDemoCompany 创建带默认区块与示例职位的公司，便于本地体验。
func seedDemoCompany(ctx context.Context, db *gorm.DB, recruiterID uint, name string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	created, err := company.NewService(db, tasks.NopEnqueuer{}, logger).Create(ctx, recruiterID, company.CreateInput{Name: name})
	if err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	rows, err := jobs.NewService(db, tasks.NopEnqueuer{}, logger).BulkCreate(ctx, recruiterID, created.ID, demoJobs)
	if err != nil {
		return fmt.Errorf("create jobs: %w", err)
	}

	fmt.Printf("演示公司: %s (/careers/%s)，职位 %d 个\n", created.Name, created.Slug, len(rows))
	return nil
}
