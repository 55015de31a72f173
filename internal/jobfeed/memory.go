package jobfeed

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemorySource is an in-process Source backed by fixed job lists. Tests
// use it in place of the database.
type MemorySource struct {
	mu   sync.RWMutex
	jobs map[uint][]Job
}

// NewMemorySource returns an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{jobs: map[uint][]Job{}}
}

// Put replaces the jobs of a company.
func (m *MemorySource) Put(companyID uint, jobs []Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[companyID] = append([]Job(nil), jobs...)
}

// Jobs implements Source.
func (m *MemorySource) Jobs(_ context.Context, companyID uint, req Request) (Page, error) {
	m.mu.RLock()
	jobs := append([]Job(nil), m.jobs[companyID]...)
	m.mu.RUnlock()
	return Filter(jobs, req), nil
}

// Filter applies the query semantics of the database source to an
// in-memory list: case-insensitive substring on title and location,
// exact job type, newest first, then offset pagination.
func Filter(jobs []Job, req Request) Page {
	req = req.Normalize()
	search := strings.ToLower(req.Search)
	location := strings.ToLower(req.Location)

	matched := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if search != "" && !strings.Contains(strings.ToLower(j.Title), search) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(j.Location), location) {
			continue
		}
		if req.JobType != "" && j.JobType != req.JobType {
			continue
		}
		matched = append(matched, j)
	}
	sort.SliceStable(matched, func(a, b int) bool {
		if matched[a].CreatedAt.Equal(matched[b].CreatedAt) {
			return matched[a].ID > matched[b].ID
		}
		return matched[a].CreatedAt.After(matched[b].CreatedAt)
	})

	total := int64(len(matched))
	start := req.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + req.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return NewPage(req, matched[start:end], total)
}
