// Package jobfeed supplies paginated, filtered job listings to the jobs
// section of a careers page.
package jobfeed

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// JobType is the employment type of a posting.
type JobType string

const (
	FullTime   JobType = "Full-time"
	PartTime   JobType = "Part-time"
	Contract   JobType = "Contract"
	Temporary  JobType = "Temporary"
	Permanent  JobType = "Permanent"
	Internship JobType = "Internship"
)

// JobTypes lists every job type in filter menu order.
var JobTypes = []JobType{FullTime, PartTime, Contract, Temporary, Permanent, Internship}

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	for _, known := range JobTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Job is the read model of a posting as shown on a careers page.
type Job struct {
	ID          uint      `json:"id"`
	CompanyID   uint      `json:"companyId"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	JobType     JobType   `json:"jobType"`
	Description string    `json:"description"`
	WorkPolicy  string    `json:"workPolicy,omitempty"`
	Department  string    `json:"department,omitempty"`
	Experience  string    `json:"experienceLevel,omitempty"`
	SalaryRange string    `json:"salaryRange,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Work policies a posting may declare.
const (
	WorkRemote = "Remote"
	WorkHybrid = "Hybrid"
	WorkOnSite = "On-site"
)

const (
	DefaultPageSize = 9
	MaxPageSize     = 50
	// MaxPage keeps (Page-1)*PageSize within 32 bits.
	MaxPage         = math.MaxInt32 / MaxPageSize
)

// Filters are the user-controlled narrowing fields of a request.
type Filters struct {
	Search   string
	Location string
	JobType  JobType
}

// Request asks for one page of a company's jobs.
type Request struct {
	Search   string  `json:"search"`
	Location string  `json:"location"`
	JobType  JobType `json:"jobType"`
	Page     int     `json:"page"`
	PageSize int     `json:"limit"`
}

// Normalize trims the filters and clamps page and page size.
func (r Request) Normalize() Request {
	r.Search = strings.TrimSpace(r.Search)
	r.Location = strings.TrimSpace(r.Location)
	r.JobType = JobType(strings.TrimSpace(string(r.JobType)))
	if !r.JobType.Valid() {
		r.JobType = ""
	}
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Page > MaxPage {
		r.Page = MaxPage
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	return r
}

// Offset is the number of matching jobs before the requested page.
func (r Request) Offset() int {
	r = r.Normalize()
	return (r.Page - 1) * r.PageSize
}

// Filters returns the filter part of r.
func (r Request) Filters() Filters {
	return Filters{Search: r.Search, Location: r.Location, JobType: r.JobType}
}

// HasFilters reports whether any filter narrows the listing.
func (r Request) HasFilters() bool {
	return r.Filters() != Filters{}
}

// WithFilters replaces the filters. A change to any filter resets the
// page to 1.
func (r Request) WithFilters(f Filters) Request {
	if f != r.Filters() {
		r.Page = 1
	}
	r.Search, r.Location, r.JobType = f.Search, f.Location, f.JobType
	return r
}

// WithPage returns r asking for page p.
func (r Request) WithPage(p int) Request {
	r.Page = p
	return r
}

// Reconcile builds the request that follows prev when the client submits
// next. If the filters differ the page is reset to 1.
func Reconcile(prev, next Request) Request {
	prev, next = prev.Normalize(), next.Normalize()
	out := prev.WithPage(next.Page).WithFilters(next.Filters())
	out.PageSize = next.PageSize
	return out.Normalize()
}

// ParseRequest reads search, location, jobType, page and limit from a query.
func ParseRequest(q url.Values) Request {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return Request{
		Search:   q.Get("search"),
		Location: q.Get("location"),
		JobType:  JobType(q.Get("jobType")),
		Page:     page,
		PageSize: limit,
	}.Normalize()
}

// Values encodes r as query parameters. Empty filters are omitted.
func (r Request) Values() url.Values {
	v := url.Values{}
	if r.Search != "" {
		v.Set("search", r.Search)
	}
	if r.Location != "" {
		v.Set("location", r.Location)
	}
	if r.JobType != "" {
		v.Set("jobType", string(r.JobType))
	}
	if r.Page > 1 {
		v.Set("page", strconv.Itoa(r.Page))
	}
	if r.PageSize > 0 && r.PageSize != DefaultPageSize {
		v.Set("limit", strconv.Itoa(r.PageSize))
	}
	return v
}

// Page is one page of results.
type Page struct {
	Jobs    []Job   `json:"jobs"`
	Total   int64   `json:"total"`
	Page    int     `json:"page"`
	Pages   int     `json:"pages"`
	Request Request `json:"-"`
}

// PageCount is ceil(total/size).
func PageCount(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// NewPage assembles a page for req out of the matching jobs and total.
func NewPage(req Request, jobs []Job, total int64) Page {
	if jobs == nil {
		jobs = []Job{}
	}
	return Page{
		Jobs:    jobs,
		Total:   total,
		Page:    req.Page,
		Pages:   PageCount(total, req.PageSize),
		Request: req,
	}
}

// Source executes job queries for a company.
type Source interface {
	Jobs(ctx context.Context, companyID uint, req Request) (Page, error)
}
