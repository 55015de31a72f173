package page

import (
	"html/template"
	"strconv"
	"strings"

	"careersite/internal/jobfeed"
)

// Empty-state copy of the jobs section.
const (
	NoJobsMessage      = "No open positions at the moment."
	NoMatchingMessage  = "No jobs found."
	paginationMaxShown = 5
)

type jobCardView struct {
	ID          uint
	Title       string
	Location    string
	JobType     string
	WorkPolicy  string
	Department  string
	Description string
}

type filterOption struct {
	Value    string
	Selected bool
}

type filterView struct {
	Action      string
	Search      string
	Location    string
	Options     []filterOption
	ClearHref   string
	ButtonClass string
	ButtonStyle template.CSS
}

type pageLink struct {
	Label    string
	Number   int
	Href     string
	Style    template.CSS
	Current  bool
	Disabled bool
	Ellipsis bool
}

type paginationView struct {
	Prev  pageLink
	Next  pageLink
	Items []pageLink
}

type jobsView struct {
	frame
	Gap          string
	Jobs         []jobCardView
	CardStyle    template.CSS
	MetaStyle    template.CSS
	ButtonClass  string
	ButtonStyle  template.CSS
	EmptyMessage string
	EmptyStyle   template.CSS
	Filters      *filterView
	Pagination   *paginationView
}

func (ctx renderContext) jobsSection(f frame, colors Colors) jobsView {
	paint := ctx.button(colors)
	feed := ctx.jobs
	req := feed.Request

	v := jobsView{
		frame: f,
		Gap:   ctx.spacing.Gap,
		CardStyle: styleOf(
			Decl{"background-color", cssValue(colors.Background)},
			Decl{"border-radius", cssValue(ctx.theme.BorderRadius)},
			Decl{"border-color", cssValue(AddAlpha(colors.Text, 0.1))},
		),
		MetaStyle:    styleOf(Decl{"color", cssValue(colors.Text)}),
		ButtonClass:  paint.Class,
		ButtonStyle:  paintStyle(paint),
		EmptyMessage: NoJobsMessage,
		EmptyStyle:   styleOf(Decl{"border-color", cssValue(AddAlpha(colors.Text, 0.2))}),
	}
	if req.HasFilters() {
		v.EmptyMessage = NoMatchingMessage
	}
	for _, j := range feed.Jobs {
		v.Jobs = append(v.Jobs, jobCardView{
			ID:          j.ID,
			Title:       j.Title,
			Location:    j.Location,
			JobType:     string(j.JobType),
			WorkPolicy:  j.WorkPolicy,
			Department:  j.Department,
			Description: truncate(j.Description, descriptionLimit),
		})
	}
	if ctx.host.JobsMode == JobsLinked {
		v.Filters = ctx.filters(req, paint)
	}
	v.Pagination = ctx.pagination(feed, colors)
	return v
}

func (ctx renderContext) filters(req jobfeed.Request, paint ButtonPaint) *filterView {
	fv := &filterView{
		Action:      ctx.pageURL(),
		Search:      req.Search,
		Location:    req.Location,
		ButtonClass: paint.Class,
		ButtonStyle: paintStyle(paint),
	}
	for _, t := range jobfeed.JobTypes {
		fv.Options = append(fv.Options, filterOption{Value: string(t), Selected: t == req.JobType})
	}
	if req.HasFilters() {
		fv.ClearHref = ctx.pageURL()
	}
	return fv
}

func (ctx renderContext) pageURL() string {
	if ctx.host.PageURL == "" {
		return "#"
	}
	return ctx.host.PageURL
}

// linkFor builds the href of page n keeping the current filters.
func (ctx renderContext) linkFor(req jobfeed.Request, n int) string {
	if ctx.host.JobsMode != JobsLinked {
		return ""
	}
	q := req.WithPage(n).Values().Encode()
	base := ctx.pageURL()
	if q == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q
}

func (ctx renderContext) pagination(feed jobfeed.Page, colors Colors) *paginationView {
	current := feed.Page
	total := feed.Pages
	if total <= 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	req := feed.Request

	idle := styleOf(Decl{"color", cssValue(colors.Text)}, Decl{"border-radius", cssValue(ctx.theme.BorderRadius)})
	active := styleOf(
		Decl{"background-color", cssValue(colors.Accent)},
		Decl{"color", "#fff"},
		Decl{"border-radius", cssValue(ctx.theme.BorderRadius)},
	)

	pv := &paginationView{
		Prev: pageLink{Label: "Previous", Number: current - 1, Href: ctx.linkFor(req, current-1), Style: idle, Disabled: current == 1},
		Next: pageLink{Label: "Next", Number: current + 1, Href: ctx.linkFor(req, current+1), Style: idle, Disabled: current == total},
	}
	for _, n := range PageWindow(current, total) {
		if n == 0 {
			pv.Items = append(pv.Items, pageLink{Ellipsis: true})
			continue
		}
		link := pageLink{Label: strconv.Itoa(n), Number: n, Href: ctx.linkFor(req, n), Style: idle, Current: n == current}
		if link.Current {
			link.Style = active
		}
		pv.Items = append(pv.Items, link)
	}
	return pv
}

// PageWindow lists the page numbers a pager shows for current of total.
// A zero marks an ellipsis. Up to five pages are listed in full; beyond
// that the first and last pages stay visible around a window on current.
func PageWindow(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total <= paginationMaxShown {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}
	switch {
	case current <= 3:
		return []int{1, 2, 3, 4, 0, total}
	case current >= total-2:
		return []int{1, 0, total - 3, total - 2, total - 1, total}
	default:
		return []int{1, 0, current - 1, current, current + 1, 0, total}
	}
}
