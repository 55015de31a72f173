package company

import "careersite/internal/page"

// DefaultSections is the layout of a newly created company page.
func DefaultSections() page.Sections {
	return page.Sections{
		{ID: "hero-1", Kind: page.KindHero, Title: "Join Our Team", Subtitle: "Build the future with us", Enabled: true, Order: 0},
		{ID: "about-1", Kind: page.KindText, Title: "About Us", Content: "We are a team dedicated to excellence and innovation.", Enabled: true, Order: 1},
		{ID: "culture-1", Kind: page.KindText, Title: "Our Culture", Content: "Experience what it's like to work with us.", Enabled: true, Order: 2},
		{ID: "jobs-1", Kind: page.KindJobs, Title: "Open Positions", Subtitle: "Find the role that fits you best", Enabled: true, Order: 3},
	}
}
