package page

import (
	"strings"
	"time"

	"careersite/internal/jobfeed"
)

const googleFontsBase = "https://fonts.googleapis.com/css2"

// webFonts maps hosted font names to the weights requested for them.
var webFonts = map[string]string{
	"Inter":            "400;500;600;700",
	"Poppins":          "400;500;600;700",
	"DM Sans":          "400;500;600;700",
	"Source Sans Pro":  "400;600;700",
	"Roboto":           "400;500;700",
	"Open Sans":        "400;600;700",
	"Lato":             "400;700",
	"Montserrat":       "400;500;600;700",
	"Playfair Display": "400;600;700",
	"Raleway":          "400;500;600;700",
	"Work Sans":        "400;500;600;700",
	"Nunito":           "400;600;700",
}

// FontStylesheet returns the web font stylesheet URL for the first family
// of a font stack, or "" for system and unknown fonts.
func FontStylesheet(stack string) string {
	first := strings.TrimSpace(strings.Split(stack, ",")[0])
	name := strings.Trim(first, `'"`)
	weights, ok := webFonts[name]
	if !ok {
		return ""
	}
	return googleFontsBase + "?family=" + strings.ReplaceAll(name, " ", "+") + ":wght@" + weights + "&display=swap"
}

type headView struct {
	Title       string
	Description string
	Image       string
	URL         string
	Fonts       []string
	JobPostings []jobPosting
}

type jsonLDOrganization struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

type jsonLDAddress struct {
	Type     string `json:"@type"`
	Locality string `json:"addressLocality"`
}

type jsonLDPlace struct {
	Type    string        `json:"@type"`
	Address jsonLDAddress `json:"address"`
}

type jobPosting struct {
	Context            string             `json:"@context"`
	Type               string             `json:"@type"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	DatePosted         string             `json:"datePosted,omitempty"`
	HiringOrganization jsonLDOrganization `json:"hiringOrganization"`
	JobLocation        jsonLDPlace        `json:"jobLocation"`
	EmploymentType     string             `json:"employmentType,omitempty"`
	JobLocationType    string             `json:"jobLocationType,omitempty"`
}

// EmploymentType converts a job type to its schema.org token.
func EmploymentType(t jobfeed.JobType) string {
	return strings.ToUpper(strings.Replace(string(t), "-", "_", 1))
}

func (ctx renderContext) head(title string) headView {
	c := ctx.company
	desc := strings.TrimSpace(c.Description)
	if desc == "" {
		desc = "Explore career opportunities at " + c.Name + ". Browse our open positions and join our team."
	}
	hv := headView{
		Title:       title,
		Description: desc,
		Image:       ctx.absoluteURL(ctx.logo()),
		URL:         ctx.host.CanonicalURL,
	}
	seen := map[string]bool{}
	for _, stack := range []string{ctx.theme.FontFamily, ctx.theme.HeadingFont} {
		if href := FontStylesheet(stack); href != "" && !seen[href] {
			seen[href] = true
			hv.Fonts = append(hv.Fonts, href)
		}
	}

	org := jsonLDOrganization{Type: "Organization", Name: c.Name, Logo: hv.Image}
	for _, j := range ctx.jobs.Jobs {
		posting := jobPosting{
			Context:            "https://schema.org/",
			Type:               "JobPosting",
			Title:              j.Title,
			Description:        j.Description,
			HiringOrganization: org,
			JobLocation: jsonLDPlace{
				Type:    "Place",
				Address: jsonLDAddress{Type: "PostalAddress", Locality: j.Location},
			},
			EmploymentType: EmploymentType(j.JobType),
		}
		if j.WorkPolicy == jobfeed.WorkRemote {
			posting.JobLocationType = "TELECOMMUTE"
		}
		if !j.CreatedAt.IsZero() {
			posting.DatePosted = j.CreatedAt.UTC().Format(time.RFC3339)
		}
		hv.JobPostings = append(hv.JobPostings, posting)
	}
	return hv
}
