package page

import (
	"bytes"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"careersite/internal/jobfeed"
)

// Content holds the legacy hero copy of documents created before sections.
type Content struct {
	HeroTitle    string `json:"heroTitle"`
	HeroSubtitle string `json:"heroSubtitle"`
}

// DefaultContent is the legacy hero copy of a new company.
func DefaultContent() Content {
	return Content{HeroTitle: "Join Our Team", HeroSubtitle: "Build the future with us"}
}

// SocialLinks maps platform names to profile URLs.
type SocialLinks struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Website   string `json:"website,omitempty"`
}

// Company is the document the renderer turns into a page.
type Company struct {
	ID          uint        `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	LogoURL     string      `json:"logoUrl"`
	BannerURL   string      `json:"bannerUrl"`
	SocialLinks SocialLinks `json:"socialLinks"`
	Theme       Theme       `json:"theme"`
	Content     Content     `json:"content"`
	Sections    Sections    `json:"sections"`
}

// JobsMode selects how the jobs section exposes filters and paging.
type JobsMode int

const (
	// JobsInteractive renders paging as buttons carrying data-page for a
	// client-side host such as the editor preview.
	JobsInteractive JobsMode = iota
	// JobsLinked renders a GET filter form and paging links.
	JobsLinked
)

// Host describes where a page is being shown.
type Host struct {
	// AssetBaseURL resolves path-rooted image URLs ("/uploads/...").
	AssetBaseURL string
	// PageURL is the link target for filters and paging in JobsLinked mode.
	PageURL string
	// CanonicalURL is emitted as og:url when set.
	CanonicalURL string
	JobsMode     JobsMode
	// SEO adds description, OpenGraph and JobPosting metadata to the head.
	SEO bool
}

// Input is everything a render depends on.
type Input struct {
	Company Company
	Jobs    jobfeed.Page
	Host    Host
	Year    int
}

// Document is a rendered page.
type Document struct {
	Title string
	Head  template.HTML
	Body  template.HTML
}

// HTML returns the complete HTML document.
func (d Document) HTML() []byte {
	var buf bytes.Buffer
	if err := documentTemplate.ExecuteTemplate(&buf, "document", d); err != nil {
		return []byte("<!DOCTYPE html><html><body>" + string(d.Body) + "</body></html>")
	}
	return buf.Bytes()
}

// Observer receives render statistics. Implementations must not block.
type Observer interface {
	ObserveRender(sections int, elapsed time.Duration)
	ObserveDegrade(kind Kind, reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveRender(int, time.Duration) {}
func (nopObserver) ObserveDegrade(Kind, string)      {}

// Degradation reasons reported to the Observer.
const (
	DegradeEmptyPage       = "empty_page"
	DegradeEmptyGallery    = "empty_gallery"
	DegradeUnresolvedVideo = "unresolved_video"
	DegradeUnknownKind     = "unknown_kind"
	DegradeTemplate        = "template_error"
)

var documentTemplate = template.Must(template.New("page").Parse(sectionTemplates))

// Renderer turns company documents into HTML. It is safe for concurrent use.
type Renderer struct {
	tmpl     *template.Template
	observer Observer
}

// NewRenderer returns a Renderer reporting to obs. obs may be nil.
func NewRenderer(obs Observer) *Renderer {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Renderer{tmpl: documentTemplate, observer: obs}
}

// Render produces the page for in. It does no I/O and never fails: parts
// that cannot be shown degrade to placeholders.
func (r *Renderer) Render(in Input) Document {
	start := time.Now()
	company := in.Company
	theme := company.Theme.WithDefaults()
	ctx := renderContext{
		company: company,
		theme:   theme,
		spacing: SpacingFor(theme.Spacing),
		host:    in.Host,
		jobs:    in.Jobs,
	}

	visible := company.Sections.Enabled()
	body := bodyView{
		RootStyle: styleOf(
			Decl{"font-family", cssValue(theme.FontFamily)},
			Decl{"font-size", cssValue(theme.BaseFontSize)},
			Decl{"background-color", cssValue(theme.BackgroundColor)},
			Decl{"color", cssValue(theme.TextColor)},
		),
		BaseCSS:   template.CSS(baseStylesheet),
		CustomCSS: template.CSS(theme.CustomCSS),
		Empty:     len(visible) == 0,
		FooterStyle: styleOf(
			Decl{"background-color", cssValue(AddAlpha(theme.TextColor, 0.05))},
			Decl{"color", cssValue(theme.TextColor)},
			Decl{"opacity", "0.8"},
		),
		SocialStyle: styleOf(
			Decl{"background-color", cssValue(AddAlpha(theme.AccentColor, 0.1))},
			Decl{"color", cssValue(theme.AccentColor)},
		),
		Social: ctx.socialLinks(),
		Year:   in.Year,
		Name:   company.Name,
	}
	if body.Empty {
		r.observer.ObserveDegrade("", DegradeEmptyPage)
	} else if !visible.HasKind(KindHero) {
		legacy := ctx.legacyHero()
		body.LegacyHero = &legacy
	}

	for _, sec := range visible {
		html, ok := r.renderSection(ctx, sec)
		if ok {
			body.Sections = append(body.Sections, html)
		}
	}

	doc := Document{Title: pageTitle(company)}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "body", body); err != nil {
		r.observer.ObserveDegrade("", DegradeTemplate)
		buf.Reset()
		buf.WriteString(`<div class="careers-page"><main><div class="page-empty">No visible sections. Add one from the sidebar.</div></main></div>`)
	}
	doc.Body = template.HTML(buf.String())

	if in.Host.SEO {
		buf.Reset()
		if err := r.tmpl.ExecuteTemplate(&buf, "head", ctx.head(doc.Title)); err != nil {
			r.observer.ObserveDegrade("", DegradeTemplate)
			buf.Reset()
		}
		doc.Head = template.HTML(buf.String())
	}

	r.observer.ObserveRender(len(body.Sections), time.Since(start))
	return doc
}

func pageTitle(c Company) string {
	if strings.TrimSpace(c.Name) == "" {
		return "Careers"
	}
	return c.Name + " - Careers"
}

// renderSection dispatches on the typed payload of sec.
func (r *Renderer) renderSection(ctx renderContext, sec Section) (template.HTML, bool) {
	colors := ResolveColors(ctx.theme, sec.Theme)
	f := ctx.frame(sec, colors)

	var (
		name string
		view any
	)
	switch p := sec.Payload().(type) {
	case HeroConfig:
		name, view = "hero", ctx.hero(sec, p)
	case TextConfig:
		name, view = "text", ctx.text(f, sec, p)
	case GalleryConfig:
		if len(p.Images) == 0 {
			r.observer.ObserveDegrade(KindGallery, DegradeEmptyGallery)
		}
		name, view = "gallery", ctx.gallery(f, p, colors)
	case VideoConfig:
		v := ctx.video(f, p, colors)
		if v.EmbedURL == "" {
			r.observer.ObserveDegrade(KindVideo, DegradeUnresolvedVideo)
		}
		name, view = "video", v
	case JobsConfig:
		name, view = "jobs", ctx.jobsSection(f, colors)
	case CTAConfig:
		name, view = "cta", ctx.cta(f, p, colors)
	case CustomConfig:
		name, view = "custom", customView{frame: f, Markup: template.HTML(sec.Content), ColorStyle: styleOf(Decl{"color", cssValue(colors.Text)})}
	default:
		r.observer.ObserveDegrade(sec.Kind, DegradeUnknownKind)
		return "", false
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, view); err != nil {
		r.observer.ObserveDegrade(sec.Kind, DegradeTemplate)
		return "", false
	}
	return template.HTML(buf.String()), true
}

type renderContext struct {
	company Company
	theme   Theme
	spacing SpacingScale
	host    Host
	jobs    jobfeed.Page
}

// frame carries what every non-hero section template shares.
type frame struct {
	ID           string
	Class        string
	Style        template.CSS
	TitleClass   string
	Title        string
	Subtitle     string
	HeadingStyle template.CSS
	MutedStyle   template.CSS
	BodyStyle    template.CSS
}

func (ctx renderContext) frame(sec Section, colors Colors) frame {
	return frame{
		ID:           sec.ID,
		Class:        "section " + ctx.spacing.Section,
		Style:        styleOf(Decl{"background-color", cssValue(colors.Background)}),
		TitleClass:   "section-title " + ctx.spacing.Text,
		Title:        sec.Title,
		Subtitle:     sec.Subtitle,
		HeadingStyle: styleOf(Decl{"font-family", cssValue(ctx.theme.HeadingFont)}, Decl{"color", cssValue(colors.Text)}),
		MutedStyle:   styleOf(Decl{"font-family", cssValue(ctx.theme.FontFamily)}, Decl{"color", cssValue(colors.Text)}, Decl{"opacity", "0.7"}),
		BodyStyle:    styleOf(Decl{"font-family", cssValue(ctx.theme.FontFamily)}, Decl{"color", cssValue(colors.Text)}),
	}
}

type heroView struct {
	ID           string
	Style        template.CSS
	OverlayStyle template.CSS
	InnerStyle   template.CSS
	LogoURL      string
	LogoStyle    template.CSS
	CompanyName  string
	Title        string
	Subtitle     string
	HeadingStyle template.CSS
	BodyStyle    template.CSS
}

func (ctx renderContext) hero(sec Section, p HeroConfig) heroView {
	decls := []Decl{{"background-color", cssValue(ctx.theme.PrimaryColor)}}
	image := p.BackgroundImageURL
	if image == "" {
		image = ctx.theme.BannerURL
	}
	if image == "" {
		image = ctx.company.BannerURL
	}
	switch p.BackgroundType {
	case BackgroundColor:
		if p.BackgroundValue != "" {
			decls = []Decl{{"background-color", cssValue(p.BackgroundValue)}, {"background-image", "none"}}
		}
	case BackgroundGradient:
		if p.BackgroundValue != "" {
			decls = append(decls, Decl{"background-image", cssValue(p.BackgroundValue)})
		}
	default:
		if image != "" {
			decls = append(decls, Decl{"background-image", cssURL(ctx.resolveURL(image))})
		}
	}

	title := sec.Title
	if strings.TrimSpace(title) == "" {
		title = ctx.company.Content.HeroTitle
	}
	subtitle := sec.Subtitle
	if strings.TrimSpace(subtitle) == "" {
		subtitle = ctx.company.Content.HeroSubtitle
	}
	return heroView{
		ID:           sec.ID,
		Style:        styleOf(decls...),
		OverlayStyle: styleOf(Decl{"opacity", formatFloat(p.OverlayOpacity)}),
		InnerStyle:   styleOf(Decl{"padding", ctx.spacing.HeroPadding}),
		LogoURL:      ctx.resolveURL(ctx.logo()),
		LogoStyle:    styleOf(Decl{"border-radius", cssValue(ctx.theme.BorderRadius)}),
		CompanyName:  ctx.company.Name,
		Title:        title,
		Subtitle:     subtitle,
		HeadingStyle: styleOf(Decl{"font-family", cssValue(ctx.theme.HeadingFont)}),
		BodyStyle:    styleOf(Decl{"font-family", cssValue(ctx.theme.FontFamily)}),
	}
}

// legacyHero shows the company-level hero copy for documents without a
// hero section.
func (ctx renderContext) legacyHero() heroView {
	sec := Section{ID: "legacy-hero", Kind: KindHero}
	return ctx.hero(sec, HeroConfig{BackgroundType: BackgroundImage, OverlayOpacity: 0.5})
}

func (ctx renderContext) logo() string {
	if ctx.company.LogoURL != "" {
		return ctx.company.LogoURL
	}
	return ctx.theme.LogoURL
}

type textView struct {
	frame
	Container string
	Align     string
	Content   string
}

func (ctx renderContext) text(f frame, sec Section, p TextConfig) textView {
	v := textView{frame: f, Container: "max-w-4xl", Align: "text-center", Content: sec.Content}
	switch p.Layout {
	case LayoutLeft:
		v.Align, v.Container = "text-left", "max-w-5xl"
	case LayoutRight:
		v.Align = "text-right"
	}
	return v
}

type galleryImageView struct {
	URL     string
	Alt     string
	Caption string
}

type galleryView struct {
	frame
	Images           []galleryImageView
	Placeholders     []string
	CellStyle        template.CSS
	PlaceholderStyle template.CSS
}

// galleryPlaceholders is the fixed grid shown while a gallery is empty.
var galleryPlaceholders = []string{"Image 1", "Image 2", "Image 3", "Image 4", "Image 5", "Image 6"}

func (ctx renderContext) gallery(f frame, p GalleryConfig, colors Colors) galleryView {
	v := galleryView{
		frame:     f,
		CellStyle: styleOf(Decl{"border-radius", cssValue(ctx.theme.BorderRadius)}),
		PlaceholderStyle: styleOf(
			Decl{"background-color", cssValue(AddAlpha(colors.Accent, 0.1))},
			Decl{"border-radius", cssValue(ctx.theme.BorderRadius)},
		),
	}
	v.MutedStyle = styleOf(Decl{"color", cssValue(colors.Text)}, Decl{"opacity", "0.4"})
	for i, img := range p.Images {
		alt := img.Caption
		if alt == "" {
			alt = "Gallery " + strconv.Itoa(i+1)
		}
		v.Images = append(v.Images, galleryImageView{URL: ctx.resolveURL(img.URL), Alt: alt, Caption: img.Caption})
	}
	if len(v.Images) == 0 {
		v.Placeholders = galleryPlaceholders
	}
	return v
}

type videoView struct {
	frame
	EmbedURL         string
	FrameStyle       template.CSS
	PlaceholderStyle template.CSS
	PlayStyle        template.CSS
	IconStyle        template.CSS
}

func (ctx renderContext) video(f frame, p VideoConfig, colors Colors) videoView {
	v := videoView{
		frame:      f,
		FrameStyle: styleOf(Decl{"border-radius", cssValue(ctx.theme.BorderRadius)}),
		PlaceholderStyle: styleOf(
			Decl{"background-color", cssValue(AddAlpha(colors.Accent, 0.1))},
			Decl{"border-radius", cssValue(ctx.theme.BorderRadius)},
		),
		PlayStyle: styleOf(Decl{"background-color", cssValue(AddAlpha(colors.Accent, 0.2))}),
		IconStyle: styleOf(Decl{"color", cssValue(colors.Accent)}),
	}
	v.MutedStyle = styleOf(Decl{"color", cssValue(colors.Text)}, Decl{"opacity", "0.5"})
	if embed, ok := ParseVideoURL(p.URL); ok {
		v.EmbedURL = embed.URL
	}
	return v
}

type ctaView struct {
	frame
	Href        string
	Label       string
	ButtonClass string
	ButtonStyle template.CSS
}

func (ctx renderContext) cta(f frame, p CTAConfig, colors Colors) ctaView {
	paint := ctx.button(colors)
	v := ctaView{frame: f, Href: p.ButtonURL, Label: p.ButtonText, ButtonClass: paint.Class, ButtonStyle: paintStyle(paint)}
	if strings.TrimSpace(v.Href) == "" {
		v.Href = "#"
	}
	if strings.TrimSpace(v.Label) == "" {
		v.Label = "Get Started"
	}
	return v
}

type customView struct {
	frame
	Markup     template.HTML
	ColorStyle template.CSS
}

func (ctx renderContext) button(colors Colors) ButtonPaint {
	return ResolveButtonStyle(ctx.theme.ButtonStyle, cssValue(colors.Accent), cssValue(ctx.theme.BorderRadius))
}

func paintStyle(p ButtonPaint) template.CSS {
	return template.CSS(p.Style.String())
}

// resolveURL prefixes path-rooted URLs with the asset base.
func (ctx renderContext) resolveURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return u
	}
	base := strings.TrimRight(ctx.host.AssetBaseURL, "/")
	return base + u
}

type socialLink struct {
	Label string
	URL   string
}

func (ctx renderContext) socialLinks() []socialLink {
	s := ctx.company.SocialLinks
	all := []socialLink{
		{"LinkedIn", s.LinkedIn},
		{"Twitter / X", s.Twitter},
		{"Instagram", s.Instagram},
		{"Facebook", s.Facebook},
		{"YouTube", s.YouTube},
		{"Website", s.Website},
	}
	out := make([]socialLink, 0, len(all))
	for _, l := range all {
		if strings.TrimSpace(l.URL) != "" {
			out = append(out, l)
		}
	}
	return out
}

type bodyView struct {
	RootStyle   template.CSS
	BaseCSS     template.CSS
	CustomCSS   template.CSS
	LegacyHero  *heroView
	Sections    []template.HTML
	Empty       bool
	FooterStyle template.CSS
	SocialStyle template.CSS
	Social      []socialLink
	Year        int
	Name        string
}

func styleOf(decls ...Decl) template.CSS {
	return template.CSS(Style(decls).String())
}

// cssValue strips characters that would let a theme value escape its
// declaration.
func cssValue(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '"', '\\', '\n', '\r':
			return -1
		}
		return r
	}, strings.TrimSpace(v))
}

func cssURL(u string) string {
	r := strings.NewReplacer(`"`, "%22", `\`, "%5C", "\n", "", "\r", "", "(", "%28", ")", "%29")
	return `url("` + r.Replace(u) + `")`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

const descriptionLimit = 220

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func (ctx renderContext) absoluteURL(u string) string {
	resolved := ctx.resolveURL(u)
	if parsed, err := url.Parse(resolved); err == nil && parsed.IsAbs() {
		return resolved
	}
	return ""
}
