package page

// baseStylesheet holds the layout classes every rendered page relies on.
// It is emitted before the theme's custom CSS so the latter can override it.
const baseStylesheet = `
.careers-page{min-height:100%;line-height:1.5}
.careers-page *{box-sizing:border-box}
.careers-page img{max-width:100%;display:block}
.mx-auto{margin-left:auto;margin-right:auto}
.max-w-3xl{max-width:48rem}.max-w-4xl{max-width:56rem}.max-w-5xl{max-width:64rem}.max-w-6xl{max-width:72rem}
.text-left{text-align:left}.text-center{text-align:center}.text-right{text-align:right}
.py-10{padding-top:2.5rem;padding-bottom:2.5rem}.py-16{padding-top:4rem;padding-bottom:4rem}.py-20{padding-top:5rem;padding-bottom:5rem}
.px-4{padding-left:1rem;padding-right:1rem}.px-6{padding-left:1.5rem;padding-right:1.5rem}.px-8{padding-left:2rem;padding-right:2rem}
.mb-4{margin-bottom:1rem}.mb-6{margin-bottom:1.5rem}.mb-8{margin-bottom:2rem}
.gap-3{gap:.75rem}.gap-4{gap:1rem}.gap-6{gap:1.5rem}
.section-title{font-size:1.875rem;font-weight:700;margin-top:0}
.section-subtitle{font-size:1.125rem;opacity:.7}
.section-text{font-size:1.125rem;white-space:pre-wrap;opacity:.8}
.hero-section{position:relative;color:#fff;background-size:cover;background-position:center}
.hero-overlay{position:absolute;inset:0;background:#000}
.hero-inner{position:relative;text-align:center}
.hero-logo{margin:0 auto 1.5rem;height:4rem;width:4rem;object-fit:contain;background:rgba(255,255,255,.9);padding:.5rem}
.hero-title{font-size:3rem;font-weight:700;margin:0 0 1rem}
.hero-subtitle{font-size:1.25rem;opacity:.9;margin:0}
.gallery-grid{display:grid;grid-template-columns:repeat(3,minmax(0,1fr));gap:1rem;margin-top:2rem}
.gallery-cell{aspect-ratio:1/1;overflow:hidden;display:flex;align-items:center;justify-content:center;position:relative}
.gallery-cell img{width:100%;height:100%;object-fit:cover}
.gallery-caption{position:absolute;left:0;right:0;bottom:0;padding:.5rem;font-size:.875rem;color:#fff;background:rgba(0,0,0,.45)}
.video-frame{aspect-ratio:16/9;width:100%;max-width:48rem;margin:0 auto;overflow:hidden}
.video-frame iframe{width:100%;height:100%;border:0}
.video-placeholder{display:flex;align-items:center;justify-content:center;flex-direction:column}
.video-play{width:4rem;height:4rem;border-radius:9999px;display:flex;align-items:center;justify-content:center;margin:0 auto 1rem}
.jobs-grid{display:grid;grid-template-columns:repeat(2,minmax(0,1fr))}
.job-card{padding:1.5rem;border:1px solid}
.job-title{font-size:1.25rem;font-weight:700;margin:0 0 .5rem}
.job-meta{display:flex;gap:.75rem;font-size:.875rem;margin-bottom:1rem;opacity:.6}
.job-description{font-size:.875rem;line-height:1.6;opacity:.7;margin-bottom:1.5rem;overflow:hidden;display:-webkit-box;-webkit-line-clamp:3;-webkit-box-orient:vertical}
.jobs-empty{text-align:center;padding:3rem 0;border:2px dashed;border-radius:.75rem}
.jobs-filters{display:flex;flex-wrap:wrap;gap:1rem;align-items:flex-end;margin-bottom:2rem}
.jobs-filters label{display:block;font-size:.875rem;font-weight:500;margin-bottom:.5rem}
.jobs-filters input,.jobs-filters select{padding:.5rem .75rem;border:1px solid #d1d5db;border-radius:.375rem}
.pagination{display:flex;justify-content:center;align-items:center;gap:.5rem;margin-top:2rem}
.pagination a,.pagination button,.pagination span{padding:.5rem .75rem;border:1px solid transparent;background:none;text-decoration:none;font:inherit}
.pagination .disabled{opacity:.4;pointer-events:none}
.btn{display:inline-block;text-decoration:none;border:0;cursor:pointer}
.page-empty{padding:5rem 0;text-align:center;opacity:.5}
.footer{padding:2rem 0;text-align:center;font-size:.875rem}
.social-links{display:flex;justify-content:center;gap:1rem;margin-bottom:1.5rem}
.social-links a{padding:.5rem .75rem;border-radius:9999px;text-decoration:none}
@media (max-width:768px){.gallery-grid{grid-template-columns:repeat(2,minmax(0,1fr))}.jobs-grid{grid-template-columns:1fr}.hero-title{font-size:2.25rem}}
`

const sectionTemplates = `
{{define "hero"}}<header id="section-{{.ID}}" class="hero-section" data-section-type="hero" style="{{.Style}}">
<div class="hero-overlay" style="{{.OverlayStyle}}"></div>
<div class="hero-inner max-w-4xl mx-auto" style="{{.InnerStyle}}">
{{- if .LogoURL}}
<img class="hero-logo" src="{{.LogoURL}}" alt="{{.CompanyName}} Logo" style="{{.LogoStyle}}">
{{- end}}
<h1 class="hero-title" style="{{.HeadingStyle}}">{{.Title}}</h1>
<p class="hero-subtitle" style="{{.BodyStyle}}">{{.Subtitle}}</p>
</div>
</header>{{end}}

{{define "text"}}<section id="section-{{.ID}}" class="{{.Class}}" data-section-type="text" style="{{.Style}}">
<div class="{{.Container}} mx-auto {{.Align}}">
<h2 class="{{.TitleClass}}" style="{{.HeadingStyle}}">{{.Title}}</h2>
{{- if .Subtitle}}
<p class="section-subtitle mb-6" style="{{.MutedStyle}}">{{.Subtitle}}</p>
{{- end}}
<p class="section-text" style="{{.BodyStyle}}">{{.Content}}</p>
</div>
</section>{{end}}

{{define "gallery"}}<section id="section-{{.ID}}" class="{{.Class}}" data-section-type="gallery" style="{{.Style}}">
<div class="max-w-6xl mx-auto">
<h2 class="{{.TitleClass}} text-center" style="{{.HeadingStyle}}">{{.Title}}</h2>
<div class="gallery-grid">
{{- if .Images}}
{{- range $i, $img := .Images}}
<figure class="gallery-cell" style="{{$.CellStyle}}">
<img src="{{$img.URL}}" alt="{{$img.Alt}}" loading="lazy">
{{- if $img.Caption}}
<figcaption class="gallery-caption">{{$img.Caption}}</figcaption>
{{- end}}
</figure>
{{- end}}
{{- else}}
{{- range .Placeholders}}
<div class="gallery-cell gallery-placeholder" style="{{$.PlaceholderStyle}}"><span style="{{$.MutedStyle}}">{{.}}</span></div>
{{- end}}
{{- end}}
</div>
</div>
</section>{{end}}

{{define "video"}}<section id="section-{{.ID}}" class="{{.Class}}" data-section-type="video" style="{{.Style}}">
<div class="max-w-4xl mx-auto text-center">
<h2 class="{{.TitleClass}}" style="{{.HeadingStyle}}">{{.Title}}</h2>
{{- if .EmbedURL}}
<div class="video-frame" style="{{.FrameStyle}}">
<iframe src="{{.EmbedURL}}" title="{{.Title}}" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe>
</div>
{{- else}}
<div class="video-frame video-placeholder" style="{{.PlaceholderStyle}}">
<div class="video-play" style="{{.PlayStyle}}"><svg width="32" height="32" viewBox="0 0 24 24" fill="currentColor" style="{{.IconStyle}}"><path d="M8 5v14l11-7z"/></svg></div>
<span style="{{.MutedStyle}}">Add a video URL</span>
</div>
{{- end}}
</div>
</section>{{end}}

{{define "jobs"}}<section id="section-{{.ID}}" class="{{.Class}}" data-section-type="jobs" style="{{.Style}}">
<div class="max-w-5xl mx-auto">
<div class="text-center mb-8">
<h2 class="{{.TitleClass}}" style="{{.HeadingStyle}}">{{.Title}}</h2>
{{- if .Subtitle}}
<p class="section-subtitle" style="{{.MutedStyle}}">{{.Subtitle}}</p>
{{- end}}
</div>
{{- with .Filters}}
<form class="jobs-filters" method="get" action="{{.Action}}">
<div><label for="jobs-search">Search jobs</label><input id="jobs-search" type="search" name="search" value="{{.Search}}" placeholder="Job title"></div>
<div><label for="jobs-location">Location</label><input id="jobs-location" type="text" name="location" value="{{.Location}}" placeholder="Any location"></div>
<div><label for="jobs-type">Job type</label><select id="jobs-type" name="jobType">
<option value="">All types</option>
{{- range .Options}}
<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
{{- end}}
</select></div>
<div><button type="submit" class="{{.ButtonClass}}" style="{{.ButtonStyle}}">Search</button>
{{- if .ClearHref}} <a class="jobs-clear" href="{{.ClearHref}}">Clear filters</a>{{end}}</div>
</form>
{{- end}}
{{- if .Jobs}}
<div class="jobs-grid {{.Gap}}">
{{- range .Jobs}}
<article class="job-card" data-job-id="{{.ID}}" style="{{$.CardStyle}}">
<h3 class="job-title" style="{{$.HeadingStyle}}">{{.Title}}</h3>
<div class="job-meta" style="{{$.MetaStyle}}"><span class="job-location">{{.Location}}</span><span>&bull;</span><span class="job-type">{{.JobType}}</span>{{with .WorkPolicy}}<span>&bull;</span><span class="job-policy">{{.}}</span>{{end}}{{with .Department}}<span>&bull;</span><span class="job-department">{{.}}</span>{{end}}</div>
<p class="job-description" style="{{$.BodyStyle}}">{{.Description}}</p>
<button type="button" class="apply-button {{$.ButtonClass}}" style="{{$.ButtonStyle}}">Apply Now</button>
</article>
{{- end}}
</div>
{{- with .Pagination}}
<nav class="pagination" aria-label="Job pages">
{{- template "pagelink" .Prev}}
{{- range .Items}}
{{- if .Ellipsis}}
<span class="pagination-ellipsis">&hellip;</span>
{{- else}}
{{- template "pagelink" .}}
{{- end}}
{{- end}}
{{- template "pagelink" .Next}}
</nav>
{{- end}}
{{- else}}
<div class="jobs-empty" style="{{.EmptyStyle}}"><p style="{{.MutedStyle}}">{{.EmptyMessage}}</p></div>
{{- end}}
</div>
</section>{{end}}

{{define "pagelink"}}
{{- if .Disabled}}<span class="disabled" aria-disabled="true">{{.Label}}</span>
{{- else if .Href}}<a href="{{.Href}}" style="{{.Style}}"{{if .Current}} aria-current="page"{{end}}>{{.Label}}</a>
{{- else}}<button type="button" data-page="{{.Number}}" style="{{.Style}}"{{if .Current}} aria-current="page"{{end}}>{{.Label}}</button>
{{- end}}
{{- end}}

{{define "cta"}}<section id="section-{{.ID}}" class="{{.Class}}" data-section-type="cta" style="{{.Style}}">
<div class="max-w-3xl mx-auto text-center">
<h2 class="{{.TitleClass}}" style="{{.HeadingStyle}}">{{.Title}}</h2>
{{- if .Subtitle}}
<p class="section-subtitle mb-8" style="{{.MutedStyle}}">{{.Subtitle}}</p>
{{- end}}
<a class="cta-button {{.ButtonClass}}" href="{{.Href}}" style="{{.ButtonStyle}}">{{.Label}}</a>
</div>
</section>{{end}}

{{define "custom"}}<section id="section-{{.ID}}" class="{{.Class}}" data-section-type="custom" style="{{.Style}}">
<div class="max-w-4xl mx-auto">
{{- if .Title}}
<h2 class="{{.TitleClass}} text-center" style="{{.HeadingStyle}}">{{.Title}}</h2>
{{- end}}
{{- if .Markup}}
<div class="custom-content" style="{{.ColorStyle}}">{{.Markup}}</div>
{{- end}}
</div>
</section>{{end}}

{{define "body"}}<div class="careers-page" style="{{.RootStyle}}">
<style>{{.BaseCSS}}</style>
{{- if .CustomCSS}}
<style data-custom-css>{{.CustomCSS}}</style>
{{- end}}
{{- with .LegacyHero}}
{{template "hero" .}}
{{- end}}
<main>
{{- if .Empty}}
<div class="page-empty">No visible sections. Add one from the sidebar.</div>
{{- else}}
{{- range .Sections}}
{{.}}
{{- end}}
{{- end}}
</main>
<footer class="footer" style="{{.FooterStyle}}">
{{- if .Social}}
<div class="social-links">
{{- range .Social}}
<a href="{{.URL}}" target="_blank" rel="noopener noreferrer" aria-label="{{.Label}}" style="{{$.SocialStyle}}">{{.Label}}</a>
{{- end}}
</div>
{{- end}}
<p>&copy; {{.Year}} {{.Name}}. All rights reserved.</p>
</footer>
</div>{{end}}

{{define "head"}}
{{- with .Description}}<meta name="description" content="{{.}}">{{end}}
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:type" content="website">
{{- with .Image}}
<meta property="og:image" content="{{.}}">
{{- end}}
{{- with .URL}}
<meta property="og:url" content="{{.}}">
<link rel="canonical" href="{{.}}">
{{- end}}
<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
{{- range .Fonts}}
<link rel="stylesheet" href="{{.}}" crossorigin="anonymous">
{{- end}}
{{- if .JobPostings}}
<script type="application/ld+json">{{.JobPostings}}</script>
{{- end}}
{{- end}}

{{define "document"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{.Head}}
</head>
<body style="margin:0">
{{.Body}}
</body>
</html>
{{end}}
`
