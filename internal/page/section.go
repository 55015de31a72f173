package page

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind is the closed set of section types.
type Kind string

const (
	KindHero    Kind = "hero"
	KindText    Kind = "text"
	KindGallery Kind = "gallery"
	KindVideo   Kind = "video"
	KindJobs    Kind = "jobs"
	KindCTA     Kind = "cta"
	KindCustom  Kind = "custom"
)

// Kinds lists every section kind in editor menu order.
var Kinds = []Kind{KindHero, KindText, KindGallery, KindVideo, KindJobs, KindCTA, KindCustom}

// Valid reports whether k belongs to the closed enum.
func (k Kind) Valid() bool {
	switch k {
	case KindHero, KindText, KindGallery, KindVideo, KindJobs, KindCTA, KindCustom:
		return true
	}
	return false
}

// DefaultTitle is the title a freshly added section of kind k gets.
func (k Kind) DefaultTitle() string {
	switch k {
	case KindHero:
		return "Welcome"
	case KindText:
		return "About Us"
	case KindJobs:
		return "Open Positions"
	case KindGallery:
		return "Our Team"
	case KindVideo:
		return "Our Story"
	case KindCTA:
		return "Join Us"
	case KindCustom:
		return "Custom Section"
	}
	return ""
}

// Config keys understood by the built-in kinds. Any other key is carried
// through untouched.
const (
	KeyBackgroundType     = "backgroundType"
	KeyBackgroundImageURL = "backgroundImageUrl"
	KeyBackgroundValue    = "backgroundValue"
	KeyOverlayOpacity     = "overlayOpacity"
	KeyLayout             = "layout"
	KeyImages             = "images"
	KeyImageURLs          = "imageUrls"
	KeyVideoURL           = "videoUrl"
	KeyCTAButtonText      = "ctaButtonText"
	KeyCTAButtonURL       = "ctaButtonUrl"
)

// Config is the kind-specific payload of a section kept as raw JSON values
// so that unknown keys survive a read-modify-write cycle.
type Config map[string]json.RawMessage

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// String returns the string stored under key, or "" when absent or not a string.
func (c Config) String(key string) string {
	raw, ok := c[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Float returns the number stored under key.
func (c Config) Float(key string) (float64, bool) {
	raw, ok := c[key]
	if !ok || isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// Set stores v under key. Values that fail to encode are ignored.
func (c Config) Set(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c[key] = raw
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// Section is one ordered block of a careers page.
type Section struct {
	ID       string        `json:"id"`
	Kind     Kind          `json:"type"`
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle,omitempty"`
	Content  string        `json:"content,omitempty"`
	Enabled  bool          `json:"enabled"`
	Order    int           `json:"order"`
	Theme    *SectionTheme `json:"theme,omitempty"`
	Config   Config        `json:"config,omitempty"`
}

// Clone returns a deep copy of s.
func (s Section) Clone() Section {
	if s.Theme != nil {
		t := *s.Theme
		s.Theme = &t
	}
	s.Config = s.Config.Clone()
	return s
}

// BackgroundType selects how a hero paints its background.
type BackgroundType string

const (
	BackgroundImage    BackgroundType = "image"
	BackgroundColor    BackgroundType = "color"
	BackgroundGradient BackgroundType = "gradient"
)

// Layout is the text alignment of a text section.
type Layout string

const (
	LayoutLeft   Layout = "left"
	LayoutCenter Layout = "center"
	LayoutRight  Layout = "right"
)

// DefaultOverlayOpacity is the hero overlay used when none is configured.
const DefaultOverlayOpacity = 0.4

// Payload is the typed view of a section's config. The concrete type
// depends on the section kind.
type Payload interface {
	payloadKind() Kind
}

type HeroConfig struct {
	BackgroundType     BackgroundType
	BackgroundImageURL string
	BackgroundValue    string
	OverlayOpacity     float64
}

type TextConfig struct {
	Layout Layout
}

// GalleryImage is one normalized gallery entry.
type GalleryImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

type GalleryConfig struct {
	Images []GalleryImage
}

type VideoConfig struct {
	URL string
}

type CTAConfig struct {
	ButtonText string
	ButtonURL  string
}

// JobsConfig and CustomConfig carry no fields of their own.
type JobsConfig struct{}

type CustomConfig struct{}

func (HeroConfig) payloadKind() Kind    { return KindHero }
func (TextConfig) payloadKind() Kind    { return KindText }
func (GalleryConfig) payloadKind() Kind { return KindGallery }
func (VideoConfig) payloadKind() Kind   { return KindVideo }
func (CTAConfig) payloadKind() Kind     { return KindCTA }
func (JobsConfig) payloadKind() Kind    { return KindJobs }
func (CustomConfig) payloadKind() Kind  { return KindCustom }

// Payload decodes the config into the typed view for the section's kind.
// Malformed values decode to their defaults. Returns nil for unknown kinds.
func (s Section) Payload() Payload {
	c := s.Config
	switch s.Kind {
	case KindHero:
		hc := HeroConfig{
			BackgroundType:     BackgroundType(c.String(KeyBackgroundType)),
			BackgroundImageURL: c.String(KeyBackgroundImageURL),
			BackgroundValue:    c.String(KeyBackgroundValue),
			OverlayOpacity:     DefaultOverlayOpacity,
		}
		switch hc.BackgroundType {
		case BackgroundImage, BackgroundColor, BackgroundGradient:
		default:
			hc.BackgroundType = BackgroundImage
		}
		if v, ok := c.Float(KeyOverlayOpacity); ok {
			hc.OverlayOpacity = clamp01(v)
		}
		return hc
	case KindText:
		layout := Layout(c.String(KeyLayout))
		switch layout {
		case LayoutLeft, LayoutRight, LayoutCenter:
		default:
			layout = LayoutCenter
		}
		return TextConfig{Layout: layout}
	case KindGallery:
		return GalleryConfig{Images: galleryImages(c, KeyImages)}
	case KindVideo:
		return VideoConfig{URL: strings.TrimSpace(c.String(KeyVideoURL))}
	case KindCTA:
		return CTAConfig{ButtonText: c.String(KeyCTAButtonText), ButtonURL: c.String(KeyCTAButtonURL)}
	case KindJobs:
		return JobsConfig{}
	case KindCustom:
		return CustomConfig{}
	}
	return nil
}

// galleryImages reads the image list preferring the given key and falling
// back to the other representation when the preferred one is absent.
func galleryImages(c Config, prefer string) []GalleryImage {
	other := KeyImageURLs
	if prefer == KeyImageURLs {
		other = KeyImages
	}
	if raw, ok := c[prefer]; ok && !isNull(raw) {
		return decodeImageList(raw)
	}
	if raw, ok := c[other]; ok && !isNull(raw) {
		return decodeImageList(raw)
	}
	return []GalleryImage{}
}

// decodeImageList accepts both the {url, caption} shape and bare URL strings,
// mixed freely. Entries without a URL are dropped.
func decodeImageList(raw json.RawMessage) []GalleryImage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []GalleryImage{}
	}
	out := make([]GalleryImage, 0, len(items))
	for _, item := range items {
		var url string
		if err := json.Unmarshal(item, &url); err == nil {
			if url = strings.TrimSpace(url); url != "" {
				out = append(out, GalleryImage{URL: url})
			}
			continue
		}
		var img GalleryImage
		if err := json.Unmarshal(item, &img); err != nil {
			continue
		}
		img.URL = strings.TrimSpace(img.URL)
		if img.URL != "" {
			out = append(out, img)
		}
	}
	return out
}

// normalizeConfig returns a copy of c with the kind-specific rules
// applied. prefer names the gallery key that wins when both are present.
func normalizeConfig(kind Kind, c Config, prefer string) Config {
	out := c.Clone()
	if out == nil {
		out = Config{}
	}
	switch kind {
	case KindGallery:
		images := galleryImages(out, prefer)
		if prefer == KeyImageURLs {
			images = keepCaptions(images, galleryImages(c, KeyImages))
		}
		setGallery(out, images)
	case KindHero:
		if v, ok := out.Float(KeyOverlayOpacity); ok {
			out.Set(KeyOverlayOpacity, clamp01(v))
		}
	}
	return out
}

// keepCaptions restores captions from previous entries sharing a URL.
func keepCaptions(images, previous []GalleryImage) []GalleryImage {
	if len(previous) == 0 {
		return images
	}
	captions := make(map[string]string, len(previous))
	for _, p := range previous {
		if _, seen := captions[p.URL]; !seen {
			captions[p.URL] = p.Caption
		}
	}
	for i, img := range images {
		if img.Caption == "" {
			images[i].Caption = captions[img.URL]
		}
	}
	return images
}

func setGallery(c Config, images []GalleryImage) {
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.URL
	}
	c.Set(KeyImages, images)
	c.Set(KeyImageURLs, urls)
}
