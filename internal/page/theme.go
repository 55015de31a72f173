package page

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Spacing is the page-wide vertical rhythm level.
type Spacing string

const (
	SpacingCompact Spacing = "compact"
	SpacingNormal  Spacing = "normal"
	SpacingRelaxed Spacing = "relaxed"
)

// Valid reports whether s is one of the known spacing levels.
func (s Spacing) Valid() bool {
	switch s {
	case SpacingCompact, SpacingNormal, SpacingRelaxed:
		return true
	}
	return false
}

// ButtonStyle selects one of the fixed button paints.
type ButtonStyle string

const (
	ButtonRounded ButtonStyle = "rounded"
	ButtonPill    ButtonStyle = "pill"
	ButtonSharp   ButtonStyle = "sharp"
	ButtonMinimal ButtonStyle = "minimal"
)

// Valid reports whether b is one of the four button tokens.
func (b ButtonStyle) Valid() bool {
	_, ok := buttonTable[b]
	return ok
}

const (
	DefaultPrimaryColor    = "#3B82F6"
	DefaultSecondaryColor  = "#1E40AF"
	DefaultAccentColor     = "#10B981"
	DefaultBackgroundColor = "#FFFFFF"
	DefaultTextColor       = "#1F2937"
	DefaultFontFamily      = "Inter, system-ui, sans-serif"
	DefaultBaseFontSize    = "16px"
	DefaultBorderRadius    = "0.5rem"
)

// Theme is the page-level visual configuration of a company.
// Renderers read every field unconditionally, so callers go through
// WithDefaults before handing a Theme to the renderer.
type Theme struct {
	PrimaryColor    string      `json:"primaryColor"`
	SecondaryColor  string      `json:"secondaryColor"`
	AccentColor     string      `json:"accentColor"`
	BackgroundColor string      `json:"backgroundColor"`
	TextColor       string      `json:"textColor"`
	FontFamily      string      `json:"fontFamily"`
	HeadingFont     string      `json:"headingFont"`
	BaseFontSize    string      `json:"baseFontSize"`
	BorderRadius    string      `json:"borderRadius"`
	Spacing         Spacing     `json:"spacing"`
	ButtonStyle     ButtonStyle `json:"buttonStyle"`
	LogoURL         string      `json:"logoUrl"`
	BannerURL       string      `json:"bannerUrl"`
	Preset          string      `json:"preset"`
	CustomCSS       string      `json:"customCSS"`
}

// DefaultTheme returns the fully populated theme a new company starts with.
func DefaultTheme() Theme {
	return Theme{
		PrimaryColor:    DefaultPrimaryColor,
		SecondaryColor:  DefaultSecondaryColor,
		AccentColor:     DefaultAccentColor,
		BackgroundColor: DefaultBackgroundColor,
		TextColor:       DefaultTextColor,
		FontFamily:      DefaultFontFamily,
		HeadingFont:     DefaultFontFamily,
		BaseFontSize:    DefaultBaseFontSize,
		BorderRadius:    DefaultBorderRadius,
		Spacing:         SpacingNormal,
		ButtonStyle:     ButtonRounded,
	}
}

// WithDefaults fills every empty field from DefaultTheme. Unknown spacing
// or button tokens are replaced by their defaults as well.
func (t Theme) WithDefaults() Theme {
	d := DefaultTheme()
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&t.PrimaryColor, d.PrimaryColor)
	fill(&t.SecondaryColor, d.SecondaryColor)
	fill(&t.AccentColor, d.AccentColor)
	fill(&t.BackgroundColor, d.BackgroundColor)
	fill(&t.TextColor, d.TextColor)
	fill(&t.FontFamily, d.FontFamily)
	fill(&t.HeadingFont, d.HeadingFont)
	fill(&t.BaseFontSize, d.BaseFontSize)
	fill(&t.BorderRadius, d.BorderRadius)
	if !t.Spacing.Valid() {
		t.Spacing = d.Spacing
	}
	if !t.ButtonStyle.Valid() {
		t.ButtonStyle = d.ButtonStyle
	}
	return t
}

// MergeThemeJSON overlays the keys present in raw onto base. Keys absent
// from raw keep their current value.
func MergeThemeJSON(base Theme, raw json.RawMessage) (Theme, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return base, nil
	}
	merged := base
	if err := json.Unmarshal(raw, &merged); err != nil {
		return base, fmt.Errorf("decode theme patch: %w", err)
	}
	return merged.WithDefaults(), nil
}

// SectionTheme is a partial color override attached to one section.
type SectionTheme struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	AccentColor     string `json:"accentColor,omitempty"`
}

// IsZero reports whether no override field is set.
func (s SectionTheme) IsZero() bool {
	return s.BackgroundColor == "" && s.TextColor == "" && s.AccentColor == ""
}

// Colors is the effective palette of one section.
type Colors struct {
	Background string
	Text       string
	Accent     string
}

// ResolveColors picks each override field when it is set and non-empty,
// otherwise the page theme's value.
func ResolveColors(theme Theme, override *SectionTheme) Colors {
	c := Colors{
		Background: theme.BackgroundColor,
		Text:       theme.TextColor,
		Accent:     theme.AccentColor,
	}
	if override == nil {
		return c
	}
	if v := strings.TrimSpace(override.BackgroundColor); v != "" {
		c.Background = v
	}
	if v := strings.TrimSpace(override.TextColor); v != "" {
		c.Text = v
	}
	if v := strings.TrimSpace(override.AccentColor); v != "" {
		c.Accent = v
	}
	return c
}

// Decl is a single CSS declaration.
type Decl struct {
	Property string
	Value    string
}

// Style is an ordered list of CSS declarations rendered as an inline style.
type Style []Decl

func (s Style) String() string {
	var b strings.Builder
	for i, d := range s {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(d.Property)
		b.WriteByte(':')
		b.WriteString(d.Value)
	}
	return b.String()
}

// ButtonPaint is the concrete paint for a button token.
type ButtonPaint struct {
	Class string
	Style Style
}

type buttonRule struct {
	radius string // "" keeps the page radius token
	filled bool
}

var buttonTable = map[ButtonStyle]buttonRule{
	ButtonRounded: {filled: true},
	ButtonPill:    {filled: true, radius: "9999px"},
	ButtonSharp:   {filled: true, radius: "0"},
	ButtonMinimal: {filled: false},
}

const buttonBaseClass = "btn px-6 py-2.5 text-sm font-semibold"

// ResolveButtonStyle maps a button token onto its paint. Unknown tokens
// paint like rounded.
func ResolveButtonStyle(style ButtonStyle, accent, radius string) ButtonPaint {
	rule, ok := buttonTable[style]
	if !ok {
		style = ButtonRounded
		rule = buttonTable[ButtonRounded]
	}
	r := radius
	if rule.radius != "" {
		r = rule.radius
	}
	paint := ButtonPaint{Class: buttonBaseClass + " btn-" + string(style)}
	if rule.filled {
		paint.Style = Style{
			{"border-radius", r},
			{"background-color", accent},
			{"color", "#fff"},
		}
		return paint
	}
	paint.Style = Style{
		{"border-radius", r},
		{"background-color", "transparent"},
		{"color", accent},
		{"border", "2px solid " + accent},
	}
	return paint
}

// SpacingScale holds the layout classes for one spacing level.
type SpacingScale struct {
	Section     string
	Gap         string
	Text        string
	HeroPadding string
}

var spacingTable = map[Spacing]SpacingScale{
	SpacingCompact: {Section: "py-10 px-4", Gap: "gap-3", Text: "mb-4", HeroPadding: "3rem 1rem"},
	SpacingNormal:  {Section: "py-16 px-6", Gap: "gap-4", Text: "mb-6", HeroPadding: "5rem 1.5rem"},
	SpacingRelaxed: {Section: "py-20 px-8", Gap: "gap-6", Text: "mb-8", HeroPadding: "6rem 2rem"},
}

// SpacingFor returns the scale for s, falling back to normal.
func SpacingFor(s Spacing) SpacingScale {
	if scale, ok := spacingTable[s]; ok {
		return scale
	}
	return spacingTable[SpacingNormal]
}

// AddAlpha appends an alpha channel to a hex color. Non-hex colors are
// returned unchanged.
func AddAlpha(color string, opacity float64) string {
	if !strings.HasPrefix(color, "#") {
		return color
	}
	opacity = clamp01(opacity)
	alpha := fmt.Sprintf("%02x", int(math.Round(opacity*255)))
	hex := strings.TrimPrefix(color, "#")
	if len(hex) == 3 {
		return "#" + string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + alpha
	}
	return "#" + hex + alpha
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
