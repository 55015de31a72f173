package page

// Preset is a named bundle of theme values the editor can apply in one step.
type Preset struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	PrimaryColor   string      `json:"primaryColor"`
	SecondaryColor string      `json:"secondaryColor"`
	AccentColor    string      `json:"accentColor"`
	FontFamily     string      `json:"fontFamily"`
	HeadingFont    string      `json:"headingFont"`
	BorderRadius   string      `json:"borderRadius"`
	Spacing        Spacing     `json:"spacing"`
	ButtonStyle    ButtonStyle `json:"buttonStyle"`
}

var presets = []Preset{
	{
		ID: "modern", Name: "Modern", Description: "Clean and contemporary",
		PrimaryColor: "#3B82F6", SecondaryColor: "#1E40AF", AccentColor: "#10B981",
		FontFamily: "Inter, system-ui, sans-serif", HeadingFont: "Inter, system-ui, sans-serif",
		BorderRadius: "0.5rem", Spacing: SpacingNormal, ButtonStyle: ButtonRounded,
	},
	{
		ID: "minimal", Name: "Minimal", Description: "Simple and elegant",
		PrimaryColor: "#18181B", SecondaryColor: "#3F3F46", AccentColor: "#71717A",
		FontFamily: "system-ui, -apple-system, sans-serif", HeadingFont: "system-ui, -apple-system, sans-serif",
		BorderRadius: "0.25rem", Spacing: SpacingRelaxed, ButtonStyle: ButtonMinimal,
	},
	{
		ID: "vibrant", Name: "Vibrant", Description: "Bold and energetic",
		PrimaryColor: "#7C3AED", SecondaryColor: "#EC4899", AccentColor: "#F59E0B",
		FontFamily: "Poppins, sans-serif", HeadingFont: "Poppins, sans-serif",
		BorderRadius: "1rem", Spacing: SpacingNormal, ButtonStyle: ButtonPill,
	},
	{
		ID: "corporate", Name: "Corporate", Description: "Professional and trustworthy",
		PrimaryColor: "#1E40AF", SecondaryColor: "#1E3A8A", AccentColor: "#0F766E",
		FontFamily: "Source Sans Pro, sans-serif", HeadingFont: "Source Sans Pro, sans-serif",
		BorderRadius: "0.375rem", Spacing: SpacingCompact, ButtonStyle: ButtonRounded,
	},
	{
		ID: "startup", Name: "Startup", Description: "Fresh and innovative",
		PrimaryColor: "#059669", SecondaryColor: "#0D9488", AccentColor: "#6366F1",
		FontFamily: "DM Sans, sans-serif", HeadingFont: "DM Sans, sans-serif",
		BorderRadius: "0.75rem", Spacing: SpacingNormal, ButtonStyle: ButtonRounded,
	},
	{
		ID: "luxury", Name: "Luxury", Description: "Elegant and sophisticated",
		PrimaryColor: "#78350F", SecondaryColor: "#92400E", AccentColor: "#B45309",
		FontFamily: "Georgia, serif", HeadingFont: "Playfair Display, serif",
		BorderRadius: "0", Spacing: SpacingRelaxed, ButtonStyle: ButtonSharp,
	},
}

// Presets lists the built-in presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset finds a preset by id.
func LookupPreset(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ApplyPreset copies the preset values onto theme and records the preset id.
// Colors for background and text, branding images and custom CSS are kept.
func ApplyPreset(theme Theme, id string) (Theme, bool) {
	p, ok := LookupPreset(id)
	if !ok {
		return theme, false
	}
	theme.PrimaryColor = p.PrimaryColor
	theme.SecondaryColor = p.SecondaryColor
	theme.AccentColor = p.AccentColor
	theme.FontFamily = p.FontFamily
	theme.HeadingFont = p.HeadingFont
	theme.BorderRadius = p.BorderRadius
	theme.Spacing = p.Spacing
	theme.ButtonStyle = p.ButtonStyle
	theme.Preset = p.ID
	return theme.WithDefaults(), true
}
