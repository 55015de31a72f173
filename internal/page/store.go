package page

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrLastSection is returned by RemoveSection when only one section is left.
	ErrLastSection = errors.New("a page must keep at least one section")
	// ErrSectionNotFound is returned when no section has the requested id.
	ErrSectionNotFound = errors.New("section not found")
	// ErrInvalidDirection is returned by MoveSection for unknown directions.
	ErrInvalidDirection = errors.New("invalid move direction")
)

// Direction is the move direction of a section.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Sections is the ordered section collection of one company. Every
// operation returns a new collection and leaves the receiver untouched.
type Sections []Section

// IDFunc generates a fresh section id for a kind.
type IDFunc func(Kind) string

// NewSectionID builds ids of the form "<kind>-<uuid>".
func NewSectionID(k Kind) string {
	return string(k) + "-" + uuid.NewString()
}

// Clone returns a deep copy of s.
func (s Sections) Clone() Sections {
	if s == nil {
		return nil
	}
	out := make(Sections, len(s))
	for i, sec := range s {
		out[i] = sec.Clone()
	}
	return out
}

// Sorted returns a copy sorted by order; ties keep their array position.
func (s Sections) Sorted() Sections {
	out := s.Clone()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Densify returns a sorted copy with order reassigned to 0..N-1.
func (s Sections) Densify() Sections {
	out := s.Sorted()
	for i := range out {
		out[i].Order = i
	}
	return out
}

// IDs returns the section ids in array order.
func (s Sections) IDs() []string {
	ids := make([]string, len(s))
	for i, sec := range s {
		ids[i] = sec.ID
	}
	return ids
}

// Find returns the index of the section with the given id.
func (s Sections) Find(id string) (int, bool) {
	for i, sec := range s {
		if sec.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Enabled returns the enabled sections sorted by order.
func (s Sections) Enabled() Sections {
	sorted := s.Sorted()
	out := sorted[:0]
	for _, sec := range sorted {
		if sec.Enabled {
			out = append(out, sec)
		}
	}
	return out
}

// HasKind reports whether any section, enabled or not, is of kind k.
func (s Sections) HasKind(k Kind) bool {
	for _, sec := range s {
		if sec.Kind == k {
			return true
		}
	}
	return false
}

// AddSection appends a new section of kind k with the kind's default title.
// newID may be nil, in which case NewSectionID is used.
func AddSection(col Sections, k Kind, newID IDFunc) (Sections, Section, error) {
	if !k.Valid() {
		return col.Clone(), Section{}, &ValidationError{Code: CodeInvalidKind, Field: "type", Value: string(k)}
	}
	if newID == nil {
		newID = NewSectionID
	}
	id := newID(k)
	for attempt := 0; ; attempt++ {
		if _, taken := col.Find(id); !taken && strings.TrimSpace(id) != "" {
			break
		}
		if attempt >= 8 {
			return col.Clone(), Section{}, &ValidationError{Code: CodeDuplicateID, Field: "id", Value: id}
		}
		id = NewSectionID(k)
	}

	out := col.Densify()
	sec := Section{
		ID:      id,
		Kind:    k,
		Title:   k.DefaultTitle(),
		Enabled: true,
		Order:   len(out),
		Config:  defaultConfig(k),
	}
	if k == KindText {
		sec.Content = "Add your content here..."
	}
	out = append(out, sec)
	return out, sec.Clone(), nil
}

func defaultConfig(k Kind) Config {
	c := Config{}
	if k == KindGallery {
		setGallery(c, []GalleryImage{})
	}
	return c
}

// RemoveSection deletes the section and re-densifies the remaining ones.
// With a single section left it is a no-op returning ErrLastSection.
func RemoveSection(col Sections, id string) (Sections, error) {
	if len(col) <= 1 {
		return col.Clone(), ErrLastSection
	}
	idx, ok := col.Find(id)
	if !ok {
		return col.Clone(), fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	rest := make(Sections, 0, len(col)-1)
	rest = append(rest, col[:idx]...)
	rest = append(rest, col[idx+1:]...)
	return rest.Densify(), nil
}

// MoveSection swaps the section with its neighbour in order. Moving the
// first section up or the last one down returns the collection unchanged.
func MoveSection(col Sections, id string, dir Direction) (Sections, error) {
	if dir != Up && dir != Down {
		return col.Clone(), fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	sorted := col.Sorted()
	idx, ok := sorted.Find(id)
	if !ok {
		return col.Clone(), fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	target := idx - 1
	if dir == Down {
		target = idx + 1
	}
	if target < 0 || target >= len(sorted) {
		return col.Clone(), nil
	}
	sorted[idx], sorted[target] = sorted[target], sorted[idx]
	for i := range sorted {
		sorted[i].Order = i
	}
	return sorted, nil
}

func update(col Sections, id string, fn func(*Section) error) (Sections, error) {
	out := col.Clone()
	idx, ok := out.Find(id)
	if !ok {
		return col.Clone(), fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if err := fn(&out[idx]); err != nil {
		return col.Clone(), err
	}
	return out, nil
}

// ToggleEnabled flips the enabled flag. Order is left as is.
func ToggleEnabled(col Sections, id string) (Sections, error) {
	return update(col, id, func(s *Section) error {
		s.Enabled = !s.Enabled
		return nil
	})
}

// UpdateConfig shallow-merges partial onto the section config. A JSON null
// value removes the key. For galleries, whichever image key the partial
// carries wins and the other representation is rewritten to match.
func UpdateConfig(col Sections, id string, partial Config) (Sections, error) {
	return update(col, id, func(s *Section) error {
		merged := s.Config.Clone()
		if merged == nil {
			merged = Config{}
		}
		for k, v := range partial {
			if isNull(v) {
				delete(merged, k)
				continue
			}
			merged[k] = append(json.RawMessage(nil), v...)
		}
		prefer := KeyImages
		if _, touchedURLs := partial[KeyImageURLs]; touchedURLs {
			if _, touchedImages := partial[KeyImages]; !touchedImages {
				prefer = KeyImageURLs
			}
		}
		s.Config = normalizeConfig(s.Kind, merged, prefer)
		return nil
	})
}

// SectionThemePatch is a partial section theme. Nil fields are untouched,
// empty strings clear the field.
type SectionThemePatch struct {
	BackgroundColor *string `json:"backgroundColor"`
	TextColor       *string `json:"textColor"`
	AccentColor     *string `json:"accentColor"`
}

// UpdateTheme shallow-merges a partial override onto the section theme.
// An override left with no field set is dropped.
func UpdateTheme(col Sections, id string, partial SectionThemePatch) (Sections, error) {
	return update(col, id, func(s *Section) error {
		var t SectionTheme
		if s.Theme != nil {
			t = *s.Theme
		}
		if partial.BackgroundColor != nil {
			t.BackgroundColor = strings.TrimSpace(*partial.BackgroundColor)
		}
		if partial.TextColor != nil {
			t.TextColor = strings.TrimSpace(*partial.TextColor)
		}
		if partial.AccentColor != nil {
			t.AccentColor = strings.TrimSpace(*partial.AccentColor)
		}
		if t.IsZero() {
			s.Theme = nil
		} else {
			s.Theme = &t
		}
		return nil
	})
}

// FieldsPatch is a partial update of the top-level section fields.
// Setting Theme (tracked by ThemeSet) replaces the override wholesale;
// an empty or null theme reverts the section to the page theme.
type FieldsPatch struct {
	Title    *string       `json:"title"`
	Subtitle *string       `json:"subtitle"`
	Content  *string       `json:"content"`
	Enabled  *bool         `json:"enabled"`
	Theme    *SectionTheme `json:"theme"`
	ThemeSet bool          `json:"-"`
}

// UnmarshalJSON records whether the theme key was present.
func (p *FieldsPatch) UnmarshalJSON(data []byte) error {
	type plain FieldsPatch
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, v.ThemeSet = keys["theme"]
	*p = FieldsPatch(v)
	return nil
}

// UpdateFields applies the patch to the section's top-level fields.
func UpdateFields(col Sections, id string, p FieldsPatch) (Sections, error) {
	return update(col, id, func(s *Section) error {
		if p.Title != nil {
			s.Title = *p.Title
		}
		if p.Subtitle != nil {
			s.Subtitle = *p.Subtitle
		}
		if p.Content != nil {
			s.Content = *p.Content
		}
		if p.Enabled != nil {
			s.Enabled = *p.Enabled
		}
		if p.ThemeSet || p.Theme != nil {
			if p.Theme == nil || p.Theme.IsZero() {
				s.Theme = nil
			} else {
				t := *p.Theme
				s.Theme = &t
			}
		}
		return nil
	})
}
