package page

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode classifies a section validation failure.
type ErrorCode string

const (
	CodeInvalidKind          ErrorCode = "InvalidKind"
	CodeDuplicateID          ErrorCode = "DuplicateId"
	CodeMissingRequiredField ErrorCode = "MissingRequiredField"
)

var (
	ErrInvalidKind          = errors.New("invalid section kind")
	ErrDuplicateID          = errors.New("duplicate section id")
	ErrMissingRequiredField = errors.New("missing required section field")
)

// ValidationError reports why a candidate section was rejected.
type ValidationError struct {
	Code  ErrorCode `json:"code"`
	Field string    `json:"field"`
	Value string    `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	switch e.Code {
	case CodeInvalidKind:
		return fmt.Sprintf("section type %q is not supported", e.Value)
	case CodeDuplicateID:
		return fmt.Sprintf("section id %q already exists", e.Value)
	default:
		return fmt.Sprintf("section field %q is required", e.Field)
	}
}

// Unwrap lets callers match the code with errors.Is.
func (e *ValidationError) Unwrap() error {
	switch e.Code {
	case CodeInvalidKind:
		return ErrInvalidKind
	case CodeDuplicateID:
		return ErrDuplicateID
	default:
		return ErrMissingRequiredField
	}
}

// SectionInput is a section as submitted by the editor, before defaults.
type SectionInput struct {
	ID       string        `json:"id"`
	Kind     Kind          `json:"type"`
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Content  string        `json:"content"`
	Enabled  *bool         `json:"enabled"`
	Order    *int          `json:"order"`
	Theme    *SectionTheme `json:"theme"`
	Config   Config        `json:"config"`
}

// Input converts a stored section back into its submitted form.
func (s Section) Input() SectionInput {
	enabled, order := s.Enabled, s.Order
	c := s.Clone()
	return SectionInput{
		ID:       c.ID,
		Kind:     c.Kind,
		Title:    c.Title,
		Subtitle: c.Subtitle,
		Content:  c.Content,
		Enabled:  &enabled,
		Order:    &order,
		Theme:    c.Theme,
		Config:   c.Config,
	}
}

// ValidateSection checks a candidate against the ids already used by the
// company and returns the normalized section.
func ValidateSection(in SectionInput, existingIDs []string) (Section, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return Section{}, &ValidationError{Code: CodeMissingRequiredField, Field: "id"}
	}
	if strings.TrimSpace(string(in.Kind)) == "" {
		return Section{}, &ValidationError{Code: CodeMissingRequiredField, Field: "type"}
	}
	if !in.Kind.Valid() {
		return Section{}, &ValidationError{Code: CodeInvalidKind, Field: "type", Value: string(in.Kind)}
	}
	if in.Order == nil {
		return Section{}, &ValidationError{Code: CodeMissingRequiredField, Field: "order"}
	}
	for _, existing := range existingIDs {
		if existing == id {
			return Section{}, &ValidationError{Code: CodeDuplicateID, Field: "id", Value: id}
		}
	}

	s := Section{
		ID:       id,
		Kind:     in.Kind,
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Content:  in.Content,
		Enabled:  true,
		Order:    *in.Order,
		Config:   normalizeConfig(in.Kind, in.Config, KeyImages),
	}
	if in.Enabled != nil {
		s.Enabled = *in.Enabled
	}
	if in.Theme != nil && !in.Theme.IsZero() {
		t := *in.Theme
		s.Theme = &t
	}
	return s, nil
}

// ValidateSections validates a whole collection. Ids must be unique across
// the collection and the result is re-densified in submitted order.
func ValidateSections(inputs []SectionInput) (Sections, error) {
	out := make(Sections, 0, len(inputs))
	ids := make([]string, 0, len(inputs))
	for i, in := range inputs {
		s, err := ValidateSection(in, ids)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		ids = append(ids, s.ID)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Order = i
	}
	return out, nil
}

// RestoreSections upgrades persisted sections to the current shape.
// Unlike ValidateSections it never rejects an entry: enabled defaults to
// true, a missing order falls back to the array position and legacy
// gallery lists are rewritten with both keys.
func RestoreSections(inputs []SectionInput) Sections {
	out := make(Sections, 0, len(inputs))
	for i, in := range inputs {
		s := Section{
			ID:       strings.TrimSpace(in.ID),
			Kind:     in.Kind,
			Title:    in.Title,
			Subtitle: in.Subtitle,
			Content:  in.Content,
			Enabled:  true,
			Order:    i,
			Config:   normalizeConfig(in.Kind, in.Config, KeyImages),
		}
		if in.Enabled != nil {
			s.Enabled = *in.Enabled
		}
		if in.Order != nil {
			s.Order = *in.Order
		}
		if in.Theme != nil && !in.Theme.IsZero() {
			t := *in.Theme
			s.Theme = &t
		}
		out = append(out, s)
	}
	return out.Densify()
}
