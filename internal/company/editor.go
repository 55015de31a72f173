package company

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"careersite/internal/page"
)

// Patch is a partial company update. Nil or absent fields are left alone.
// Theme, Content and SocialLinks are overlaid key by key; Sections replace
// the whole collection.
type Patch struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	LogoURL     *string              `json:"logoUrl"`
	BannerURL   *string              `json:"bannerUrl"`
	Preset      *string              `json:"preset"`
	Theme       json.RawMessage      `json:"theme"`
	Content     json.RawMessage      `json:"content"`
	SocialLinks json.RawMessage      `json:"socialLinks"`
	Sections    *[]page.SectionInput `json:"sections"`
	Version     *int                 `json:"version"`
}

// Update applies p to a company owned by recruiterID.
func (s *Service) Update(ctx context.Context, recruiterID, companyID uint, p Patch) (Company, error) {
	rec, err := s.ownedRecord(ctx, recruiterID, companyID, p.Version)
	if err != nil {
		return Company{}, err
	}
	doc, err := rec.Document()
	if err != nil {
		return Company{}, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return Company{}, ErrNameRequired
		}
		if name != doc.Name {
			slug, err := s.uniqueSlug(s.db.WithContext(ctx), Slugify(name), rec.ID)
			if err != nil {
				return Company{}, err
			}
			doc.Name, doc.Slug = name, slug
		}
	}
	if p.Description != nil {
		doc.Description = *p.Description
	}
	if p.LogoURL != nil {
		doc.LogoURL = strings.TrimSpace(*p.LogoURL)
	}
	if p.BannerURL != nil {
		doc.BannerURL = strings.TrimSpace(*p.BannerURL)
	}

	if p.Preset != nil && *p.Preset != "" {
		theme, ok := page.ApplyPreset(doc.Theme, *p.Preset)
		if !ok {
			return Company{}, fmt.Errorf("%w: %s", ErrUnknownPreset, *p.Preset)
		}
		doc.Theme = theme
	}
	if doc.Theme, err = page.MergeThemeJSON(doc.Theme, p.Theme); err != nil {
		return Company{}, fmt.Errorf("%w: %v", ErrInvalidTheme, err)
	}
	if err := overlay(p.Content, &doc.Content); err != nil {
		return Company{}, fmt.Errorf("decode content: %w", err)
	}
	if err := overlay(p.SocialLinks, &doc.SocialLinks); err != nil {
		return Company{}, fmt.Errorf("decode social links: %w", err)
	}

	if p.Sections != nil {
		sections, err := page.ValidateSections(*p.Sections)
		if err != nil {
			return Company{}, err
		}
		doc.Sections = sections
	}

	return s.save(ctx, rec, doc)
}

// overlay decodes raw onto dst so that only the keys present change.
func overlay(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// SectionOp transforms a section collection. It must not mutate its argument.
type SectionOp func(page.Sections) (page.Sections, error)

// ApplySectionOp runs op on the sections of a company owned by recruiterID
// and persists the result. A failing op leaves the stored document untouched.
func (s *Service) ApplySectionOp(ctx context.Context, recruiterID, companyID uint, expectedVersion *int, op SectionOp) (Company, error) {
	rec, err := s.ownedRecord(ctx, recruiterID, companyID, expectedVersion)
	if err != nil {
		return Company{}, err
	}
	doc, err := rec.Document()
	if err != nil {
		return Company{}, err
	}
	next, err := op(doc.Sections)
	if err != nil {
		return Company{}, err
	}
	doc.Sections = next
	return s.save(ctx, rec, doc)
}

// AddSection appends a default section of kind k and returns it with the
// updated company.
func (s *Service) AddSection(ctx context.Context, recruiterID, companyID uint, expectedVersion *int, k page.Kind) (Company, page.Section, error) {
	var added page.Section
	c, err := s.ApplySectionOp(ctx, recruiterID, companyID, expectedVersion, func(col page.Sections) (page.Sections, error) {
		next, sec, err := page.AddSection(col, k, s.newID)
		added = sec
		return next, err
	})
	if err != nil {
		return Company{}, page.Section{}, err
	}
	return c, added, nil
}

// RemoveSection, MoveSection and friends adapt the page store operations
// to SectionOp.

func RemoveSection(id string) SectionOp {
	return func(col page.Sections) (page.Sections, error) { return page.RemoveSection(col, id) }
}

func MoveSection(id string, dir page.Direction) SectionOp {
	return func(col page.Sections) (page.Sections, error) { return page.MoveSection(col, id, dir) }
}

func ToggleSection(id string) SectionOp {
	return func(col page.Sections) (page.Sections, error) { return page.ToggleEnabled(col, id) }
}

func UpdateSectionConfig(id string, partial page.Config) SectionOp {
	return func(col page.Sections) (page.Sections, error) { return page.UpdateConfig(col, id, partial) }
}

func UpdateSectionTheme(id string, partial page.SectionThemePatch) SectionOp {
	return func(col page.Sections) (page.Sections, error) { return page.UpdateTheme(col, id, partial) }
}

func UpdateSectionFields(id string, p page.FieldsPatch) SectionOp {
	return func(col page.Sections) (page.Sections, error) { return page.UpdateFields(col, id, p) }
}
