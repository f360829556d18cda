package structure

import (
	"fmt"
	"strings"

	"scribe/internal/config"
)

// SectionType identifies the kind of document section a template entry
// describes.
type SectionType string

const (
	SectionTitle   SectionType = "title"
	SectionIntro   SectionType = "intro"
	SectionBullets SectionType = "bullets"
	SectionBody    SectionType = "body"
	SectionMedia   SectionType = "media"
	SectionFAQ     SectionType = "faq"
)

// Section is one required or optional entry of an article-structure template.
type Section struct {
	ID       string
	Type     SectionType
	Heading  string
	Required bool
	MinWords int
	MinItems int
	MaxItems int
}

// HasCountConstraint reports whether the section carries an item-count bound.
func (s Section) HasCountConstraint() bool {
	return s.MinItems > 0 || s.MaxItems > 0
}

// Template is an ordered article-structure specification. It is immutable
// once loaded for a generation attempt.
type Template struct {
	Sections []Section
}

// IsEmpty reports whether no sections are configured; an empty template
// disables structural compliance checks.
func (t *Template) IsEmpty() bool {
	return t == nil || len(t.Sections) == 0
}

// FromConfig builds a Template from the raw configuration section list.
// Config validation has already checked types and constraints, but the
// conversion revalidates so the package stands on its own.
func FromConfig(raw config.Structure) (*Template, error) {
	tmpl := &Template{Sections: make([]Section, 0, len(raw.Sections))}
	for i, spec := range raw.Sections {
		sectionType := SectionType(strings.ToLower(strings.TrimSpace(spec.Type)))
		switch sectionType {
		case SectionTitle, SectionIntro, SectionBullets, SectionBody, SectionMedia, SectionFAQ:
		default:
			return nil, fmt.Errorf("structure section %d: unknown type %q", i, spec.Type)
		}
		id := strings.TrimSpace(spec.ID)
		if id == "" {
			return nil, fmt.Errorf("structure section %d: id required", i)
		}
		if sectionType == SectionBody && strings.TrimSpace(spec.Heading) == "" {
			return nil, fmt.Errorf("structure section %q: body sections require a heading", id)
		}
		tmpl.Sections = append(tmpl.Sections, Section{
			ID:       id,
			Type:     sectionType,
			Heading:  strings.TrimSpace(spec.Heading),
			Required: spec.Required,
			MinWords: spec.MinWords,
			MinItems: spec.MinItems,
			MaxItems: spec.MaxItems,
		})
	}
	return tmpl, nil
}

// Describe renders a compact human-readable summary of the template for
// inclusion in drafting prompts.
func (t *Template) Describe() string {
	if t.IsEmpty() {
		return ""
	}
	var b strings.Builder
	for _, section := range t.Sections {
		b.WriteString("- ")
		b.WriteString(string(section.Type))
		if section.Heading != "" {
			b.WriteString(" \"")
			b.WriteString(section.Heading)
			b.WriteString("\"")
		}
		if section.Required {
			b.WriteString(" (required")
		} else {
			b.WriteString(" (optional")
		}
		if section.MinWords > 0 {
			fmt.Fprintf(&b, ", min %d words", section.MinWords)
		}
		if section.MinItems > 0 {
			fmt.Fprintf(&b, ", min %d items", section.MinItems)
		}
		if section.MaxItems > 0 {
			fmt.Fprintf(&b, ", max %d items", section.MaxItems)
		}
		b.WriteString(")\n")
	}
	return b.String()
}
