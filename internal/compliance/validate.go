package compliance

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"scribe/internal/structure"
	"scribe/internal/textutil"
)

// Severity ranks how strongly a violation should weigh on review decisions.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Kind categorizes a structural violation.
type Kind string

const (
	KindMissing    Kind = "missing"
	KindWrongOrder Kind = "wrong_order"
	KindWordCount  Kind = "word_count"
	KindItemCount  Kind = "item_count"
	KindMalformed  Kind = "malformed"
)

// Violation is a single deviation of a draft from the structure template.
type Violation struct {
	SectionID   string   `json:"section_id"`
	Kind        Kind     `json:"kind"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Expected    string   `json:"expected"`
	Actual      string   `json:"actual"`
}

// Result is the outcome of validating a parsed draft against a template.
// It is created fresh on each call and never mutated afterwards.
type Result struct {
	IsCompliant     bool        `json:"is_compliant"`
	Score           int         `json:"score"`
	Violations      []Violation `json:"violations"`
	Recommendations []string    `json:"recommendations"`
}

// Validate walks each template section and scores the parsed draft against
// it. Each section contributes one check for presence/shape and a second
// check when a word-count or item-count constraint is configured. The
// compliance threshold is deliberately lenient: zero critical violations and
// at most one high-severity violation still passes.
func Validate(parsed *ParsedDocument, tmpl *structure.Template) Result {
	checker := &checkState{parsed: parsed}

	for _, section := range tmpl.Sections {
		switch section.Type {
		case structure.SectionTitle:
			checker.checkTitle(section)
		case structure.SectionIntro:
			checker.checkIntro(section)
		case structure.SectionBody:
			checker.checkBody(section)
		case structure.SectionBullets:
			checker.checkItems(section, parsed.BulletCount, "bullet")
		case structure.SectionFAQ:
			checker.checkItems(section, parsed.FAQCount, "FAQ")
		case structure.SectionMedia:
			checker.checkMedia(section)
		}
	}

	return checker.result()
}

type checkState struct {
	parsed     *ParsedDocument
	violations []Violation
	passed     int
	total      int
	lastPos    int
}

func (c *checkState) pass() {
	c.total++
	c.passed++
}

func (c *checkState) fail(v Violation) {
	c.total++
	c.violations = append(c.violations, v)
}

func (c *checkState) checkTitle(section structure.Section) {
	if c.parsed.TitleCount == 1 {
		c.pass()
		return
	}
	kind := KindMalformed
	if c.parsed.TitleCount == 0 {
		kind = KindMissing
	}
	c.fail(Violation{
		SectionID:   section.ID,
		Kind:        kind,
		Severity:    SeverityCritical,
		Description: fmt.Sprintf("expected 1 title, found %d", c.parsed.TitleCount),
		Expected:    "1",
		Actual:      strconv.Itoa(c.parsed.TitleCount),
	})
}

func (c *checkState) checkIntro(section structure.Section) {
	if c.parsed.IntroWords == 0 {
		c.fail(Violation{
			SectionID:   section.ID,
			Kind:        KindMissing,
			Severity:    SeverityHigh,
			Description: "intro paragraph after the title is empty",
			Expected:    "a non-empty intro paragraph",
			Actual:      "0 words",
		})
	} else {
		c.pass()
	}

	if section.MinWords > 0 {
		if c.parsed.IntroWords >= section.MinWords {
			c.pass()
			return
		}
		c.fail(Violation{
			SectionID:   section.ID,
			Kind:        KindWordCount,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("intro has %d words, expected at least %d", c.parsed.IntroWords, section.MinWords),
			Expected:    fmt.Sprintf(">= %d words", section.MinWords),
			Actual:      fmt.Sprintf("%d words", c.parsed.IntroWords),
		})
	}
}

func (c *checkState) checkBody(section structure.Section) {
	match := c.findSection(section.Heading)
	if match == nil {
		if section.Required {
			c.fail(Violation{
				SectionID:   section.ID,
				Kind:        KindMissing,
				Severity:    SeverityHigh,
				Description: fmt.Sprintf("required section %q not found", section.Heading),
				Expected:    fmt.Sprintf("a heading containing %q", section.Heading),
				Actual:      "absent",
			})
		} else {
			c.pass()
		}
		// Word-count constraints still count as checks so scores stay
		// comparable across drafts.
		if section.MinWords > 0 {
			if section.Required {
				c.total++
			} else {
				c.pass()
			}
		}
		return
	}

	if match.Position < c.lastPos {
		c.fail(Violation{
			SectionID:   section.ID,
			Kind:        KindWrongOrder,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("section %q appears out of template order", match.Heading),
			Expected:    fmt.Sprintf("after position %d", c.lastPos),
			Actual:      fmt.Sprintf("position %d", match.Position),
		})
	} else {
		c.pass()
	}
	c.lastPos = match.Position

	if section.MinWords > 0 {
		if match.Words >= section.MinWords {
			c.pass()
			return
		}
		c.fail(Violation{
			SectionID:   section.ID,
			Kind:        KindWordCount,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("section %q has %d words, expected at least %d", match.Heading, match.Words, section.MinWords),
			Expected:    fmt.Sprintf(">= %d words", section.MinWords),
			Actual:      fmt.Sprintf("%d words", match.Words),
		})
	}
}

func (c *checkState) checkItems(section structure.Section, count int, label string) {
	if count == 0 {
		if section.Required {
			c.fail(Violation{
				SectionID:   section.ID,
				Kind:        KindMissing,
				Severity:    SeverityHigh,
				Description: fmt.Sprintf("no %s items found", label),
				Expected:    fmt.Sprintf("a %s block", label),
				Actual:      "absent",
			})
		} else {
			c.pass()
		}
		// Count constraints still count as checks so scores stay
		// comparable across drafts.
		if section.HasCountConstraint() {
			if section.Required {
				c.total++
			} else {
				c.pass()
			}
		}
		return
	}
	c.pass()

	if !section.HasCountConstraint() {
		return
	}
	switch {
	case section.MinItems > 0 && count < section.MinItems:
		c.fail(Violation{
			SectionID:   section.ID,
			Kind:        KindItemCount,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("found %d %s items, expected at least %d", count, label, section.MinItems),
			Expected:    fmt.Sprintf(">= %d items", section.MinItems),
			Actual:      strconv.Itoa(count),
		})
	case section.MaxItems > 0 && count > section.MaxItems:
		c.fail(Violation{
			SectionID:   section.ID,
			Kind:        KindItemCount,
			Severity:    SeverityLow,
			Description: fmt.Sprintf("found %d %s items, expected at most %d", count, label, section.MaxItems),
			Expected:    fmt.Sprintf("<= %d items", section.MaxItems),
			Actual:      strconv.Itoa(count),
		})
	default:
		c.pass()
	}
}

func (c *checkState) checkMedia(section structure.Section) {
	if c.parsed.HasMedia || !section.Required {
		c.pass()
		return
	}
	c.fail(Violation{
		SectionID:   section.ID,
		Kind:        KindMissing,
		Severity:    SeverityHigh,
		Description: "no media embed found",
		Expected:    "at least one image embed",
		Actual:      "absent",
	})
}

func (c *checkState) findSection(heading string) *ParsedSection {
	for i := range c.parsed.Sections {
		if textutil.HeadingContains(c.parsed.Sections[i].Heading, heading) {
			return &c.parsed.Sections[i]
		}
	}
	return nil
}

func (c *checkState) result() Result {
	score := 100
	if c.total > 0 {
		score = int(math.Round(100 * float64(c.passed) / float64(c.total)))
	}

	criticals, highs := 0, 0
	for _, v := range c.violations {
		switch v.Severity {
		case SeverityCritical:
			criticals++
		case SeverityHigh:
			highs++
		}
	}

	return Result{
		IsCompliant:     criticals == 0 && highs <= 1,
		Score:           score,
		Violations:      c.violations,
		Recommendations: recommendations(c.violations),
	}
}

func recommendations(violations []Violation) []string {
	var (
		hasCritical  bool
		missingHigh  []string
		thinSections []string
		countIssues  bool
	)
	for _, v := range violations {
		switch {
		case v.Severity == SeverityCritical:
			hasCritical = true
		case v.Severity == SeverityHigh && v.Kind == KindMissing:
			missingHigh = append(missingHigh, v.SectionID)
		case v.Kind == KindWordCount:
			thinSections = append(thinSections, v.SectionID)
		case v.Kind == KindItemCount:
			countIssues = true
		}
	}

	var recs []string
	if hasCritical {
		recs = append(recs, "Fix the document formatting: the article must contain exactly one top-level title.")
	}
	if len(missingHigh) > 0 {
		recs = append(recs, fmt.Sprintf("Add the missing required sections: %s.", strings.Join(missingHigh, ", ")))
	}
	if len(thinSections) > 0 {
		recs = append(recs, fmt.Sprintf("Expand the underweight sections to meet their minimum word counts: %s.", strings.Join(thinSections, ", ")))
	}
	if countIssues {
		recs = append(recs, "Adjust the bullet and FAQ item counts to fit the configured range.")
	}
	return recs
}
