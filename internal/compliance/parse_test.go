package compliance

import "testing"

const sampleDraft = `# Widget Pricing Guide

Widgets are everywhere. This intro explains what the guide covers and why
pricing is confusing for first-time buyers.

- Cheap widgets exist
- Premium widgets exist
- Warranties matter

## Overview

Some overview text with exactly a handful of words in it.

## Pricing

Pricing content with enough words to demonstrate that the parser counts the
prose beneath a level-two heading and attributes it to that section.

![chart](https://example.com/chart.png)

| Tier | Price |
|------|-------|
| Basic | $10 |

## FAQ

### How much does a widget cost?

Between ten and a hundred dollars.

### Do widgets expire?

No.
`

func TestParseExtractsStructure(t *testing.T) {
	parsed := Parse(sampleDraft)

	if parsed.TitleCount != 1 {
		t.Fatalf("TitleCount = %d, want 1", parsed.TitleCount)
	}
	if parsed.TitleText != "Widget Pricing Guide" {
		t.Fatalf("TitleText = %q", parsed.TitleText)
	}
	if parsed.IntroWords == 0 {
		t.Fatal("expected intro words to be counted")
	}
	if len(parsed.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(parsed.Sections), parsed.Sections)
	}
	if parsed.Sections[1].Heading != "Pricing" {
		t.Fatalf("second section = %q", parsed.Sections[1].Heading)
	}
	if parsed.Sections[1].Words == 0 {
		t.Fatal("expected pricing section words to be counted")
	}
	if parsed.Sections[0].Position != 1 || parsed.Sections[2].Position != 3 {
		t.Fatalf("unexpected positions: %+v", parsed.Sections)
	}
	if parsed.BulletCount != 3 {
		t.Fatalf("BulletCount = %d, want 3", parsed.BulletCount)
	}
	if parsed.FAQCount != 2 {
		t.Fatalf("FAQCount = %d, want 2", parsed.FAQCount)
	}
	if !parsed.HasMedia {
		t.Fatal("expected media embed to be detected")
	}
	if !parsed.HasTable {
		t.Fatal("expected table to be detected")
	}
}

func TestParseCountsMultipleTitles(t *testing.T) {
	parsed := Parse("# One\n\nIntro.\n\n# Two\n\nMore.\n")
	if parsed.TitleCount != 2 {
		t.Fatalf("TitleCount = %d, want 2", parsed.TitleCount)
	}
	if parsed.TitleText != "One" {
		t.Fatalf("TitleText = %q, want first title", parsed.TitleText)
	}
}

func TestParseListFormattedFAQ(t *testing.T) {
	doc := `# Title

Intro words here.

## FAQ

- How much does it cost?
- Does it ship internationally?
- Is there a warranty?
`
	parsed := Parse(doc)
	if parsed.FAQCount != 3 {
		t.Fatalf("FAQCount = %d, want 3", parsed.FAQCount)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	parsed := Parse("")
	if parsed.TitleCount != 0 || parsed.IntroWords != 0 || len(parsed.Sections) != 0 {
		t.Fatalf("unexpected digest for empty input: %+v", parsed)
	}
	if parsed.HasMedia || parsed.HasTable {
		t.Fatal("empty document should report no media or tables")
	}
}
