package compliance

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gmtext "github.com/yuin/goldmark/text"

	"scribe/internal/textutil"
)

// ParsedSection is one body section extracted from a draft: a level-2
// heading plus the word count of everything beneath it.
type ParsedSection struct {
	Heading  string
	Words    int
	Position int
}

// ParsedDocument is the structural digest of a markdown draft consumed by
// Validate. Parsing is purely functional; the same input always yields the
// same digest.
type ParsedDocument struct {
	TitleCount int
	TitleText  string
	IntroWords int
	Sections   []ParsedSection
	// BulletCount is the item count of the first unordered list in the
	// document, which drafts use for the summary-bullet block.
	BulletCount int
	// FAQCount counts question entries: level-3+ headings ending in a
	// question mark, falling back to question-mark list items when the FAQ
	// is list-formatted.
	FAQCount int
	HasMedia bool
	HasTable bool
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Parse extracts the structural digest of a markdown draft.
func Parse(text string) *ParsedDocument {
	source := []byte(text)
	doc := markdown.Parser().Parse(gmtext.NewReader(source))

	parsed := &ParsedDocument{}

	var (
		current       *ParsedSection
		seenTitle     bool
		introOpen     bool
		questionLists int
	)

	flush := func() {
		if current != nil {
			parsed.Sections = append(parsed.Sections, *current)
			current = nil
		}
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			text := strings.TrimSpace(nodeText(n, source))
			switch {
			case n.Level == 1:
				flush()
				introOpen = true
				if !seenTitle {
					parsed.TitleText = text
					seenTitle = true
				}
				parsed.TitleCount++
			case n.Level == 2:
				flush()
				introOpen = false
				current = &ParsedSection{
					Heading:  text,
					Position: len(parsed.Sections) + 1,
				}
			default:
				if strings.HasSuffix(text, "?") {
					parsed.FAQCount++
				}
				if current != nil {
					current.Words += textutil.WordCount(text)
				}
			}
		case *ast.List:
			items, questions := countListItems(n, source)
			if !n.IsOrdered() && parsed.BulletCount == 0 {
				parsed.BulletCount = items
			}
			questionLists += questions
			addWords(&parsed.IntroWords, current, introOpen, wordsOf(n, source))
		default:
			addWords(&parsed.IntroWords, current, introOpen, wordsOf(node, source))
		}
	}
	flush()

	// List-formatted FAQs have no question headings.
	if parsed.FAQCount == 0 {
		parsed.FAQCount = questionLists
	}

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node.Kind() {
		case ast.KindImage:
			parsed.HasMedia = true
		case east.KindTable:
			parsed.HasTable = true
		}
		return ast.WalkContinue, nil
	})

	return parsed
}

func addWords(intro *int, current *ParsedSection, introOpen bool, words int) {
	switch {
	case current != nil:
		current.Words += words
	case introOpen:
		*intro += words
	}
}

func wordsOf(node ast.Node, source []byte) int {
	return textutil.WordCount(nodeText(node, source))
}

func countListItems(list *ast.List, source []byte) (items, questions int) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		items++
		if strings.HasSuffix(strings.TrimSpace(nodeText(item, source)), "?") {
			questions++
		}
	}
	return items, questions
}

func nodeText(node ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(node, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
