package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scribe/internal/services/imagery"
	"scribe/internal/services/llm"
	"scribe/internal/structure"
	"scribe/internal/textutil"
)

// DraftRequest carries everything the drafting phase depends on.
type DraftRequest struct {
	Title        string
	Keywords     []string
	Notes        string
	Tone         string
	Language     string
	TargetWords  int
	Research     ResearchPayload
	Illustration imagery.Illustration
	RelatedJSON  string
	Template     *structure.Template
}

// Drafter produces the initial article draft.
type Drafter struct {
	client Completer
}

// NewDrafter constructs a drafting collaborator.
func NewDrafter(client Completer) *Drafter {
	return &Drafter{client: client}
}

// Draft writes the article. The returned result records the prompt used so
// quality control can review the text against it.
func (d *Drafter) Draft(ctx context.Context, req DraftRequest) (DraftResult, error) {
	var empty DraftResult
	if strings.TrimSpace(req.Title) == "" {
		return empty, errors.New("draft: title required")
	}

	prompt := buildDraftPrompt(req)
	content, err := d.client.CompleteJSON(ctx, draftSystemPrompt, prompt)
	if err != nil {
		return empty, fmt.Errorf("draft: %w", err)
	}

	var result DraftResult
	if err := llm.DecodeJSON(content, &result); err != nil {
		return empty, fmt.Errorf("draft: parse payload: %w", err)
	}
	result.Text = strings.TrimSpace(result.Text)
	if result.Text == "" {
		return empty, errors.New("draft: empty text")
	}
	result.Slug = strings.TrimSpace(result.Slug)
	if result.Slug == "" {
		result.Slug = textutil.Slugify(req.Title)
	}
	result.Summary = strings.TrimSpace(result.Summary)
	result.Intro = strings.TrimSpace(result.Intro)
	result.Prompt = prompt
	return result, nil
}
