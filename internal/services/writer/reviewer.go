package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scribe/internal/services/llm"
)

// Reviewer runs quality control and fact validation over a draft.
type Reviewer struct {
	client Completer
}

// NewReviewer constructs a review collaborator.
func NewReviewer(client Completer) *Reviewer {
	return &Reviewer{client: client}
}

// QualityControl reviews the draft against the instructions it was written
// from. An empty string means no issues were found.
func (r *Reviewer) QualityControl(ctx context.Context, text, originalPrompt string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("quality control: empty draft")
	}

	content, err := r.client.CompleteJSON(ctx, qualitySystemPrompt, buildQualityPrompt(text, originalPrompt))
	if err != nil {
		return "", fmt.Errorf("quality control: %w", err)
	}

	var parsed struct {
		HasIssues      bool   `json:"has_issues"`
		IssuesMarkdown string `json:"issues_markdown"`
	}
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return "", fmt.Errorf("quality control: parse payload: %w", err)
	}
	issues := strings.TrimSpace(parsed.IssuesMarkdown)
	if !parsed.HasIssues || issues == "" {
		return "", nil
	}
	return issues, nil
}

// Validate fact-checks the draft. Raw keeps the untouched model payload for
// the record.
func (r *Reviewer) Validate(ctx context.Context, text string) (ValidationResult, error) {
	var empty ValidationResult
	if strings.TrimSpace(text) == "" {
		return empty, errors.New("validate: empty draft")
	}

	content, err := r.client.CompleteJSON(ctx, validationSystemPrompt, text)
	if err != nil {
		return empty, fmt.Errorf("validate: %w", err)
	}

	var result ValidationResult
	if err := llm.DecodeJSON(content, &result); err != nil {
		return empty, fmt.Errorf("validate: parse payload: %w", err)
	}
	result.Raw = content
	return result, nil
}
