package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scribe/internal/services/llm"
)

// Updater rewrites a draft so collected review feedback is addressed.
type Updater struct {
	client Completer
}

// NewUpdater constructs an update collaborator.
func NewUpdater(client Completer) *Updater {
	return &Updater{client: client}
}

// Update applies a feedback document to the draft and returns the rewritten
// article.
func (u *Updater) Update(ctx context.Context, text, feedback string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("update: empty draft")
	}
	if strings.TrimSpace(feedback) == "" {
		return text, nil
	}

	prompt := "Feedback:\n" + feedback + "\n\nArticle:\n" + text
	content, err := u.client.CompleteText(ctx, updateSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("update: %w", err)
	}
	updated := strings.TrimSpace(llm.StripCodeFence(content))
	if updated == "" {
		return "", errors.New("update: empty rewrite")
	}
	return updated, nil
}

// Remediator rewrites a draft against a search-optimization audit report.
type Remediator struct {
	client Completer
}

// NewRemediator constructs a remediation collaborator.
func NewRemediator(client Completer) *Remediator {
	return &Remediator{client: client}
}

// Remediate rewrites the article so the audit findings are addressed. The
// validation findings ride along so the rewrite does not reintroduce
// fact-check issues.
func (r *Remediator) Remediate(ctx context.Context, text, auditJSON, validationJSON string, keywords []string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("remediate: empty draft")
	}
	if strings.TrimSpace(auditJSON) == "" {
		return "", errors.New("remediate: empty audit report")
	}

	prompt := buildRemediatePrompt(text, auditJSON, validationJSON, keywords)
	content, err := r.client.CompleteText(ctx, remediateSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("remediate: %w", err)
	}
	updated := strings.TrimSpace(llm.StripCodeFence(content))
	if updated == "" {
		return "", errors.New("remediate: empty rewrite")
	}
	return updated, nil
}
