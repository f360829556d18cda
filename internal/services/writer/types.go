package writer

import "context"

// Completer is the slice of the chat client the collaborators consume.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// researchPayloadVersion tags the research payload layout so stored records
// from older attempts can be told apart.
const researchPayloadVersion = 1

// Source is one reference the research call surfaced.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ResearchPayload is the structured output of the research phase.
type ResearchPayload struct {
	Version     int      `json:"version"`
	SourcesText string   `json:"sources_text"`
	Sources     []Source `json:"sources"`
	Media       []string `json:"media"`
}

// IsEmpty reports whether research produced nothing usable.
func (p ResearchPayload) IsEmpty() bool {
	return p.SourcesText == "" && len(p.Sources) == 0
}

// DraftResult is the structured output of the drafting phase. Prompt holds
// the user prompt the draft was produced from so quality control can review
// the text against the original instructions.
type DraftResult struct {
	Text    string   `json:"text"`
	Slug    string   `json:"slug"`
	Summary string   `json:"summary"`
	Intro   string   `json:"intro_paragraph"`
	Tags    []string `json:"tags"`
	Prompt  string   `json:"-"`
}

// ValidationResult is the outcome of the fact-validation call.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Issues  []string `json:"issues"`
	Raw     string   `json:"-"`
}

// HasIssues reports whether validation flagged anything.
func (v ValidationResult) HasIssues() bool {
	return !v.IsValid || len(v.Issues) > 0
}
