package writer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"scribe/internal/services/llm"
)

// ResearchRequest carries the inputs of the research phase.
type ResearchRequest struct {
	Title           string
	Keywords        []string
	Notes           string
	ExcludedDomains []string
}

// Researcher collects factual background for an article before drafting.
type Researcher struct {
	client Completer
}

// NewResearcher constructs a research collaborator.
func NewResearcher(client Completer) *Researcher {
	return &Researcher{client: client}
}

// Research gathers sources and a factual brief for the article. Sources from
// excluded domains are dropped even when the model cites them anyway.
func (r *Researcher) Research(ctx context.Context, req ResearchRequest) (ResearchPayload, error) {
	var empty ResearchPayload
	if strings.TrimSpace(req.Title) == "" {
		return empty, errors.New("research: title required")
	}

	content, err := r.client.CompleteJSON(ctx, researchSystemPrompt, buildResearchPrompt(req))
	if err != nil {
		return empty, fmt.Errorf("research: %w", err)
	}

	var payload ResearchPayload
	if err := llm.DecodeJSON(content, &payload); err != nil {
		return empty, fmt.Errorf("research: parse payload: %w", err)
	}
	payload.Version = researchPayloadVersion
	payload.SourcesText = strings.TrimSpace(payload.SourcesText)
	payload.Sources = dropExcludedSources(payload.Sources, req.ExcludedDomains)
	if payload.IsEmpty() {
		return empty, errors.New("research: empty payload")
	}
	return payload, nil
}

func dropExcludedSources(sources []Source, excluded []string) []Source {
	if len(sources) == 0 || len(excluded) == 0 {
		return sources
	}
	kept := sources[:0]
	for _, source := range sources {
		if !domainExcluded(source.URL, excluded) {
			kept = append(kept, source)
		}
	}
	return kept
}

func domainExcluded(raw string, excluded []string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}
	for _, domain := range excluded {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
