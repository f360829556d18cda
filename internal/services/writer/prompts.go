package writer

import (
	"fmt"
	"strings"

	"scribe/internal/structure"
)

const researchSystemPrompt = `You are a research assistant for a content team.
Collect factual background for the requested article topic. Respond with JSON
only, using this shape:
{"sources_text": "...", "sources": [{"title": "...", "url": "..."}], "media": ["..."]}
sources_text is a condensed factual brief. sources lists the references the
brief draws on. media lists URLs of images or videos worth embedding. Never
cite a source from an excluded domain.`

const draftSystemPrompt = `You are a senior writer producing long-form
articles in markdown. Respond with JSON only, using this shape:
{"text": "...", "slug": "...", "summary": "...", "intro_paragraph": "...", "tags": ["..."]}
text is the full article in markdown with exactly one top-level "#" title.
summary is one or two sentences. tags are short topical labels.`

const qualitySystemPrompt = `You are an editor reviewing a draft against the
instructions it was written from. Respond with JSON only:
{"has_issues": false, "issues_markdown": ""}
List concrete, actionable problems in issues_markdown as a markdown bullet
list. Report no issues when the draft follows the instructions.`

const validationSystemPrompt = `You are a fact checker. Verify the claims in
the article below. Respond with JSON only:
{"is_valid": true, "issues": ["..."]}
Each issue names the doubtful claim and what is wrong with it.`

const updateSystemPrompt = `You are a senior editor. Rewrite the article in
markdown so every piece of feedback below is addressed. Keep the structure,
tone, and factual content unless the feedback says otherwise. Respond with
the full revised article only, no commentary.`

const remediateSystemPrompt = `You are a search-optimization editor. Revise
the article in markdown to resolve the findings of the audit report while
keeping the text natural and factually unchanged. Respond with the full
revised article only, no commentary.`

const schemaSystemPrompt = `You generate schema.org JSON-LD for articles.
Respond with a single JSON-LD object of type Article and nothing else.`

func buildResearchPrompt(req ResearchRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Title)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "Target keywords: %s\n", strings.Join(req.Keywords, ", "))
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "Author notes: %s\n", req.Notes)
	}
	if len(req.ExcludedDomains) > 0 {
		fmt.Fprintf(&b, "Excluded domains: %s\n", strings.Join(req.ExcludedDomains, ", "))
	}
	return b.String()
}

func buildDraftPrompt(req DraftRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an article titled %q.\n", req.Title)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "Target keywords: %s\n", strings.Join(req.Keywords, ", "))
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	if req.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", req.Language)
	}
	if req.TargetWords > 0 {
		fmt.Fprintf(&b, "Target length: about %d words\n", req.TargetWords)
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "Author notes: %s\n", req.Notes)
	}
	if !req.Illustration.IsEmpty() {
		fmt.Fprintf(&b, "Embed this cover image after the intro: ![%s](%s)\n",
			req.Illustration.AltText, req.Illustration.URL)
	}
	if req.RelatedJSON != "" {
		fmt.Fprintf(&b, "Link to these related articles where natural: %s\n", req.RelatedJSON)
	}
	if desc := describeTemplate(req.Template); desc != "" {
		fmt.Fprintf(&b, "Required article structure:\n%s", desc)
	}
	if !req.Research.IsEmpty() {
		b.WriteString("\nResearch brief:\n")
		b.WriteString(req.Research.SourcesText)
		b.WriteString("\n")
		for _, source := range req.Research.Sources {
			fmt.Fprintf(&b, "- %s (%s)\n", source.Title, source.URL)
		}
	}
	return b.String()
}

func describeTemplate(tmpl *structure.Template) string {
	if tmpl.IsEmpty() {
		return ""
	}
	return tmpl.Describe()
}

func buildQualityPrompt(text, originalPrompt string) string {
	var b strings.Builder
	b.WriteString("Original instructions:\n")
	b.WriteString(originalPrompt)
	b.WriteString("\n\nDraft:\n")
	b.WriteString(text)
	return b.String()
}

func buildRemediatePrompt(text, auditJSON, validationJSON string, keywords []string) string {
	var b strings.Builder
	if len(keywords) > 0 {
		fmt.Fprintf(&b, "Target keywords: %s\n\n", strings.Join(keywords, ", "))
	}
	b.WriteString("Audit report:\n")
	b.WriteString(auditJSON)
	if validationJSON != "" {
		b.WriteString("\n\nFact-validation findings:\n")
		b.WriteString(validationJSON)
	}
	b.WriteString("\n\nArticle:\n")
	b.WriteString(text)
	return b.String()
}
