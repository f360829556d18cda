package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"scribe/internal/services/llm"
)

// SchemaRequest carries the article fields the JSON-LD blob is generated from.
type SchemaRequest struct {
	Title   string
	Slug    string
	Summary string
	Tags    []string
	Text    string
}

// SchemaGenerator produces a schema.org JSON-LD blob for a finished article.
type SchemaGenerator struct {
	client Completer
}

// NewSchemaGenerator constructs a schema collaborator.
func NewSchemaGenerator(client Completer) *SchemaGenerator {
	return &SchemaGenerator{client: client}
}

// Generate returns the JSON-LD blob as a compact JSON string.
func (g *SchemaGenerator) Generate(ctx context.Context, req SchemaRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", errors.New("schema: empty article")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", req.Title)
	if req.Slug != "" {
		fmt.Fprintf(&b, "Slug: %s\n", req.Slug)
	}
	if req.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", req.Summary)
	}
	if len(req.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(req.Tags, ", "))
	}
	b.WriteString("\nArticle:\n")
	b.WriteString(req.Text)

	content, err := g.client.CompleteJSON(ctx, schemaSystemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("schema: %w", err)
	}

	var blob map[string]any
	if err := llm.DecodeJSON(content, &blob); err != nil {
		return "", fmt.Errorf("schema: parse payload: %w", err)
	}
	compact, err := json.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("schema: encode payload: %w", err)
	}
	return string(compact), nil
}
