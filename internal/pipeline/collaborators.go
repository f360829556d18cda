package pipeline

import (
	"context"
	"errors"

	"scribe/internal/config"
	"scribe/internal/services/imagery"
	"scribe/internal/services/llm"
	"scribe/internal/services/seo"
	"scribe/internal/services/snapshot"
	"scribe/internal/services/writer"
)

// Researcher gathers factual background for an article before drafting.
type Researcher interface {
	Research(ctx context.Context, req writer.ResearchRequest) (writer.ResearchPayload, error)
}

// Illustrator selects a cover illustration for an article.
type Illustrator interface {
	Enabled() bool
	Pick(ctx context.Context, title string, keywords []string) (imagery.Illustration, error)
}

// Drafter produces the initial article draft.
type Drafter interface {
	Draft(ctx context.Context, req writer.DraftRequest) (writer.DraftResult, error)
}

// Capturer screenshots pages linked from the draft.
type Capturer interface {
	Enabled() bool
	Capture(ctx context.Context, text string) (snapshot.Result, error)
}

// Reviewer runs the editorial quality pass and the fact validation pass.
type Reviewer interface {
	QualityControl(ctx context.Context, text, originalPrompt string) (string, error)
	Validate(ctx context.Context, text string) (writer.ValidationResult, error)
}

// Auditor scores a draft against the external audit service.
type Auditor interface {
	Audit(ctx context.Context, text string, keywords []string) (seo.Report, error)
}

// Updater applies accumulated review feedback to a draft.
type Updater interface {
	Update(ctx context.Context, text, feedback string) (string, error)
}

// Remediator rewrites a draft to address audit findings.
type Remediator interface {
	Remediate(ctx context.Context, text, auditJSON, validationJSON string, keywords []string) (string, error)
}

// SchemaGenerator emits the JSON-LD blob for a finished article.
type SchemaGenerator interface {
	Generate(ctx context.Context, req writer.SchemaRequest) (string, error)
}

// Collaborators bundles every external helper the runner drives. Illustrator
// and Capturer may be nil; the matching phases are skipped when they are.
type Collaborators struct {
	Researcher  Researcher
	Illustrator Illustrator
	Drafter     Drafter
	Capturer    Capturer
	Reviewer    Reviewer
	Auditor     Auditor
	Updater     Updater
	Remediator  Remediator
	Schema      SchemaGenerator
}

// NewCollaborators wires the production services from configuration. All
// writing collaborators share one LLM client so retry and timeout behavior
// stays uniform across phases.
func NewCollaborators(cfg *config.Config) Collaborators {
	client := llm.NewClient(cfg.LLM)
	return Collaborators{
		Researcher:  writer.NewResearcher(client),
		Illustrator: imagery.NewPicker(cfg.Imagery),
		Drafter:     writer.NewDrafter(client),
		Capturer:    snapshot.NewCapturer(cfg.Snapshot),
		Reviewer:    writer.NewReviewer(client),
		Auditor:     seo.NewClient(cfg.Audit),
		Updater:     writer.NewUpdater(client),
		Remediator:  writer.NewRemediator(client),
		Schema:      writer.NewSchemaGenerator(client),
	}
}

func (c Collaborators) validate() error {
	switch {
	case c.Researcher == nil:
		return errors.New("pipeline: researcher collaborator is required")
	case c.Drafter == nil:
		return errors.New("pipeline: drafter collaborator is required")
	case c.Reviewer == nil:
		return errors.New("pipeline: reviewer collaborator is required")
	case c.Auditor == nil:
		return errors.New("pipeline: auditor collaborator is required")
	case c.Updater == nil:
		return errors.New("pipeline: updater collaborator is required")
	case c.Remediator == nil:
		return errors.New("pipeline: remediator collaborator is required")
	case c.Schema == nil:
		return errors.New("pipeline: schema collaborator is required")
	}
	return nil
}
