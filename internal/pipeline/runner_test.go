package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/services"
	"scribe/internal/services/imagery"
	"scribe/internal/services/seo"
	"scribe/internal/services/snapshot"
	"scribe/internal/services/writer"
	"scribe/internal/store"
	"scribe/internal/testsupport"
)

type stubResearcher struct {
	payload writer.ResearchPayload
	err     error
	calls   int
}

func (s *stubResearcher) Research(_ context.Context, _ writer.ResearchRequest) (writer.ResearchPayload, error) {
	s.calls++
	return s.payload, s.err
}

type stubIllustrator struct {
	enabled bool
	pick    imagery.Illustration
	err     error
	calls   int
}

func (s *stubIllustrator) Enabled() bool { return s.enabled }

func (s *stubIllustrator) Pick(_ context.Context, _ string, _ []string) (imagery.Illustration, error) {
	s.calls++
	return s.pick, s.err
}

type stubDrafter struct {
	result  writer.DraftResult
	err     error
	calls   int
	lastReq writer.DraftRequest
}

func (s *stubDrafter) Draft(_ context.Context, req writer.DraftRequest) (writer.DraftResult, error) {
	s.calls++
	s.lastReq = req
	return s.result, s.err
}

type stubCapturer struct {
	enabled bool
	result  snapshot.Result
	err     error
	calls   int
}

func (s *stubCapturer) Enabled() bool { return s.enabled }

func (s *stubCapturer) Capture(_ context.Context, text string) (snapshot.Result, error) {
	s.calls++
	if s.err != nil {
		return snapshot.Result{}, s.err
	}
	result := s.result
	result.Text = text
	return result, nil
}

type stubReviewer struct {
	qcIssues   string
	qcErr      error
	validation writer.ValidationResult
	valErr     error
	qcCalls    int
	valCalls   int
}

func (s *stubReviewer) QualityControl(_ context.Context, _, _ string) (string, error) {
	s.qcCalls++
	return s.qcIssues, s.qcErr
}

func (s *stubReviewer) Validate(_ context.Context, _ string) (writer.ValidationResult, error) {
	s.valCalls++
	return s.validation, s.valErr
}

type stubAuditor struct {
	reports []seo.Report
	err     error
	calls   int
}

func (s *stubAuditor) Audit(_ context.Context, _ string, _ []string) (seo.Report, error) {
	s.calls++
	if s.err != nil {
		return seo.Report{}, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.reports) {
		idx = len(s.reports) - 1
	}
	return s.reports[idx], nil
}

type stubUpdater struct {
	out          string
	err          error
	calls        int
	lastFeedback string
}

func (s *stubUpdater) Update(_ context.Context, text, feedback string) (string, error) {
	s.calls++
	s.lastFeedback = feedback
	if s.err != nil {
		return "", s.err
	}
	if s.out == "" {
		return text, nil
	}
	return s.out, nil
}

type stubRemediator struct {
	err   error
	calls int
}

func (s *stubRemediator) Remediate(_ context.Context, text, _, _ string, _ []string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return text + " (remediated)", nil
}

type stubSchema struct {
	out   string
	err   error
	calls int
}

func (s *stubSchema) Generate(_ context.Context, _ writer.SchemaRequest) (string, error) {
	s.calls++
	return s.out, s.err
}

// blockingResearcher stalls until its phase deadline fires.
type blockingResearcher struct{}

func (blockingResearcher) Research(ctx context.Context, _ writer.ResearchRequest) (writer.ResearchPayload, error) {
	<-ctx.Done()
	return writer.ResearchPayload{}, ctx.Err()
}

// blockingIllustrator stalls until its phase deadline fires.
type blockingIllustrator struct{}

func (blockingIllustrator) Enabled() bool { return true }

func (blockingIllustrator) Pick(ctx context.Context, _ string, _ []string) (imagery.Illustration, error) {
	<-ctx.Done()
	return imagery.Illustration{}, ctx.Err()
}

// stallingAuditor answers the first audit and then blocks until the phase
// deadline fires.
type stallingAuditor struct {
	first seo.Report
	calls int
}

func (s *stallingAuditor) Audit(ctx context.Context, _ string, _ []string) (seo.Report, error) {
	s.calls++
	if s.calls == 1 {
		return s.first, nil
	}
	<-ctx.Done()
	return seo.Report{}, ctx.Err()
}

// stubSet holds one of every collaborator, preconfigured for a clean run.
type stubSet struct {
	researcher  *stubResearcher
	illustrator *stubIllustrator
	drafter     *stubDrafter
	capturer    *stubCapturer
	reviewer    *stubReviewer
	auditor     *stubAuditor
	updater     *stubUpdater
	remediator  *stubRemediator
	schema      *stubSchema
}

func newStubSet() *stubSet {
	return &stubSet{
		researcher: &stubResearcher{
			payload: writer.ResearchPayload{
				Version:     1,
				SourcesText: "Background brief.",
				Sources:     []writer.Source{{URL: "https://example.com/facts", Title: "Facts"}},
			},
		},
		illustrator: &stubIllustrator{
			enabled: true,
			pick:    imagery.Illustration{URL: "https://img.example.com/cover.jpg", AltText: "cover"},
		},
		drafter: &stubDrafter{
			result: writer.DraftResult{
				Text:    "# Widget Guide\n\nA full guide to widgets and their many uses today.\n",
				Slug:    "widget-guide",
				Summary: "Everything about widgets.",
				Tags:    []string{"widgets", "guides"},
				Prompt:  "draft prompt",
			},
		},
		capturer: &stubCapturer{enabled: true},
		reviewer: &stubReviewer{
			validation: writer.ValidationResult{IsValid: true, Raw: `{"is_valid": true, "issues": []}`},
		},
		auditor: &stubAuditor{
			reports: []seo.Report{{Raw: `{"score": 92, "issues": []}`, Score: 92}},
		},
		updater:    &stubUpdater{},
		remediator: &stubRemediator{},
		schema:     &stubSchema{out: `{"@context": "https://schema.org", "@type": "Article"}`},
	}
}

func (s *stubSet) collaborators() pipeline.Collaborators {
	return pipeline.Collaborators{
		Researcher:  s.researcher,
		Illustrator: s.illustrator,
		Drafter:     s.drafter,
		Capturer:    s.capturer,
		Reviewer:    s.reviewer,
		Auditor:     s.auditor,
		Updater:     s.updater,
		Remediator:  s.remediator,
		Schema:      s.schema,
	}
}

func newTestRunner(t *testing.T, cfg *config.Config, st *store.Store, stubs *stubSet) *pipeline.Runner {
	t.Helper()
	runner, err := pipeline.NewRunner(cfg, st, logging.NewNop(), stubs.collaborators())
	if err != nil {
		t.Fatalf("pipeline.NewRunner: %v", err)
	}
	return runner
}

func pipelineConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Publish.MinWords = 0
	return cfg
}

func fetchRecord(t *testing.T, st *store.Store, articleID int64) *store.GenerationRecord {
	t.Helper()
	record, err := st.RecordForArticle(context.Background(), articleID)
	if err != nil {
		t.Fatalf("RecordForArticle: %v", err)
	}
	if record == nil {
		t.Fatal("expected a generation record")
	}
	return record
}

func TestGenerateHappyPath(t *testing.T) {
	cfg := pipelineConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Widget Guide", "widgets")
	stubs := newStubSet()
	runner := newTestRunner(t, cfg, st, stubs)

	outcome, err := runner.Generate(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if outcome != store.Claimed {
		t.Fatalf("outcome = %q, want %q", outcome, store.Claimed)
	}

	got, err := st.GetArticle(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Status != store.ArticleReady {
		t.Fatalf("article status = %q, want %q", got.Status, store.ArticleReady)
	}
	if got.FinalText != stubs.drafter.result.Text {
		t.Fatalf("final text = %q, want the drafted text", got.FinalText)
	}
	if got.Slug != "widget-guide" {
		t.Fatalf("slug = %q, want widget-guide", got.Slug)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("tags = %v, want two entries", got.Tags)
	}

	record := fetchRecord(t, st, article.ID)
	if record.Status != store.RecordCompleted {
		t.Fatalf("record status = %q, want %q", record.Status, store.RecordCompleted)
	}
	if record.Progress != 100 {
		t.Fatalf("progress = %d, want 100", record.Progress)
	}
	if record.ResearchJSON == "" || record.AuditJSON == "" || record.SchemaJSON == "" {
		t.Fatal("expected research, audit, and schema payloads to be persisted")
	}

	names := store.ArtifactNames(record.ArtifactsJSON)
	for _, want := range []string{"research", "illustration", "audit", "schema"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("artifact %q missing, have %v", want, names)
		}
	}

	if stubs.updater.calls != 0 {
		t.Fatalf("updater calls = %d, want 0 on a clean run", stubs.updater.calls)
	}
	if stubs.remediator.calls != 0 {
		t.Fatalf("remediator calls = %d, want 0 when the audit passes", stubs.remediator.calls)
	}

	credits, err := st.ProjectCredits(context.Background(), cfg.Project.ID)
	if err != nil {
		t.Fatalf("ProjectCredits: %v", err)
	}
	if credits != 9 {
		t.Fatalf("credits = %d, want 9 after one deduction", credits)
	}
}

func TestGenerateResearchFailureRollsBack(t *testing.T) {
	cfg := pipelineConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Doomed Draft")
	stubs := newStubSet()
	stubs.researcher.err = errors.New("upstream offline")
	runner := newTestRunner(t, cfg, st, stubs)

	outcome, err := runner.Generate(context.Background(), article.ID)
	if err == nil {
		t.Fatal("expected an error from a failed research phase")
	}
	if outcome != store.Claimed {
		t.Fatalf("outcome = %q, want %q", outcome, store.Claimed)
	}
	if stubs.drafter.calls != 0 {
		t.Fatalf("drafter calls = %d, want 0 after research fails", stubs.drafter.calls)
	}

	got, err := st.GetArticle(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Status != store.ArticleDraft {
		t.Fatalf("article status = %q, want rollback to %q", got.Status, store.ArticleDraft)
	}

	record := fetchRecord(t, st, article.ID)
	if record.Status != store.RecordFailed {
		t.Fatalf("record status = %q, want %q", record.Status, store.RecordFailed)
	}
	if record.ErrorMessage == "" {
		t.Fatal("expected a persisted error message")
	}
	if !strings.Contains(record.ErrorDetailsJSON, "research") {
		t.Fatalf("error details = %q, want the failing phase recorded", record.ErrorDetailsJSON)
	}
}

func TestGenerateClaimConflict(t *testing.T) {
	cfg := pipelineConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Busy Article")

	outcome, err := st.TryClaim(context.Background(), article.ID)
	if err != nil || outcome != store.Claimed {
		t.Fatalf("seed claim = %q, %v", outcome, err)
	}

	stubs := newStubSet()
	runner := newTestRunner(t, cfg, st, stubs)
	outcome, err = runner.Generate(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if outcome != store.AlreadyActive {
		t.Fatalf("outcome = %q, want %q", outcome, store.AlreadyActive)
	}
	if stubs.researcher.calls != 0 {
		t.Fatalf("researcher calls = %d, want 0 when the claim is held", stubs.researcher.calls)
	}
}

func TestGenerateRemediationStopsAtBudget(t *testing.T) {
	cfg := pipelineConfig(t, testsupport.WithRemediationPasses(2))
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Low Scorer", "widgets")
	stubs := newStubSet()
	stubs.auditor.reports = []seo.Report{{Raw: `{"score": 10, "issues": []}`, Score: 10}}
	runner := newTestRunner(t, cfg, st, stubs)

	outcome, err := runner.Generate(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if outcome != store.Claimed {
		t.Fatalf("outcome = %q, want %q", outcome, store.Claimed)
	}
	if stubs.remediator.calls != 2 {
		t.Fatalf("remediator calls = %d, want exactly the configured budget of 2", stubs.remediator.calls)
	}
	if stubs.auditor.calls != 3 {
		t.Fatalf("auditor calls = %d, want 3 (initial plus one per pass)", stubs.auditor.calls)
	}

	record := fetchRecord(t, st, article.ID)
	if record.Status != store.RecordCompleted {
		t.Fatalf("record status = %q, want completion despite non-convergence", record.Status)
	}
	if !strings.Contains(record.AuditJSON, `"score": 10`) {
		t.Fatalf("audit json = %q, want the latest report persisted", record.AuditJSON)
	}
	if !strings.Contains(record.DraftText, "(remediated)") {
		t.Fatal("expected the remediated text to be persisted")
	}

	got, err := st.GetArticle(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Status != store.ArticleReady {
		t.Fatalf("article status = %q, want %q when no audit floor is configured", got.Status, store.ArticleReady)
	}
}

func TestGenerateOptionalFailuresDegrade(t *testing.T) {
	cfg := pipelineConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Resilient Article")
	stubs := newStubSet()
	stubs.illustrator.err = errors.New("imagery down")
	stubs.capturer.err = errors.New("snapshot down")
	stubs.reviewer.qcErr = errors.New("reviewer down")
	stubs.reviewer.valErr = errors.New("validator down")
	stubs.schema.err = errors.New("schema down")
	runner := newTestRunner(t, cfg, st, stubs)

	outcome, err := runner.Generate(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if outcome != store.Claimed {
		t.Fatalf("outcome = %q, want %q", outcome, store.Claimed)
	}

	got, err := st.GetArticle(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Status != store.ArticleReady {
		t.Fatalf("article status = %q, want %q", got.Status, store.ArticleReady)
	}

	record := fetchRecord(t, st, article.ID)
	if record.Status != store.RecordCompleted {
		t.Fatalf("record status = %q, want %q", record.Status, store.RecordCompleted)
	}
	if record.SchemaJSON != "" {
		t.Fatalf("schema json = %q, want empty after the schema phase failed", record.SchemaJSON)
	}
	if stubs.updater.calls != 0 {
		t.Fatalf("updater calls = %d, want 0 when validation degrades to clean", stubs.updater.calls)
	}
}

func TestGenerateAuditFailureIsFatal(t *testing.T) {
	cfg := pipelineConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Unauditable")
	stubs := newStubSet()
	stubs.auditor.err = errors.New("audit service down")
	runner := newTestRunner(t, cfg, st, stubs)

	if _, err := runner.Generate(context.Background(), article.ID); err == nil {
		t.Fatal("expected an audit failure to abort the attempt")
	}

	got, err := st.GetArticle(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Status != store.ArticleDraft {
		t.Fatalf("article status = %q, want rollback to %q", got.Status, store.ArticleDraft)
	}
	record := fetchRecord(t, st, article.ID)
	if record.Status != store.RecordFailed {
		t.Fatalf("record status = %q, want %q", record.Status, store.RecordFailed)
	}
}

func TestGenerateUpdatePassAppliesFeedback(t *testing.T) {
	cfg := pipelineConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Needs Fixes")
	stubs := newStubSet()
	stubs.reviewer.validation = writer.ValidationResult{
		IsValid: false,
		Issues:  []string{"pricing figure is unverified"},
		Raw:     `{"is_valid": false, "issues": ["pricing figure is unverified"]}`,
	}
	stubs.updater.out = "# Widget Guide\n\nA corrected guide to widgets.\n"
	runner := newTestRunner(t, cfg, st, stubs)

	if _, err := runner.Generate(context.Background(), article.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if stubs.updater.calls != 1 {
		t.Fatalf("updater calls = %d, want 1", stubs.updater.calls)
	}
	if !strings.Contains(stubs.updater.lastFeedback, "Fact validation issues") {
		t.Fatalf("feedback = %q, want the validation section included", stubs.updater.lastFeedback)
	}
	if !strings.Contains(stubs.updater.lastFeedback, "pricing figure is unverified") {
		t.Fatalf("feedback = %q, want the flagged issue included", stubs.updater.lastFeedback)
	}

	got, err := st.GetArticle(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.FinalText != stubs.updater.out {
		t.Fatalf("final text = %q, want the updated draft", got.FinalText)
	}
}

func TestGenerateComplianceRecheckAfterUpdate(t *testing.T) {
	cfg := pipelineConfig(t, testsupport.WithStructure(
		config.SectionSpec{ID: "title", Type: "title", Required: true},
		config.SectionSpec{ID: "overview", Type: "body", Heading: "Overview", Required: true},
	))
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Structured Article")
	stubs := newStubSet()
	// Two top-level titles and no Overview section fail the template.
	stubs.drafter.result.Text = "# First Title\n\n# Second Title\n\nStray words here.\n"
	stubs.updater.out = "# Structured Article\n\nIntro words.\n\n## Overview\n\nNow the overview exists.\n"
	runner := newTestRunner(t, cfg, st, stubs)

	if _, err := runner.Generate(context.Background(), article.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if stubs.updater.calls != 1 {
		t.Fatalf("updater calls = %d, want 1", stubs.updater.calls)
	}
	if !strings.Contains(stubs.updater.lastFeedback, "Structure issues") {
		t.Fatalf("feedback = %q, want the structure section included", stubs.updater.lastFeedback)
	}

	record := fetchRecord(t, st, article.ID)
	raw, ok, err := st.Artifact(context.Background(), record.ID, "compliance")
	if err != nil || !ok {
		t.Fatalf("compliance artifact missing: ok=%v err=%v", ok, err)
	}
	var result struct {
		IsCompliant bool `json:"is_compliant"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode compliance artifact: %v", err)
	}
	if !result.IsCompliant {
		t.Fatal("expected the re-checked compliance result to pass after the update")
	}
}

func TestGenerateOptionalPhaseTimeoutDegrades(t *testing.T) {
	cfg := pipelineConfig(t)
	cfg.Workflow.PhaseTimeoutSeconds = 1
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Slow Imagery")
	stubs := newStubSet()
	collab := stubs.collaborators()
	collab.Illustrator = blockingIllustrator{}
	runner, err := pipeline.NewRunner(cfg, st, logging.NewNop(), collab)
	if err != nil {
		t.Fatalf("pipeline.NewRunner: %v", err)
	}

	outcome, err := runner.Generate(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if outcome != store.Claimed {
		t.Fatalf("outcome = %q, want %q", outcome, store.Claimed)
	}
	if stubs.drafter.calls != 1 {
		t.Fatalf("drafter calls = %d, want the attempt to continue past the timeout", stubs.drafter.calls)
	}

	got, err := st.GetArticle(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Status != store.ArticleReady {
		t.Fatalf("article status = %q, want %q", got.Status, store.ArticleReady)
	}
	record := fetchRecord(t, st, article.ID)
	for _, name := range store.ArtifactNames(record.ArtifactsJSON) {
		if name == "illustration" {
			t.Fatal("unexpected illustration artifact after the phase timed out")
		}
	}
}

func TestGenerateRequiredPhaseTimeoutIsFatal(t *testing.T) {
	cfg := pipelineConfig(t)
	cfg.Workflow.PhaseTimeoutSeconds = 1
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Slow Research")
	stubs := newStubSet()
	collab := stubs.collaborators()
	collab.Researcher = blockingResearcher{}
	runner, err := pipeline.NewRunner(cfg, st, logging.NewNop(), collab)
	if err != nil {
		t.Fatalf("pipeline.NewRunner: %v", err)
	}

	_, err = runner.Generate(context.Background(), article.ID)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("Generate error = %v, want a timeout classification", err)
	}
	if stubs.drafter.calls != 0 {
		t.Fatalf("drafter calls = %d, want 0 after the research deadline", stubs.drafter.calls)
	}

	got, err := st.GetArticle(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Status != store.ArticleDraft {
		t.Fatalf("article status = %q, want rollback to %q", got.Status, store.ArticleDraft)
	}
	record := fetchRecord(t, st, article.ID)
	if record.Status != store.RecordFailed {
		t.Fatalf("record status = %q, want %q", record.Status, store.RecordFailed)
	}
	if !strings.Contains(record.ErrorDetailsJSON, "timeout") {
		t.Fatalf("error details = %q, want the timeout kind recorded", record.ErrorDetailsJSON)
	}
	if !strings.Contains(record.ErrorDetailsJSON, "research") {
		t.Fatalf("error details = %q, want the failing phase recorded", record.ErrorDetailsJSON)
	}
}

func TestGenerateRemediationReauditHonorsPhaseTimeout(t *testing.T) {
	cfg := pipelineConfig(t, testsupport.WithRemediationPasses(3))
	cfg.Workflow.PhaseTimeoutSeconds = 1
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Slow Re-Audit")
	stubs := newStubSet()
	auditor := &stallingAuditor{first: seo.Report{Raw: `{"score": 10, "issues": []}`, Score: 10}}
	collab := stubs.collaborators()
	collab.Auditor = auditor
	runner, err := pipeline.NewRunner(cfg, st, logging.NewNop(), collab)
	if err != nil {
		t.Fatalf("pipeline.NewRunner: %v", err)
	}

	outcome, err := runner.Generate(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if outcome != store.Claimed {
		t.Fatalf("outcome = %q, want %q", outcome, store.Claimed)
	}
	if stubs.remediator.calls != 1 {
		t.Fatalf("remediator calls = %d, want the loop to stop after the re-audit deadline", stubs.remediator.calls)
	}
	if auditor.calls != 2 {
		t.Fatalf("auditor calls = %d, want the initial audit plus one timed-out re-audit", auditor.calls)
	}

	record := fetchRecord(t, st, article.ID)
	if record.Status != store.RecordCompleted {
		t.Fatalf("record status = %q, want completion despite the stalled re-audit", record.Status)
	}
	if !strings.Contains(record.AuditJSON, `"score": 10`) {
		t.Fatalf("audit json = %q, want the last good report persisted", record.AuditJSON)
	}
}
