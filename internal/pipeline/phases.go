package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"scribe/internal/compliance"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/services/imagery"
	"scribe/internal/services/seo"
	"scribe/internal/services/writer"
	"scribe/internal/store"
)

// generation is the working state of one attempt. It lives on the runner
// goroutine only; durable state is persisted through the store at each
// checkpoint.
type generation struct {
	article      *store.Article
	record       *store.GenerationRecord
	phase        string
	research     writer.ResearchPayload
	illustration imagery.Illustration
	draft        writer.DraftResult
	text         string
	screenshots  map[string]string
	qcIssues     string
	validation   writer.ValidationResult
	audit        seo.Report
	audited      bool
	compliance   *compliance.Result
	converged    bool
	passes       int
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, gen *generation) error {
	if err := r.researchPhase(ctx, logger, gen); err != nil {
		return err
	}
	r.illustrationPhase(ctx, logger, gen)
	if err := r.draftPhase(ctx, logger, gen); err != nil {
		return err
	}
	r.screenshotPhase(ctx, logger, gen)
	r.qualityPhase(ctx, logger, gen)
	if err := r.reviewPhase(ctx, logger, gen); err != nil {
		return err
	}
	r.compliancePhase(ctx, logger, gen)
	r.updatePhase(ctx, logger, gen)
	if err := r.remediationPhase(ctx, logger, gen); err != nil {
		return err
	}
	r.schemaPhase(ctx, logger, gen)
	return r.finalize(ctx, logger, gen)
}

func (r *Runner) researchPhase(ctx context.Context, logger *slog.Logger, gen *generation) error {
	if err := r.store.Advance(ctx, gen.record.ID, store.RecordResearching, progressClaimed, store.RecordPatch{}); err != nil {
		return err
	}
	return r.phase(ctx, logger, gen, phaseResearch, func(ctx context.Context) error {
		payload, err := r.collab.Researcher.Research(ctx, writer.ResearchRequest{
			Title:           gen.article.Title,
			Keywords:        gen.article.Keywords,
			Notes:           gen.article.Notes,
			ExcludedDomains: r.cfg.Project.ExcludedDomains,
		})
		if err != nil {
			return services.Wrap(services.ErrExternalService, phaseResearch, "research", "gather background sources", err)
		}
		gen.research = payload
		raw, err := json.Marshal(payload)
		if err != nil {
			return services.Wrap(services.ErrValidation, phaseResearch, "encode", "encode research payload", err)
		}
		researchJSON := string(raw)
		if err := r.store.Advance(ctx, gen.record.ID, store.RecordIllustrating, progressResearch, store.RecordPatch{ResearchJSON: &researchJSON}); err != nil {
			return err
		}
		return r.store.MergeArtifact(ctx, gen.record.ID, "research", raw)
	})
}

// illustrationPhase is optional: a missing or failing imagery service leaves
// the article without a cover image but never aborts the attempt.
func (r *Runner) illustrationPhase(ctx context.Context, logger *slog.Logger, gen *generation) {
	if r.collab.Illustrator == nil || !r.collab.Illustrator.Enabled() {
		return
	}
	ok := r.optionalPhase(ctx, logger, gen, phaseIllustration, func(ctx context.Context) error {
		pick, err := r.collab.Illustrator.Pick(ctx, gen.article.Title, gen.article.Keywords)
		if err != nil {
			return services.Wrap(services.ErrExternalService, phaseIllustration, "pick", "search cover illustration", err)
		}
		gen.illustration = pick
		if pick.IsEmpty() {
			return nil
		}
		raw, err := json.Marshal(pick)
		if err != nil {
			return err
		}
		return r.store.MergeArtifact(ctx, gen.record.ID, "illustration", raw)
	})
	if ok {
		if err := r.store.Advance(ctx, gen.record.ID, store.RecordIllustrating, progressIllustration, store.RecordPatch{}); err != nil {
			logger.Warn("record illustration progress", logging.Error(err))
		}
	}
}

func (r *Runner) draftPhase(ctx context.Context, logger *slog.Logger, gen *generation) error {
	if err := r.store.Advance(ctx, gen.record.ID, store.RecordDrafting, progressIllustration, store.RecordPatch{}); err != nil {
		return err
	}
	return r.phase(ctx, logger, gen, phaseDrafting, func(ctx context.Context) error {
		draft, err := r.collab.Drafter.Draft(ctx, writer.DraftRequest{
			Title:        gen.article.Title,
			Keywords:     gen.article.Keywords,
			Notes:        gen.article.Notes,
			Tone:         r.cfg.Article.Tone,
			Language:     r.cfg.Article.Language,
			TargetWords:  r.cfg.Article.TargetWords,
			Research:     gen.research,
			Illustration: gen.illustration,
			RelatedJSON:  gen.record.RelatedJSON,
			Template:     r.template,
		})
		if err != nil {
			return services.Wrap(services.ErrExternalService, phaseDrafting, "draft", "generate article draft", err)
		}
		gen.draft = draft
		gen.text = draft.Text
		return r.store.Advance(ctx, gen.record.ID, store.RecordCapturing, progressDraft, store.RecordPatch{DraftText: &draft.Text})
	})
}

func (r *Runner) screenshotPhase(ctx context.Context, logger *slog.Logger, gen *generation) {
	if r.collab.Capturer == nil || !r.collab.Capturer.Enabled() {
		return
	}
	r.optionalPhase(ctx, logger, gen, phaseScreenshots, func(ctx context.Context) error {
		result, err := r.collab.Capturer.Capture(ctx, gen.text)
		if err != nil {
			return services.Wrap(services.ErrExternalService, phaseScreenshots, "capture", "capture linked pages", err)
		}
		gen.screenshots = result.Screenshots
		if len(result.Screenshots) == 0 {
			return nil
		}
		raw, err := json.Marshal(result.Screenshots)
		if err != nil {
			return err
		}
		if err := r.store.MergeArtifact(ctx, gen.record.ID, "screenshots", raw); err != nil {
			return err
		}
		return r.store.Advance(ctx, gen.record.ID, store.RecordCapturing, progressScreenshots, store.RecordPatch{})
	})
}

// qualityPhase asks the reviewer for editorial issues. An empty report means
// the draft passed; any failure degrades to "no issues" so the attempt keeps
// moving.
func (r *Runner) qualityPhase(ctx context.Context, logger *slog.Logger, gen *generation) {
	r.optionalPhase(ctx, logger, gen, phaseQuality, func(ctx context.Context) error {
		issues, err := r.collab.Reviewer.QualityControl(ctx, gen.text, gen.draft.Prompt)
		if err != nil {
			return services.Wrap(services.ErrExternalService, phaseQuality, "review", "editorial quality pass", err)
		}
		gen.qcIssues = issues
		patch := store.RecordPatch{QualityReport: &issues}
		return r.store.Advance(ctx, gen.record.ID, store.RecordReviewing, progressQuality, patch)
	})
}

// reviewPhase runs fact validation and the external audit concurrently; both
// read the same frozen draft. Validation degrades to a clean result, while an
// audit failure aborts the attempt because the score gates remediation and
// publication.
func (r *Runner) reviewPhase(ctx context.Context, logger *slog.Logger, gen *generation) error {
	gen.phase = phaseValidation
	if err := r.store.Advance(ctx, gen.record.ID, store.RecordValidating, progressQuality, store.RecordPatch{}); err != nil {
		return err
	}

	var (
		wg            sync.WaitGroup
		validation    writer.ValidationResult
		validationErr error
		audit         seo.Report
		auditErr      error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		validationErr = r.runPhase(ctx, logger, phaseValidation, func(ctx context.Context) error {
			result, err := r.collab.Reviewer.Validate(ctx, gen.text)
			if err != nil {
				return services.Wrap(services.ErrExternalService, phaseValidation, "validate", "fact validation pass", err)
			}
			validation = result
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		auditErr = r.runPhase(ctx, logger, phaseAudit, func(ctx context.Context) error {
			report, err := r.collab.Auditor.Audit(ctx, gen.text, gen.article.Keywords)
			if err != nil {
				return services.Wrap(services.ErrExternalService, phaseAudit, "audit", "score draft", err)
			}
			audit = report
			return nil
		})
	}()
	wg.Wait()

	if auditErr != nil {
		gen.phase = phaseAudit
		return auditErr
	}
	gen.audit = audit
	gen.audited = true

	if validationErr != nil {
		logger.Warn("optional phase skipped",
			logging.String(logging.FieldPhase, phaseValidation),
			logging.String("error_kind", services.Kind(validationErr)),
			logging.Error(validationErr))
		validation = writer.ValidationResult{IsValid: true}
	}
	gen.validation = validation

	patch := store.RecordPatch{
		ValidationReport: &validation.Raw,
		AuditJSON:        &audit.Raw,
	}
	if err := r.store.Advance(ctx, gen.record.ID, store.RecordValidating, progressReview, patch); err != nil {
		return err
	}
	if err := r.store.MergeArtifact(ctx, gen.record.ID, "audit", []byte(audit.Raw)); err != nil {
		return err
	}
	if validation.Raw != "" {
		if err := r.store.MergeArtifact(ctx, gen.record.ID, "validation", []byte(validation.Raw)); err != nil {
			return err
		}
	}
	return nil
}

// compliancePhase checks the draft against the configured structure template.
// It runs locally and cannot fail; with no template configured it is a no-op.
func (r *Runner) compliancePhase(ctx context.Context, logger *slog.Logger, gen *generation) {
	if r.template.IsEmpty() {
		return
	}
	gen.phase = phaseCompliance
	result := compliance.Validate(compliance.Parse(gen.text), r.template)
	gen.compliance = &result
	logger.Info("structure compliance checked",
		logging.String(logging.FieldPhase, phaseCompliance),
		logging.Bool("compliant", result.IsCompliant),
		logging.Int("score", result.Score),
		logging.Int("violations", len(result.Violations)))

	raw, err := json.Marshal(result)
	if err == nil {
		err = r.store.MergeArtifact(ctx, gen.record.ID, "compliance", raw)
	}
	if err == nil {
		err = r.store.Advance(ctx, gen.record.ID, store.RecordValidating, progressCompliance, store.RecordPatch{})
	}
	if err != nil {
		logger.Warn("persist compliance result", logging.Error(err))
	}
}

// updatePhase applies accumulated review feedback in a single rewrite. When
// the structure check contributed feedback, compliance is re-evaluated on the
// updated draft so the persisted result matches the text that ships.
func (r *Runner) updatePhase(ctx context.Context, logger *slog.Logger, gen *generation) {
	feedback := buildFeedback(gen.validation, gen.qcIssues, gen.compliance)
	if feedback == "" {
		return
	}
	structural := gen.compliance != nil && !gen.compliance.IsCompliant
	r.optionalPhase(ctx, logger, gen, phaseUpdate, func(ctx context.Context) error {
		updated, err := r.collab.Updater.Update(ctx, gen.text, feedback)
		if err != nil {
			return services.Wrap(services.ErrExternalService, phaseUpdate, "update", "apply review feedback", err)
		}
		gen.text = updated
		return r.store.Advance(ctx, gen.record.ID, store.RecordRemediating, progressUpdate, store.RecordPatch{DraftText: &updated})
	})
	if structural {
		result := compliance.Validate(compliance.Parse(gen.text), r.template)
		gen.compliance = &result
		if raw, err := json.Marshal(result); err == nil {
			if err := r.store.MergeArtifact(ctx, gen.record.ID, "compliance", raw); err != nil {
				logger.Warn("persist compliance result", logging.Error(err))
			}
		}
	}
}

// remediationPhase loops audit and rewrite until the quality gates pass or
// the pass budget runs out. The loop fails open: a non-converging draft is
// finalized with its latest score rather than failed.
func (r *Runner) remediationPhase(ctx context.Context, logger *slog.Logger, gen *generation) error {
	if err := r.store.Advance(ctx, gen.record.ID, store.RecordRemediating, progressRemediation, store.RecordPatch{}); err != nil {
		return err
	}
	gen.converged = gen.audited && seo.PassesQualityGates(gen.audit, r.cfg.Audit)
	if gen.converged || r.cfg.Remediation.MaxPasses <= 0 {
		return nil
	}

	validationJSON := gen.validation.Raw
	for pass := 1; pass <= r.cfg.Remediation.MaxPasses; pass++ {
		gen.passes = pass
		var rewritten string
		err := r.phase(ctx, logger, gen, phaseRemediation, func(ctx context.Context) error {
			updated, err := r.collab.Remediator.Remediate(ctx, gen.text, gen.audit.Raw, validationJSON, gen.article.Keywords)
			if err != nil {
				return services.Wrap(services.ErrExternalService, phaseRemediation, "remediate", "rewrite for audit findings", err)
			}
			rewritten = updated
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			logger.Warn("remediation pass failed",
				logging.Int("pass", pass),
				logging.Error(err))
			break
		}
		gen.text = rewritten

		var report seo.Report
		err = r.phase(ctx, logger, gen, phaseAudit, func(ctx context.Context) error {
			reaudit, err := r.collab.Auditor.Audit(ctx, gen.text, gen.article.Keywords)
			if err != nil {
				return services.Wrap(services.ErrExternalService, phaseAudit, "audit", "score remediated draft", err)
			}
			report = reaudit
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			logger.Warn("re-audit after remediation failed",
				logging.Int("pass", pass),
				logging.Error(err))
			break
		}
		gen.audit = report

		progress := progressRemediation + 5*pass
		if progress > progressSchema-5 {
			progress = progressSchema - 5
		}
		patch := store.RecordPatch{DraftText: &gen.text, AuditJSON: &report.Raw}
		if err := r.store.Advance(ctx, gen.record.ID, store.RecordRemediating, progress, patch); err != nil {
			return err
		}
		if err := r.store.MergeArtifact(ctx, gen.record.ID, "audit", []byte(report.Raw)); err != nil {
			return err
		}

		if seo.PassesQualityGates(report, r.cfg.Audit) {
			gen.converged = true
			logger.Info("remediation converged",
				logging.Int("pass", pass),
				logging.Float64("score", report.Score))
			return nil
		}
	}

	logger.Warn("remediation did not converge",
		logging.Int("passes", gen.passes),
		logging.Float64("score", gen.audit.Score))
	return nil
}

func (r *Runner) schemaPhase(ctx context.Context, logger *slog.Logger, gen *generation) {
	r.optionalPhase(ctx, logger, gen, phaseSchema, func(ctx context.Context) error {
		blob, err := r.collab.Schema.Generate(ctx, writer.SchemaRequest{
			Title:   gen.article.Title,
			Slug:    gen.draft.Slug,
			Summary: gen.draft.Summary,
			Tags:    gen.draft.Tags,
			Text:    gen.text,
		})
		if err != nil {
			return services.Wrap(services.ErrExternalService, phaseSchema, "generate", "generate JSON-LD schema", err)
		}
		if err := r.store.MergeArtifact(ctx, gen.record.ID, "schema", []byte(blob)); err != nil {
			return err
		}
		return r.store.Advance(ctx, gen.record.ID, store.RecordFinalizing, progressSchema, store.RecordPatch{SchemaJSON: &blob})
	})
}
