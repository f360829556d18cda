package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scribe/internal/compliance"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/services/writer"
	"scribe/internal/store"
	"scribe/internal/textutil"
)

// finalize persists the finished text onto the article, decides between
// ready and review, deducts one project credit, and closes the record.
func (r *Runner) finalize(ctx context.Context, logger *slog.Logger, gen *generation) error {
	gen.phase = phaseFinalize
	if err := r.store.Advance(ctx, gen.record.ID, store.RecordFinalizing, progressSchema, store.RecordPatch{}); err != nil {
		return err
	}

	gen.article.FinalText = gen.text
	if gen.draft.Slug != "" {
		gen.article.Slug = gen.draft.Slug
	} else if gen.article.Slug == "" {
		gen.article.Slug = textutil.Slugify(gen.article.Title)
	}
	if gen.draft.Summary != "" {
		gen.article.Summary = gen.draft.Summary
	}
	if len(gen.draft.Tags) > 0 {
		gen.article.Tags = gen.draft.Tags
	}

	reasons := r.reviewReasons(gen)
	if len(reasons) == 0 {
		gen.article.Status = store.ArticleReady
	} else {
		gen.article.Status = store.ArticleReview
		logger.Info("article held for review",
			logging.String(logging.FieldPhase, phaseFinalize),
			logging.String("reasons", strings.Join(reasons, "; ")))
	}

	if err := r.store.UpdateArticle(ctx, gen.article); err != nil {
		return services.Wrap(services.ErrTransient, phaseFinalize, "persist", "store finished article", err)
	}

	deducted, err := r.store.DeductCredit(ctx, r.cfg.Project.ID)
	if err != nil {
		logger.Warn("deduct project credit", logging.Error(err))
	} else if !deducted {
		logger.Warn("project credits exhausted",
			logging.String("project_id", r.cfg.Project.ID))
	}

	if err := r.store.MarkCompleted(ctx, gen.record.ID); err != nil {
		return services.Wrap(services.ErrTransient, phaseFinalize, "persist", "close generation record", err)
	}
	return nil
}

// reviewReasons evaluates the publish checklist. An empty result means the
// article can go straight to ready.
func (r *Runner) reviewReasons(gen *generation) []string {
	var reasons []string
	pub := r.cfg.Publish

	if pub.RequireIllustration && gen.illustration.IsEmpty() {
		reasons = append(reasons, "no cover illustration selected")
	}
	if pub.RequireCompliance && !r.template.IsEmpty() {
		if gen.compliance == nil || !gen.compliance.IsCompliant {
			reasons = append(reasons, "draft does not meet the structure template")
		}
	}
	if pub.MinWords > 0 {
		if words := textutil.WordCount(gen.text); words < pub.MinWords {
			reasons = append(reasons, fmt.Sprintf("draft has %d words, need %d", words, pub.MinWords))
		}
	}
	if pub.MinAuditScore > 0 && (!gen.audited || gen.audit.Score < pub.MinAuditScore) {
		reasons = append(reasons, fmt.Sprintf("audit score %.0f below %.0f", gen.audit.Score, pub.MinAuditScore))
	}
	return reasons
}

// buildFeedback concatenates validation, editorial, and structural findings
// into one feedback document for the update pass. An empty return means
// nothing flagged the draft.
func buildFeedback(validation writer.ValidationResult, qcIssues string, comp *compliance.Result) string {
	var sections []string

	if validation.HasIssues() {
		var b strings.Builder
		b.WriteString("## Fact validation issues\n")
		for _, issue := range validation.Issues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
		sections = append(sections, b.String())
	}

	if strings.TrimSpace(qcIssues) != "" {
		sections = append(sections, "## Editorial issues\n"+strings.TrimSpace(qcIssues)+"\n")
	}

	if comp != nil && !comp.IsCompliant {
		var b strings.Builder
		b.WriteString("## Structure issues\n")
		for _, v := range comp.Violations {
			fmt.Fprintf(&b, "- [%s] %s\n", v.Severity, v.Description)
		}
		for _, rec := range comp.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		sections = append(sections, b.String())
	}

	if len(sections) == 0 {
		return ""
	}
	return strings.Join(sections, "\n")
}
