package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/store"
	"scribe/internal/structure"
)

// Phase names as they appear in logs, error details, and persisted failure
// records.
const (
	phaseResearch     = "research"
	phaseIllustration = "illustration"
	phaseDrafting     = "drafting"
	phaseScreenshots  = "screenshots"
	phaseQuality      = "quality_control"
	phaseValidation   = "validation"
	phaseAudit        = "audit"
	phaseCompliance   = "compliance"
	phaseUpdate       = "update"
	phaseRemediation  = "remediation"
	phaseSchema       = "schema"
	phaseFinalize     = "finalize"
)

// Progress checkpoints per phase. The store clamps progress monotonically, so
// a retried attempt never appears to move backwards.
const (
	progressClaimed      = 5
	progressResearch     = 10
	progressIllustration = 20
	progressDraft        = 40
	progressScreenshots  = 50
	progressQuality      = 55
	progressReview       = 65
	progressCompliance   = 70
	progressUpdate       = 75
	progressRemediation  = 80
	progressSchema       = 95
)

// Runner executes generation attempts against the store.
type Runner struct {
	cfg      *config.Config
	store    *store.Store
	logger   *slog.Logger
	collab   Collaborators
	template *structure.Template
}

// NewRunner validates the collaborator set and compiles the structure
// template once so every attempt validates against the same sections.
func NewRunner(cfg *config.Config, st *store.Store, logger *slog.Logger, collab Collaborators) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if st == nil {
		return nil, errors.New("pipeline: store is required")
	}
	if err := collab.validate(); err != nil {
		return nil, err
	}
	tmpl, err := structure.FromConfig(cfg.Structure)
	if err != nil {
		return nil, fmt.Errorf("compile structure template: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		store:    st,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		collab:   collab,
		template: tmpl,
	}, nil
}

// Generate claims the article and runs the full phase sequence against it.
// A non-Claimed outcome is a normal answer, not an error: the caller decides
// whether to requeue, skip, or report it. When the outcome is Claimed the
// returned error reflects the attempt itself.
func (r *Runner) Generate(ctx context.Context, articleID int64) (store.ClaimOutcome, error) {
	ctx = services.WithArticleID(ctx, articleID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, r.logger)

	outcome, err := r.store.TryClaim(ctx, articleID)
	if err != nil {
		return store.NotClaimable, fmt.Errorf("claim article %d: %w", articleID, err)
	}
	if outcome != store.Claimed {
		logger.Info("article not claimed",
			logging.String("outcome", string(outcome)),
			logging.String(logging.FieldEventType, "claim_skipped"))
		return outcome, nil
	}

	article, err := r.store.GetArticle(ctx, articleID)
	if err == nil && article == nil {
		err = services.Wrap(services.ErrNotFound, "", "load", fmt.Sprintf("article %d disappeared after claim", articleID), nil)
	}
	if err != nil {
		r.rollbackArticle(ctx, logger, articleID)
		return store.Claimed, err
	}

	record, err := r.store.CreateOrReset(ctx, articleID)
	if err != nil {
		r.rollbackArticle(ctx, logger, articleID)
		return store.Claimed, fmt.Errorf("reset generation record: %w", err)
	}
	logger = logger.With(logging.Int64(logging.FieldRecordID, record.ID))
	logger.Info("generation started", logging.String(logging.FieldEventType, "generation_start"))

	gen := &generation{article: article, record: record}
	if err := r.run(ctx, logger, gen); err != nil {
		r.fail(ctx, logger, gen, err)
		return store.Claimed, err
	}
	logger.Info("generation finished",
		logging.String("article_status", string(gen.article.Status)),
		logging.Bool("converged", gen.converged),
		logging.String(logging.FieldEventType, "generation_complete"))
	return store.Claimed, nil
}

// phase wraps one step with its timeout, phase-tagged logging, and timeout
// classification. fn receives a context that expires independently of the
// overall attempt.
func (r *Runner) phase(ctx context.Context, logger *slog.Logger, gen *generation, name string, fn func(context.Context) error) error {
	gen.phase = name
	return r.runPhase(ctx, logger, name, fn)
}

// runPhase is the gen-free core of phase, safe to call from concurrent
// goroutines.
func (r *Runner) runPhase(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	pctx := services.WithPhase(ctx, name)
	if timeout := r.phaseTimeout(name); timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(pctx, timeout)
		defer cancel()
	}
	plog := logger.With(logging.String(logging.FieldPhase, name))
	plog.Debug("phase started")
	start := time.Now()
	err := fn(pctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = services.Wrap(services.ErrTimeout, name, "", "phase deadline exceeded", err)
		}
		return err
	}
	plog.Debug("phase completed", logging.Duration("elapsed", time.Since(start)))
	return nil
}

// optionalPhase runs a phase whose failure degrades the article instead of
// aborting the attempt. It reports whether the phase succeeded.
func (r *Runner) optionalPhase(ctx context.Context, logger *slog.Logger, gen *generation, name string, fn func(context.Context) error) bool {
	if err := r.phase(ctx, logger, gen, name, fn); err != nil {
		if ctx.Err() != nil {
			return false
		}
		logger.Warn("optional phase skipped",
			logging.String(logging.FieldPhase, name),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err))
		return false
	}
	return true
}

func (r *Runner) phaseTimeout(name string) time.Duration {
	seconds := r.cfg.Workflow.PhaseTimeoutSeconds
	if name == phaseDrafting {
		seconds = r.cfg.Workflow.DraftTimeoutSeconds
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// fail rolls the article back to draft and marks the record failed. The two
// writes run on a cancel-proof context and are independent, so a partial
// rollback still leaves one usable signal; each failure is logged rather
// than propagated.
func (r *Runner) fail(ctx context.Context, logger *slog.Logger, gen *generation, cause error) {
	logger.Error("generation failed",
		logging.String(logging.FieldPhase, gen.phase),
		logging.String("error_kind", services.Kind(cause)),
		logging.String(logging.FieldEventType, "generation_failed"),
		logging.Error(cause))

	cleanupCtx := context.WithoutCancel(ctx)
	r.rollbackArticle(cleanupCtx, logger, gen.article.ID)

	details, _ := json.Marshal(map[string]string{
		"kind":  services.Kind(cause),
		"phase": gen.phase,
	})
	if err := r.store.MarkFailed(cleanupCtx, gen.record.ID, cause.Error(), string(details)); err != nil {
		logger.Error("mark record failed", logging.Error(err))
	}
}

func (r *Runner) rollbackArticle(ctx context.Context, logger *slog.Logger, articleID int64) {
	if err := r.store.SetArticleStatus(context.WithoutCancel(ctx), articleID, store.ArticleDraft); err != nil {
		logger.Error("release article claim", logging.Error(err))
	}
}
