package store_test

import (
	"context"
	"sync"
	"testing"

	"scribe/internal/store"
	"scribe/internal/testsupport"
)

func TestEnqueueAndFetch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	article, err := st.Enqueue(ctx, cfg.Project.ID, "Choosing a Standing Desk", []string{"standing desk", "ergonomics"}, "mention the cable tray")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if article.ID == 0 {
		t.Fatal("expected article ID to be assigned")
	}
	if article.Status != store.ArticleQueued {
		t.Fatalf("expected queued status, got %s", article.Status)
	}
	if article.Slug != "choosing-a-standing-desk" {
		t.Fatalf("unexpected slug %q", article.Slug)
	}

	fetched, err := st.GetArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Choosing a Standing Desk" {
		t.Fatalf("unexpected fetched article: %#v", fetched)
	}
	if len(fetched.Keywords) != 2 || fetched.Keywords[0] != "standing desk" {
		t.Fatalf("unexpected keywords: %#v", fetched.Keywords)
	}

	missing, err := st.GetArticle(ctx, article.ID+100)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing article, got %#v", missing)
	}
}

func TestTryClaimExclusivity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	article := testsupport.EnqueueArticle(t, st, cfg, "Claim Target")

	const workers = 8
	outcomes := make([]store.ClaimOutcome, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			outcomes[slot], errs[slot] = st.TryClaim(context.Background(), article.ID)
		}(i)
	}
	wg.Wait()

	claimed, active := 0, 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("TryClaim %d failed: %v", i, errs[i])
		}
		switch outcomes[i] {
		case store.Claimed:
			claimed++
		case store.AlreadyActive:
			active++
		default:
			t.Fatalf("unexpected outcome %s", outcomes[i])
		}
	}
	if claimed != 1 {
		t.Fatalf("expected exactly one claim winner, got %d", claimed)
	}
	if active != workers-1 {
		t.Fatalf("expected %d already-active outcomes, got %d", workers-1, active)
	}
}

func TestTryClaimTerminalStates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	article := testsupport.EnqueueArticle(t, st, cfg, "Published Piece")
	if err := st.SetArticleStatus(ctx, article.ID, store.ArticlePublished); err != nil {
		t.Fatalf("SetArticleStatus failed: %v", err)
	}
	outcome, err := st.TryClaim(ctx, article.ID)
	if err != nil {
		t.Fatalf("TryClaim failed: %v", err)
	}
	if outcome != store.NotClaimable {
		t.Fatalf("expected not_claimable for published article, got %s", outcome)
	}

	outcome, err = st.TryClaim(ctx, article.ID+100)
	if err != nil {
		t.Fatalf("TryClaim failed: %v", err)
	}
	if outcome != store.NotClaimable {
		t.Fatalf("expected not_claimable for missing article, got %s", outcome)
	}
}

func TestCreateOrResetIdempotence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.EnqueueArticle(t, st, cfg, "Reset Target")

	first, err := st.CreateOrReset(ctx, article.ID)
	if err != nil {
		t.Fatalf("CreateOrReset failed: %v", err)
	}
	if first.Status != store.RecordPending || first.Progress != 0 {
		t.Fatalf("unexpected fresh record: %#v", first)
	}

	draft := "# Draft"
	related := `[{"id":7}]`
	if err := st.Advance(ctx, first.ID, store.RecordDrafting, 40, store.RecordPatch{
		DraftText:   &draft,
		RelatedJSON: &related,
	}); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := st.MergeArtifact(ctx, first.ID, "research", []byte(`{"sources":[]}`)); err != nil {
		t.Fatalf("MergeArtifact failed: %v", err)
	}

	second, err := st.CreateOrReset(ctx, article.ID)
	if err != nil {
		t.Fatalf("CreateOrReset failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected record reuse, got ids %d and %d", first.ID, second.ID)
	}
	if second.Status != store.RecordPending || second.Progress != 0 {
		t.Fatalf("expected reset to pending/0, got %s/%d", second.Status, second.Progress)
	}
	if second.DraftText != "" || second.ArtifactsJSON != "{}" {
		t.Fatalf("expected phase payloads wiped, got %#v", second)
	}
	if second.RelatedJSON != related {
		t.Fatalf("expected related links preserved across reset, got %q", second.RelatedJSON)
	}
}

func TestAdvanceProgressIsMonotonic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.EnqueueArticle(t, st, cfg, "Progress Target")

	record, err := st.CreateOrReset(ctx, article.ID)
	if err != nil {
		t.Fatalf("CreateOrReset failed: %v", err)
	}

	if err := st.Advance(ctx, record.ID, store.RecordValidating, 70, store.RecordPatch{}); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := st.Advance(ctx, record.ID, store.RecordValidating, 55, store.RecordPatch{}); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	updated, err := st.GetRecord(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if updated.Progress != 70 {
		t.Fatalf("expected progress to hold at 70, got %d", updated.Progress)
	}
}

func TestMergeArtifactKeepsOtherFragments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.EnqueueArticle(t, st, cfg, "Artifact Target")

	record, err := st.CreateOrReset(ctx, article.ID)
	if err != nil {
		t.Fatalf("CreateOrReset failed: %v", err)
	}

	if err := st.MergeArtifact(ctx, record.ID, "a", []byte(`1`)); err != nil {
		t.Fatalf("MergeArtifact failed: %v", err)
	}
	if err := st.MergeArtifact(ctx, record.ID, "b", []byte(`2`)); err != nil {
		t.Fatalf("MergeArtifact failed: %v", err)
	}

	a, ok, err := st.Artifact(ctx, record.ID, "a")
	if err != nil || !ok {
		t.Fatalf("Artifact a: ok=%v err=%v", ok, err)
	}
	if string(a) != "1" {
		t.Fatalf("fragment a = %s, want 1", a)
	}
	b, ok, err := st.Artifact(ctx, record.ID, "b")
	if err != nil || !ok {
		t.Fatalf("Artifact b: ok=%v err=%v", ok, err)
	}
	if string(b) != "2" {
		t.Fatalf("fragment b = %s, want 2", b)
	}

	// Same-key merge overwrites rather than concatenating.
	if err := st.MergeArtifact(ctx, record.ID, "a", []byte(`2`)); err != nil {
		t.Fatalf("MergeArtifact failed: %v", err)
	}
	a, _, err = st.Artifact(ctx, record.ID, "a")
	if err != nil {
		t.Fatalf("Artifact a: %v", err)
	}
	if string(a) != "2" {
		t.Fatalf("fragment a = %s, want 2", a)
	}
}

func TestMergeArtifactDottedName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.EnqueueArticle(t, st, cfg, "Dotted Artifact")

	record, err := st.CreateOrReset(ctx, article.ID)
	if err != nil {
		t.Fatalf("CreateOrReset failed: %v", err)
	}

	name := "screenshot.example.com/pricing"
	if err := st.MergeArtifact(ctx, record.ID, name, []byte(`{"path":"shot.png"}`)); err != nil {
		t.Fatalf("MergeArtifact failed: %v", err)
	}

	fragment, ok, err := st.Artifact(ctx, record.ID, name)
	if err != nil || !ok {
		t.Fatalf("Artifact: ok=%v err=%v", ok, err)
	}
	if string(fragment) != `{"path":"shot.png"}` {
		t.Fatalf("unexpected fragment: %s", fragment)
	}

	updated, err := st.GetRecord(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	names := store.ArtifactNames(updated.ArtifactsJSON)
	if len(names) != 1 || names[0] != name {
		t.Fatalf("expected one top-level key %q, got %v", name, names)
	}
}

func TestMarkFailedAndRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.EnqueueArticle(t, st, cfg, "Retry Target")

	record, err := st.CreateOrReset(ctx, article.ID)
	if err != nil {
		t.Fatalf("CreateOrReset failed: %v", err)
	}
	if err := st.MarkFailed(ctx, record.ID, "research call failed", `{"phase":"research"}`); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if err := st.SetArticleStatus(ctx, article.ID, store.ArticleDraft); err != nil {
		t.Fatalf("SetArticleStatus failed: %v", err)
	}

	count, err := st.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 article retried, got %d", count)
	}

	updated, err := st.GetArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if updated.Status != store.ArticleQueued {
		t.Fatalf("expected queued after retry, got %s", updated.Status)
	}
}

func TestResetStuckInProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.EnqueueArticle(t, st, cfg, "Stuck Target")

	if outcome, err := st.TryClaim(ctx, article.ID); err != nil || outcome != store.Claimed {
		t.Fatalf("TryClaim: outcome=%v err=%v", outcome, err)
	}

	count, err := st.ResetStuckInProgress(ctx)
	if err != nil {
		t.Fatalf("ResetStuckInProgress failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 article reset, got %d", count)
	}

	updated, err := st.GetArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if updated.Status != store.ArticleQueued {
		t.Fatalf("expected queued after reset, got %s", updated.Status)
	}
}

func TestDeductCredit(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithProjectCredits(1))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ok, err := st.DeductCredit(ctx, cfg.Project.ID)
	if err != nil {
		t.Fatalf("DeductCredit failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first deduction to succeed")
	}

	ok, err = st.DeductCredit(ctx, cfg.Project.ID)
	if err != nil {
		t.Fatalf("DeductCredit failed: %v", err)
	}
	if ok {
		t.Fatal("expected deduction to fail on exhausted balance")
	}

	credits, err := st.ProjectCredits(ctx, cfg.Project.ID)
	if err != nil {
		t.Fatalf("ProjectCredits failed: %v", err)
	}
	if credits != 0 {
		t.Fatalf("expected zero credits, got %d", credits)
	}
}

func TestNextQueuedOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.EnqueueArticle(t, st, cfg, "First In")
	testsupport.EnqueueArticle(t, st, cfg, "Second In")

	next, err := st.NextQueued(ctx)
	if err != nil {
		t.Fatalf("NextQueued failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest queued article, got %#v", next)
	}
}
