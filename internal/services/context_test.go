package services

import (
	"context"
	"testing"
)

func TestContextRoundTrips(t *testing.T) {
	ctx := context.Background()

	if _, ok := ArticleIDFromContext(ctx); ok {
		t.Fatal("expected no article id on empty context")
	}

	ctx = WithArticleID(ctx, 9)
	ctx = WithPhase(ctx, "validating")
	ctx = WithRequestID(ctx, "req-123")

	if id, ok := ArticleIDFromContext(ctx); !ok || id != 9 {
		t.Fatalf("article id = %d, %v", id, ok)
	}
	if phase, ok := PhaseFromContext(ctx); !ok || phase != "validating" {
		t.Fatalf("phase = %q, %v", phase, ok)
	}
	if rid, ok := RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("request id = %q, %v", rid, ok)
	}
}

func TestEmptyAnnotationsAreIgnored(t *testing.T) {
	ctx := WithPhase(context.Background(), "")
	if _, ok := PhaseFromContext(ctx); ok {
		t.Fatal("empty phase should not be stored")
	}
	ctx = WithRequestID(ctx, "")
	if _, ok := RequestIDFromContext(ctx); ok {
		t.Fatal("empty request id should not be stored")
	}
}
