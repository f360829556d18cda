package testsupport

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// EnqueueArticle creates a queued article for tests using the provided store.
func EnqueueArticle(t testing.TB, st *store.Store, cfg *config.Config, title string, keywords ...string) *store.Article {
	t.Helper()

	article, err := st.Enqueue(context.Background(), cfg.Project.ID, title, keywords, "")
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return article
}
