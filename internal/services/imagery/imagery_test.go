package imagery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribe/internal/config"
)

func TestPickReturnsFirstResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "Standing Desks ergonomics" {
			t.Fatalf("unexpected query %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"url": "https://img.example/desk.jpg", "alt_text": "a standing desk"},
				{"url": "https://img.example/other.jpg", "alt_text": "another"},
			},
		})
	}))
	defer server.Close()

	picker := NewPicker(config.Imagery{Enabled: true, BaseURL: server.URL, APIKey: "k"})
	illustration, err := picker.Pick(context.Background(), "Standing Desks", []string{"ergonomics"})
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if illustration.URL != "https://img.example/desk.jpg" || illustration.AltText != "a standing desk" {
		t.Fatalf("unexpected illustration: %#v", illustration)
	}
}

func TestPickDisabledYieldsEmpty(t *testing.T) {
	picker := NewPicker(config.Imagery{Enabled: false})
	illustration, err := picker.Pick(context.Background(), "Anything", nil)
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if !illustration.IsEmpty() {
		t.Fatalf("expected empty illustration, got %#v", illustration)
	}
}

func TestPickEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer server.Close()

	picker := NewPicker(config.Imagery{Enabled: true, BaseURL: server.URL})
	illustration, err := picker.Pick(context.Background(), "No Matches", nil)
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if !illustration.IsEmpty() {
		t.Fatalf("expected empty illustration, got %#v", illustration)
	}
}

func TestPickServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	picker := NewPicker(config.Imagery{Enabled: true, BaseURL: server.URL})
	if _, err := picker.Pick(context.Background(), "Broken", nil); err == nil {
		t.Fatal("expected error for http 502")
	}
}
