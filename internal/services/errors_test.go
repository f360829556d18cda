package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := fmt.Errorf("connection refused")
	err := Wrap(ErrExternalService, "research", "fetch sources", "service unreachable", base)

	if !errors.Is(err, ErrExternalService) {
		t.Fatal("expected marker to survive wrapping")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected cause to survive wrapping")
	}
	want := "external service error: research: fetch sources: service unreachable: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "drafting", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("expected transient marker")
	}
}

func TestKindClassification(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Wrap(ErrValidation, "compliance", "", "", nil), "validation"},
		{Wrap(ErrConfiguration, "config", "", "", nil), "configuration"},
		{Wrap(ErrTimeout, "audit", "", "", nil), "timeout"},
		{Wrap(ErrExternalService, "audit", "", "", nil), "external_service"},
		{errors.New("plain"), "transient"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
