package main

import (
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/testsupport"
)

const checkTestTemplate = `
[[structure.sections]]
id = "title"
type = "title"
required = true

[[structure.sections]]
id = "overview"
type = "body"
heading = "Overview"
required = true
`

func writeMarkdown(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.md")
	testsupport.WriteText(t, path, contents)
	return path
}

func TestCheckCompliantDocument(t *testing.T) {
	cfgPath := writeTestConfig(t, checkTestTemplate)
	doc := writeMarkdown(t, "# A Proper Draft\n\nShort intro.\n\n## Overview\n\nThe overview body.\n")

	out, err := runCommand(t, "--config", cfgPath, "check", doc)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "compliant") {
		t.Fatalf("check output = %q", out)
	}
}

func TestCheckRejectsNonCompliantDocument(t *testing.T) {
	cfgPath := writeTestConfig(t, checkTestTemplate)
	doc := writeMarkdown(t, "# One Title\n\n# Another Title\n\nNo overview here.\n")

	out, err := runCommand(t, "--config", cfgPath, "check", doc)
	if err == nil {
		t.Fatal("expected a non-compliant document to fail the command")
	}
	if !strings.Contains(out, "not compliant") {
		t.Fatalf("check output = %q", out)
	}
}

func TestCheckRequiresTemplate(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	doc := writeMarkdown(t, "# Anything\n")

	if _, err := runCommand(t, "--config", cfgPath, "check", doc); err == nil {
		t.Fatal("expected check to fail without a configured template")
	}
}
