package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Project.ID = "test-project"
	cfgVal.Project.Credits = 10
	cfgVal.LLM.APIKey = "test"
	cfgVal.Audit.BaseURL = "http://127.0.0.1:0"
	cfgVal.Audit.APIKey = "test"

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProjectCredits sets the starting credit balance on the test config.
func WithProjectCredits(credits int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Project.Credits = credits
	}
}

// WithStructure replaces the structure template sections on the test config.
func WithStructure(sections ...config.SectionSpec) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Structure.Sections = sections
	}
}

// WithRemediationPasses sets the remediation pass budget on the test config.
func WithRemediationPasses(passes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remediation.MaxPasses = passes
	}
}
