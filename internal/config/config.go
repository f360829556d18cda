package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Project describes the tenant the daemon generates content for.
type Project struct {
	ID              string   `toml:"id"`
	Credits         int      `toml:"credits"`
	ExcludedDomains []string `toml:"excluded_domains"`
}

// Article contains tone and length settings applied to every draft.
type Article struct {
	Tone        string `toml:"tone"`
	TargetWords int    `toml:"target_words"`
	Language    string `toml:"language"`
}

// SectionSpec is one entry of the tenant article-structure template.
type SectionSpec struct {
	ID       string `toml:"id"`
	Type     string `toml:"type"`
	Heading  string `toml:"heading"`
	Required bool   `toml:"required"`
	MinWords int    `toml:"min_words"`
	MinItems int    `toml:"min_items"`
	MaxItems int    `toml:"max_items"`
}

// Structure carries the declarative article-structure template.
// An empty section list disables structural compliance checks.
type Structure struct {
	Sections []SectionSpec `toml:"sections"`
}

// LLM contains shared connection settings for the language-model API used by
// research, drafting, review, update, and remediation calls.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Audit contains configuration for the search-optimization audit service and
// the quality gates applied to its reports.
type Audit struct {
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	MinScore          float64 `toml:"min_score"`
	MaxCriticalIssues int     `toml:"max_critical_issues"`
}

// Imagery contains configuration for the illustration lookup service.
type Imagery struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// Snapshot contains configuration for the linked-page screenshot service.
type Snapshot struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Remediation bounds the audit/remediate retry loop.
type Remediation struct {
	MaxPasses int `toml:"max_passes"`
}

// Publish is the checklist gate consulted before an article is marked ready.
type Publish struct {
	RequireIllustration bool    `toml:"require_illustration"`
	RequireCompliance   bool    `toml:"require_compliance"`
	MinWords            int     `toml:"min_words"`
	MinAuditScore       float64 `toml:"min_audit_score"`
}

// Workflow contains daemon timing and concurrency settings.
type Workflow struct {
	QueuePollInterval   int `toml:"queue_poll_interval"`
	ErrorRetryInterval  int `toml:"error_retry_interval"`
	Workers             int `toml:"workers"`
	PhaseTimeoutSeconds int `toml:"phase_timeout_seconds"`
	DraftTimeoutSeconds int `toml:"draft_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Scribe.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Project: tenant identity, credit allowance, domain exclusions
//   - Article: tone and length settings applied to drafts
//   - Structure: declarative article-structure template
//   - LLM: shared language-model connection settings
//   - Audit: search-optimization audit service and quality gates
//   - Imagery: illustration lookup service
//   - Snapshot: linked-page screenshot capture service
//   - Remediation: retry-loop bounds
//   - Publish: readiness checklist gate
//   - Workflow: daemon polling intervals, timeouts, worker count
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Project     Project     `toml:"project"`
	Article     Article     `toml:"article"`
	Structure   Structure   `toml:"structure"`
	LLM         LLM         `toml:"llm"`
	Audit       Audit       `toml:"audit"`
	Imagery     Imagery     `toml:"imagery"`
	Snapshot    Snapshot    `toml:"snapshot"`
	Remediation Remediation `toml:"remediation"`
	Publish     Publish     `toml:"publish"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the configured directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the target path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path must not be empty")
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
