package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProject()
	c.normalizeLLM()
	c.normalizeAudit()
	c.normalizeSnapshot()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProject() {
	c.Project.ID = strings.TrimSpace(c.Project.ID)
	if c.Project.ID == "" {
		c.Project.ID = defaultProjectID
	}
	cleaned := make([]string, 0, len(c.Project.ExcludedDomains))
	for _, domain := range c.Project.ExcludedDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			cleaned = append(cleaned, domain)
		}
	}
	c.Project.ExcludedDomains = cleaned
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("SCRIBE_LLM_API_KEY"); ok {
			c.LLM.APIKey = value
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeAudit() {
	if c.Audit.APIKey == "" {
		if value, ok := os.LookupEnv("SCRIBE_AUDIT_API_KEY"); ok {
			c.Audit.APIKey = value
		}
	}
	c.Audit.BaseURL = strings.TrimSpace(c.Audit.BaseURL)
	if c.Audit.TimeoutSeconds <= 0 {
		c.Audit.TimeoutSeconds = defaultAuditTimeout
	}
}

func (c *Config) normalizeSnapshot() {
	c.Snapshot.BaseURL = strings.TrimSpace(c.Snapshot.BaseURL)
	if c.Snapshot.TimeoutSeconds <= 0 {
		c.Snapshot.TimeoutSeconds = defaultSnapshotTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
	if c.Workflow.PhaseTimeoutSeconds <= 0 {
		c.Workflow.PhaseTimeoutSeconds = defaultPhaseTimeout
	}
	if c.Workflow.DraftTimeoutSeconds <= 0 {
		c.Workflow.DraftTimeoutSeconds = defaultDraftTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
