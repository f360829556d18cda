package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownSectionTypes = map[string]struct{}{
	"title":   {},
	"intro":   {},
	"bullets": {},
	"body":    {},
	"media":   {},
	"faq":     {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateRemediation(); err != nil {
		return err
	}
	if err := c.validateStructure(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scribe/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set SCRIBE_LLM_API_KEY env var or edit %s (create with 'scribe config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.BaseURL == "" {
		return errors.New("audit.base_url must be set")
	}
	if c.Audit.MinScore < 0 || c.Audit.MinScore > 100 {
		return errors.New("audit.min_score must be between 0 and 100")
	}
	if c.Audit.MaxCriticalIssues < 0 {
		return errors.New("audit.max_critical_issues must not be negative")
	}
	return nil
}

func (c *Config) validateRemediation() error {
	if c.Remediation.MaxPasses < 1 {
		return errors.New("remediation.max_passes must be at least 1")
	}
	return nil
}

func (c *Config) validateStructure() error {
	titles := 0
	seen := make(map[string]struct{}, len(c.Structure.Sections))
	for i, section := range c.Structure.Sections {
		id := strings.TrimSpace(section.ID)
		if id == "" {
			return fmt.Errorf("structure.sections[%d].id must be set", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("structure.sections: duplicate id %q", id)
		}
		seen[id] = struct{}{}
		sectionType := strings.ToLower(strings.TrimSpace(section.Type))
		if _, ok := knownSectionTypes[sectionType]; !ok {
			return fmt.Errorf("structure.sections[%d].type %q is not one of title, intro, bullets, body, media, faq", i, section.Type)
		}
		if sectionType == "title" {
			titles++
		}
		if sectionType == "body" && strings.TrimSpace(section.Heading) == "" {
			return fmt.Errorf("structure.sections[%d]: body sections require a heading", i)
		}
		if section.MinWords < 0 || section.MinItems < 0 || section.MaxItems < 0 {
			return fmt.Errorf("structure.sections[%d]: constraints must not be negative", i)
		}
		if section.MaxItems > 0 && section.MinItems > section.MaxItems {
			return fmt.Errorf("structure.sections[%d]: min_items exceeds max_items", i)
		}
	}
	if titles > 1 {
		return errors.New("structure.sections may declare at most one title section")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers > 16 {
		return errors.New("workflow.workers must be 16 or fewer")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
