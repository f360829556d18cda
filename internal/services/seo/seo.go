// Package seo talks to the search-optimization audit service and applies
// the quality gates that drive the remediation loop.
package seo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"scribe/internal/config"
)

const defaultHTTPTimeout = 60 * time.Second

// Report is a scored audit of one draft. Raw keeps the service payload
// verbatim; the orchestrator persists it and feeds it to remediation calls
// untouched.
type Report struct {
	Raw   string
	Score float64
}

// Client wraps the audit service API.
type Client struct {
	cfg        config.Audit
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an audit client.
func NewClient(cfg config.Audit, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Audit scores the draft against the target keywords.
func (c *Client) Audit(ctx context.Context, text string, keywords []string) (Report, error) {
	var empty Report
	if strings.TrimSpace(text) == "" {
		return empty, errors.New("audit: empty draft")
	}
	if strings.TrimSpace(c.cfg.BaseURL) == "" {
		return empty, errors.New("audit: base url required")
	}

	payload, err := json.Marshal(map[string]any{
		"text":     text,
		"keywords": keywords,
	})
	if err != nil {
		return empty, fmt.Errorf("audit: encode body: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/audit"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return empty, fmt.Errorf("audit: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("audit: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("audit: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return empty, fmt.Errorf("audit: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if !gjson.ValidBytes(body) {
		return empty, errors.New("audit: invalid JSON response")
	}

	raw := string(body)
	return Report{Raw: raw, Score: gjson.Get(raw, "score").Float()}, nil
}

// PassesQualityGates applies the configured gate predicate to a report. The
// report shape is opaque to the orchestrator; the gates only probe the score
// and the count of critical issues.
func PassesQualityGates(report Report, cfg config.Audit) bool {
	if report.Raw == "" {
		return false
	}
	score := gjson.Get(report.Raw, "score")
	if !score.Exists() || score.Float() < cfg.MinScore {
		return false
	}

	critical := 0
	gjson.Get(report.Raw, "issues").ForEach(func(_, issue gjson.Result) bool {
		if strings.EqualFold(issue.Get("severity").String(), "critical") {
			critical++
		}
		return true
	})
	return critical <= cfg.MaxCriticalIssues
}
