// Package snapshot captures screenshots of pages an article links to, so
// reviewers can verify external references without visiting them.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"scribe/internal/config"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	maxCaptures        = 5
)

var markdownLink = regexp.MustCompile(`\[[^\]]*\]\((https?://[^)\s]+)\)`)

// Result is the outcome of one capture run. Screenshots maps each linked
// URL to the capture reference the service returned. Text is returned
// unchanged; callers decide whether to embed the captures.
type Result struct {
	Text        string
	Screenshots map[string]string
}

// Capturer drives the screenshot service.
type Capturer struct {
	cfg        config.Snapshot
	httpClient *http.Client
}

// Option customizes the capturer.
type Option func(*Capturer)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Capturer) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewCapturer constructs a screenshot capturer.
func NewCapturer(cfg config.Snapshot, opts ...Option) *Capturer {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	capturer := &Capturer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(capturer)
	}
	if capturer.httpClient == nil {
		capturer.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return capturer
}

// Enabled reports whether the service is configured for use.
func (c *Capturer) Enabled() bool {
	return c != nil && c.cfg.Enabled && strings.TrimSpace(c.cfg.BaseURL) != ""
}

// LinkedURLs extracts the unique external links of a markdown document in
// order of first appearance.
func LinkedURLs(text string) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, match := range markdownLink.FindAllStringSubmatch(text, -1) {
		url := match[1]
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	return urls
}

// Capture screenshots the pages the draft links to. Individual capture
// failures skip that URL; the call only errors when the service itself is
// unreachable for every link.
func (c *Capturer) Capture(ctx context.Context, text string) (Result, error) {
	result := Result{Text: text, Screenshots: map[string]string{}}
	if !c.Enabled() {
		return result, nil
	}

	urls := LinkedURLs(text)
	if len(urls) > maxCaptures {
		urls = urls[:maxCaptures]
	}
	if len(urls) == 0 {
		return result, nil
	}

	var lastErr error
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		ref, err := c.captureOne(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		result.Screenshots[url] = ref
	}
	if len(result.Screenshots) == 0 && lastErr != nil {
		return result, fmt.Errorf("snapshot: all captures failed: %w", lastErr)
	}
	return result, nil
}

func (c *Capturer) captureOne(ctx context.Context, pageURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		return "", fmt.Errorf("snapshot: encode body: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/capture"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("snapshot: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("snapshot: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("snapshot: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("snapshot: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Screenshot string `json:"screenshot"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("snapshot: decode response: %w", err)
	}
	if strings.TrimSpace(parsed.Screenshot) == "" {
		return "", errors.New("snapshot: empty screenshot reference")
	}
	return parsed.Screenshot, nil
}
