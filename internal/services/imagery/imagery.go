// Package imagery selects a cover illustration for an article from the
// configured image-lookup service. Lookup failures are expected to be
// tolerated by callers; an article without an illustration is still valid.
package imagery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scribe/internal/config"
)

const defaultHTTPTimeout = 30 * time.Second

// Illustration is a picked cover image.
type Illustration struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text"`
}

// IsEmpty reports whether no usable illustration was found.
func (il Illustration) IsEmpty() bool {
	return strings.TrimSpace(il.URL) == ""
}

// Picker queries the illustration service.
type Picker struct {
	cfg        config.Imagery
	httpClient *http.Client
}

// Option customizes the picker.
type Option func(*Picker)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Picker) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewPicker constructs an illustration picker.
func NewPicker(cfg config.Imagery, opts ...Option) *Picker {
	picker := &Picker{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(picker)
	}
	if picker.httpClient == nil {
		picker.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return picker
}

// Enabled reports whether the service is configured for use.
func (p *Picker) Enabled() bool {
	return p != nil && p.cfg.Enabled && strings.TrimSpace(p.cfg.BaseURL) != ""
}

// Pick returns the best illustration for the article, or an empty
// Illustration when the service finds nothing.
func (p *Picker) Pick(ctx context.Context, title string, keywords []string) (Illustration, error) {
	var empty Illustration
	if !p.Enabled() {
		return empty, nil
	}
	query := strings.TrimSpace(strings.Join(append([]string{title}, keywords...), " "))
	if query == "" {
		return empty, errors.New("imagery: empty query")
	}

	endpoint, err := url.Parse(strings.TrimRight(p.cfg.BaseURL, "/") + "/images/search")
	if err != nil {
		return empty, fmt.Errorf("imagery: parse base url: %w", err)
	}
	values := endpoint.Query()
	values.Set("query", query)
	values.Set("limit", "1")
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return empty, fmt.Errorf("imagery: new request: %w", err)
	}
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("imagery: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("imagery: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return empty, fmt.Errorf("imagery: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Results []Illustration `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return empty, fmt.Errorf("imagery: decode response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return empty, nil
	}
	return parsed.Results[0], nil
}
