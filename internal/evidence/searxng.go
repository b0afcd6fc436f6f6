package evidence

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
)

const (
	searxngDefaultTimeout     = 30 * time.Second
	searxngSearchPath         = "/search"
	searxngResponseFormatJSON = "json"
	searxngCategoriesNews     = "news"
)

var errSearxNGAPIError = errors.New("searxng api error")

// SearxNGConfig holds configuration for the SearxNG provider.
type SearxNGConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
	Engines []string // optional: e.g., ["google news", "bing news"]
}

// SearxNGProvider implements Provider for SearxNG metasearch instances.
type SearxNGProvider struct {
	baseURL    string
	httpClient *http.Client
	enabled    bool
	engines    []string
}

// NewSearxNGProvider creates a new SearxNG provider instance.
func NewSearxNGProvider(cfg SearxNGConfig) *SearxNGProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = searxngDefaultTimeout
	}

	return &SearxNGProvider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		enabled:    cfg.Enabled,
		engines:    cfg.Engines,
	}
}

// Name returns the provider name.
func (p *SearxNGProvider) Name() ProviderName {
	return ProviderSearxNG
}

// IsAvailable reports whether the provider is enabled and has an endpoint.
func (p *SearxNGProvider) IsAvailable() bool {
	return p.enabled && p.baseURL != ""
}

// Search performs a news search against the SearxNG instance.
func (p *SearxNGProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if !p.IsAvailable() {
		return nil, errProviderDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildSearchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("create searxng request: %w", err)
	}

	// SearxNG requires Accept header for JSON responses
	req.Header.Set(httpHeaderAccept, httpContentTypeJSON)
	req.Header.Set(httpHeaderUserAgent, userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read searxng response: %w", err)
	}

	return p.parseResponse(body, maxResults)
}

func (p *SearxNGProvider) buildSearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", searxngResponseFormatJSON)
	params.Set("categories", searxngCategoriesNews)

	if len(p.engines) > 0 {
		params.Set("engines", strings.Join(p.engines, ","))
	}

	return p.baseURL + searxngSearchPath + "?" + params.Encode()
}

type searxngResponse struct {
	Query   string          `json:"query"`
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"publishedDate"` //nolint:tagliatelle // SearxNG API uses camelCase
	Engine        string  `json:"engine"`
	Score         float64 `json:"score"`
}

func (p *SearxNGProvider) parseResponse(body []byte, maxResults int) ([]SearchResult, error) {
	if len(body) > 0 && body[0] != '{' {
		// Not JSON, likely an error page from the instance
		return nil, fmt.Errorf(fmtErrWrapStr, errSearxNGAPIError, truncateBody(body))
	}

	var resp searxngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse searxng json: %w", err)
	}

	results := make([]SearchResult, 0, min(len(resp.Results), maxResults))

	for _, item := range resp.Results {
		if len(results) >= maxResults {
			break
		}

		if item.URL == "" {
			continue
		}

		results = append(results, SearchResult{
			URL:         item.URL,
			Title:       item.Title,
			Description: item.Content,
			Domain:      extractDomain(item.URL),
			Source:      extractDomain(item.URL),
			PublishedAt: parseDate(item.PublishedDate),
			Score:       item.Score,
			Provider:    ProviderSearxNG,
		})
	}

	return results, nil
}
