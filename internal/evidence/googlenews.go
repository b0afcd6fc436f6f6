package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	googleNewsDefaultURL    = "https://news.google.com/rss/search"
	googleNewsDefaultLocale = "en-US:US"
	googleNewsTimeout       = 20 * time.Second
)

// GoogleNewsConfig holds configuration for the Google News RSS provider.
type GoogleNewsConfig struct {
	Enabled bool
	URL     string
	// Locale is "<hl>:<gl>", for example "en-US:US" or "de:DE".
	Locale  string
	Timeout time.Duration
}

// GoogleNewsProvider searches the public Google News RSS endpoint.
type GoogleNewsProvider struct {
	endpoint   string
	hl         string
	gl         string
	enabled    bool
	httpClient *http.Client
}

// NewGoogleNewsProvider creates a Google News RSS provider.
func NewGoogleNewsProvider(cfg GoogleNewsConfig) *GoogleNewsProvider {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = googleNewsDefaultURL
	}

	locale := cfg.Locale
	if locale == "" {
		locale = googleNewsDefaultLocale
	}

	hl, gl, ok := strings.Cut(locale, ":")
	if !ok {
		gl = strings.ToUpper(hl)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = googleNewsTimeout
	}

	return &GoogleNewsProvider{
		endpoint:   endpoint,
		hl:         hl,
		gl:         gl,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (p *GoogleNewsProvider) Name() ProviderName {
	return ProviderGoogleNewsRSS
}

// IsAvailable reports whether the provider is enabled.
func (p *GoogleNewsProvider) IsAvailable() bool {
	return p.enabled && p.endpoint != ""
}

// Search fetches the RSS search feed for query.
func (p *GoogleNewsProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if !p.IsAvailable() {
		return nil, errProviderDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("create google news request: %w", err)
	}

	req.Header.Set(httpHeaderUserAgent, userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google news request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse google news feed: %w", err)
	}

	results := make([]SearchResult, 0, min(len(feed.Items), maxResults))

	for _, item := range feed.Items {
		if len(results) >= maxResults {
			break
		}

		if item == nil || item.Link == "" {
			continue
		}

		results = append(results, feedItemResult(item))
	}

	return results, nil
}

func (p *GoogleNewsProvider) buildURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", p.hl)
	params.Set("gl", p.gl)
	params.Set("ceid", p.gl+":"+strings.SplitN(p.hl, "-", 2)[0])

	return p.endpoint + "?" + params.Encode()
}

func feedItemResult(item *gofeed.Item) SearchResult {
	title := strings.TrimSpace(item.Title)
	source := ""

	// Google News titles end with " - Publisher".
	if i := strings.LastIndex(title, " - "); i > 0 {
		source = strings.TrimSpace(title[i+3:])
		title = strings.TrimSpace(title[:i])
	}

	published := time.Time{}
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else {
		published = parseDate(item.Published)
	}

	if source == "" {
		source = extractDomain(item.Link)
	}

	return SearchResult{
		URL:         item.Link,
		Title:       title,
		Description: stripTags(item.Description),
		Source:      source,
		Domain:      extractDomain(item.Link),
		PublishedAt: published,
		Provider:    ProviderGoogleNewsRSS,
	}
}
