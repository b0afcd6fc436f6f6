package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	googleFactCheckEndpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"
	factCheckHTTPTimeout    = 20 * time.Second
	factCheckDefaultRPM     = 60
	factCheckDefaultResults = 3
)

// FactCheckConfig holds configuration for the Google Fact Check Tools provider.
type FactCheckConfig struct {
	Enabled    bool
	APIKey     string
	RPM        int
	MaxResults int
	// Endpoint overrides the API endpoint in tests.
	Endpoint string
}

// FactCheckProvider searches published fact-check reviews. It is queried with
// the original claim text rather than the extracted query.
type FactCheckProvider struct {
	apiKey     string
	endpoint   string
	enabled    bool
	maxResults int
	limiter    *rate.Limiter
	client     *http.Client
}

// NewFactCheckProvider creates a Google Fact Check Tools provider.
func NewFactCheckProvider(cfg FactCheckConfig) *FactCheckProvider {
	rpm := cfg.RPM
	if rpm <= 0 {
		rpm = factCheckDefaultRPM
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = factCheckDefaultResults
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = googleFactCheckEndpoint
	}

	return &FactCheckProvider{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		enabled:    cfg.Enabled,
		maxResults: maxResults,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		client:     &http.Client{Timeout: factCheckHTTPTimeout},
	}
}

// Name returns the provider name.
func (p *FactCheckProvider) Name() ProviderName {
	return ProviderFactCheck
}

// IsAvailable reports whether the provider is enabled and has an API key.
func (p *FactCheckProvider) IsAvailable() bool {
	return p.enabled && p.apiKey != ""
}

// Search looks up fact-check reviews for claim.
func (p *FactCheckProvider) Search(ctx context.Context, claim string, maxResults int) ([]SearchResult, error) {
	if !p.IsAvailable() {
		return nil, errProviderDisabled
	}

	if maxResults <= 0 || maxResults > p.maxResults {
		maxResults = p.maxResults
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fact check rate limit: %w", err)
	}

	endpoint, err := p.buildURL(claim, maxResults)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fact check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var payload factCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode fact check response: %w", err)
	}

	return parseFactCheckResults(payload, claim, maxResults), nil
}

func (p *FactCheckProvider) buildURL(claim string, maxResults int) (string, error) {
	values := url.Values{}
	values.Set("query", claim)
	values.Set("pageSize", strconv.Itoa(maxResults))
	values.Set("key", p.apiKey)

	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse fact check endpoint: %w", err)
	}

	u.RawQuery = values.Encode()

	return u.String(), nil
}

type factCheckResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			ReviewDate    string `json:"reviewDate"`    //nolint:tagliatelle
			TextualRating string `json:"textualRating"` //nolint:tagliatelle
		} `json:"claimReview"` //nolint:tagliatelle
	} `json:"claims"`
}

func parseFactCheckResults(resp factCheckResponse, fallbackClaim string, maxResults int) []SearchResult {
	results := make([]SearchResult, 0, maxResults)

	for _, claim := range resp.Claims {
		claimText := claim.Text
		if claimText == "" {
			claimText = fallbackClaim
		}

		for _, review := range claim.ClaimReview {
			if review.URL == "" {
				continue
			}

			title := review.Title
			if title == "" {
				title = claimText
			}

			source := review.Publisher.Name
			if source == "" {
				source = review.Publisher.Site
			}

			results = append(results, SearchResult{
				URL:         review.URL,
				Title:       title,
				Description: fmt.Sprintf("Fact-check of %q rated: %s", claimText, review.TextualRating),
				Source:      source,
				Domain:      extractDomain(review.URL),
				PublishedAt: parseDate(review.ReviewDate),
				Provider:    ProviderFactCheck,
			})

			if len(results) >= maxResults {
				return results
			}
		}
	}

	return results
}
