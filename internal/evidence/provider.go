package evidence

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ProviderName identifies an evidence search provider.
type ProviderName string

// Provider name constants.
const (
	ProviderSearxNG       ProviderName = "searxng"
	ProviderGoogleNewsRSS ProviderName = "google_news_rss"
	ProviderFactCheck     ProviderName = "google_factcheck"
)

const (
	httpHeaderAccept    = "Accept"
	httpHeaderUserAgent = "User-Agent"
	httpContentTypeJSON = "application/json"
	userAgent           = "claim-bench/1.0 (+evidence fetcher)"
	errWrapFmtWithCode  = "%w: %d"
	fmtErrWrapStr       = "%w: %s"
	maxErrorBodyLength  = 200
)

var (
	errProviderDisabled = errors.New("provider disabled")
	errUnexpectedStatus = errors.New("unexpected status")
)

// SearchResult is one article or review returned by a provider.
type SearchResult struct {
	URL         string
	Title       string
	Description string
	Source      string
	Domain      string
	PublishedAt time.Time
	Score       float64
	Provider    ProviderName
	Content     string
}

// Provider searches one evidence source.
type Provider interface {
	Name() ProviderName
	IsAvailable() bool
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// extractDomain returns the host of rawURL without a leading "www.".
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// parseDate parses the many date layouts search engines and feeds emit.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}

	return t
}

func truncateBody(body []byte) string {
	msg := string(body)
	if len(msg) > maxErrorBodyLength {
		msg = msg[:maxErrorBodyLength] + "..."
	}

	return msg
}

func statusError(code int) error {
	return fmt.Errorf(errWrapFmtWithCode, errUnexpectedStatus, code)
}
