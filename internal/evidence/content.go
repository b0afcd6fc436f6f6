package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const (
	articleDefaultTimeout = 15 * time.Second
	articleMaxBodyBytes   = 5 * 1024 * 1024
	articleMaxRedirects   = 5
	articleFetchRPS       = 4
	articleFetchBurst     = 4
)

var errTooManyRedirects = errors.New("too many redirects")

// Article is the readable content of a fetched web page.
type Article struct {
	Title       string
	Description string
	Content     string
	Author      string
	PublishedAt time.Time
}

// ArticleFetcher downloads pages and extracts their readable text.
type ArticleFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	maxLen  int
}

// NewArticleFetcher creates an ArticleFetcher. Content longer than maxLen
// runes is truncated.
func NewArticleFetcher(timeout time.Duration, maxLen int) *ArticleFetcher {
	if timeout <= 0 {
		timeout = articleDefaultTimeout
	}

	return &ArticleFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= articleMaxRedirects {
					return errTooManyRedirects
				}

				return nil
			},
		},
		limiter: rate.NewLimiter(articleFetchRPS, articleFetchBurst),
		maxLen:  maxLen,
	}
}

// Fetch downloads rawURL and extracts its article text.
func (f *ArticleFetcher) Fetch(ctx context.Context, rawURL string) (*Article, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("article rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create article request: %w", err)
	}

	req.Header.Set(httpHeaderUserAgent, userAgent)
	req.Header.Set(httpHeaderAccept, "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, articleMaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read article: %w", err)
	}

	return ExtractArticle(body, rawURL, f.maxLen), nil
}

// ExtractArticle runs readability over htmlBytes, falling back to meta tags
// when the page has no readable body.
func ExtractArticle(htmlBytes []byte, rawURL string, maxLen int) *Article {
	u, _ := url.Parse(rawURL)
	meta := extractMetaTags(htmlBytes)

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), u)
	if err != nil {
		return &Article{
			Title:       coalesce(meta.OGTitle, meta.Title),
			Description: coalesce(meta.OGDescription, meta.Description),
			Content:     truncate(coalesce(meta.OGDescription, meta.Description), maxLen),
			Author:      meta.Author,
			PublishedAt: parseDate(meta.PublishedTime),
		}
	}

	return &Article{
		Title:       coalesce(article.Title, meta.OGTitle, meta.Title),
		Description: coalesce(meta.OGDescription, meta.Description),
		Content:     truncate(collapseSpace(article.TextContent), maxLen),
		Author:      coalesce(article.Byline, meta.Author),
		PublishedAt: parseDate(meta.PublishedTime),
	}
}

type metaTags struct {
	Title         string
	Description   string
	OGTitle       string
	OGDescription string
	Author        string
	PublishedTime string
}

func extractMetaTags(htmlBytes []byte) metaTags {
	var meta metaTags

	doc, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return meta
	}

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					meta.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := getMetaAttrs(n)
				switch strings.ToLower(name) {
				case "description":
					meta.Description = content
				case "author":
					meta.Author = content
				case "og:title":
					meta.OGTitle = content
				case "og:description":
					meta.OGDescription = content
				case "article:published_time":
					meta.PublishedTime = content
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	return meta
}

func getMetaAttrs(n *html.Node) (string, string) {
	var name, content string

	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "name", "property":
			name = attr.Val
		case "content":
			content = attr.Val
		}
	}

	return name, content
}

// stripTags returns the text content of an HTML fragment.
func stripTags(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var sb strings.Builder

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return collapseSpace(sb.String())
		case html.TextToken:
			sb.Write(tokenizer.Text())
			sb.WriteByte(' ')
		}
	}
}

func coalesce(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}

	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)

	return string(runes[:limit]) + "..."
}
