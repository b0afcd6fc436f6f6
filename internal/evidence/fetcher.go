package evidence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/platform/observability"
)

const (
	defaultMaxResults     = 5
	articleFetchParallel  = 4
	noArticlesFound       = ""
	dateLayout            = "2006-01-02"
	logKeyProvider        = "provider"
	logKeyQuery           = "query"
	logKeyURL             = "url"
	researchSystemPrompt  = "You are a research assistant that finds reputable news coverage for fact-checking."
	summarySystemPrompt   = "You are a research summary writer for a fact-checking team."
	researchPromptFormat  = "The news search for %q found nothing.\nClaim: %s\n\nReply with one broader news search query of at most six words. Return only the query."
	summaryPromptFormat   = "Claim: %s\n\nArticles:\n%s\n\nSummarize the facts from these articles that confirm or refute the claim. Do not judge whether the claim is true. Keep every article URL in the summary so readers can check the sources."
	summarySourcesHeading = "\n\nSources:\n"
)

// Completer generates text with a named model. *llm.Caller satisfies it.
type Completer interface {
	CompleteText(ctx context.Context, model, system, prompt string) (string, error)
}

// Config controls evidence assembly.
type Config struct {
	MaxResults    int
	FetchArticles bool
	Summarize     bool
}

// Fetcher gathers news evidence for a claim from every available provider.
type Fetcher struct {
	providers []Provider
	articles  *ArticleFetcher
	completer Completer
	cfg       Config
	logger    *zerolog.Logger
}

// NewFetcher creates a Fetcher. articles and completer may be nil, which
// disables article download and research/summary respectively.
func NewFetcher(cfg Config, providers []Provider, articles *ArticleFetcher, completer Completer, logger *zerolog.Logger) *Fetcher {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Fetcher{
		providers: providers,
		articles:  articles,
		completer: completer,
		cfg:       cfg,
		logger:    logger,
	}
}

// AvailableProviders returns the names of providers that can serve requests.
func (f *Fetcher) AvailableProviders() []ProviderName {
	var names []ProviderName

	for _, p := range f.providers {
		if p.IsAvailable() {
			names = append(names, p.Name())
		}
	}

	return names
}

// Fetch returns a text block of evidence about statement. It returns an empty
// string when enabled is false or nothing was found. An error wrapping
// ErrRetrieval means no provider could be queried successfully.
func (f *Fetcher) Fetch(ctx context.Context, query, statement string, enabled bool, models domain.ModelSet) (string, error) {
	if !enabled {
		return noArticlesFound, nil
	}

	results, err := f.search(ctx, query, statement)
	if err != nil {
		return "", err
	}

	if len(results) == 0 && f.completer != nil && models.Research != "" {
		results = f.research(ctx, query, statement, models.Research)
	}

	if len(results) == 0 {
		return noArticlesFound, nil
	}

	if f.cfg.FetchArticles && f.articles != nil {
		f.fillContent(ctx, results)
	}

	block := FormatResults(results)

	if !f.cfg.Summarize || f.completer == nil || models.Summary == "" {
		return block, nil
	}

	summary, err := f.completer.CompleteText(ctx, models.Summary, summarySystemPrompt,
		fmt.Sprintf(summaryPromptFormat, statement, block))
	if err != nil || summary == "" {
		f.logger.Warn().Err(err).Str(logKeyQuery, query).Msg("evidence summary failed, using raw articles")
		return block, nil
	}

	return summary + summarySourcesHeading + formatSources(results), nil
}

// search queries every available provider in parallel. Fact-check providers
// receive the statement, news providers the extracted query.
func (f *Fetcher) search(ctx context.Context, query, statement string) ([]SearchResult, error) {
	var (
		mu        sync.Mutex
		collected = make([][]SearchResult, len(f.providers))
		attempted int
		errs      []error
	)

	g, gctx := errgroup.WithContext(ctx)

	for i, p := range f.providers {
		if !p.IsAvailable() {
			continue
		}

		attempted++

		g.Go(func() error {
			q := query
			if p.Name() == ProviderFactCheck {
				q = statement
			}

			res, err := p.Search(gctx, q, f.cfg.MaxResults)
			if err != nil {
				observability.EvidenceRequests.WithLabelValues(string(p.Name()), observability.StatusError).Inc()
				f.logger.Warn().Err(err).Str(logKeyProvider, string(p.Name())).Str(logKeyQuery, q).Msg("evidence provider failed")

				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
				mu.Unlock()

				return nil
			}

			observability.EvidenceRequests.WithLabelValues(string(p.Name()), observability.StatusSuccess).Inc()
			observability.EvidenceResults.WithLabelValues(string(p.Name())).Observe(float64(len(res)))

			collected[i] = res

			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrRetrieval, err)
	}

	if attempted == 0 {
		return nil, fmt.Errorf("%w: no evidence providers available", apperrors.ErrRetrieval)
	}

	if len(errs) == attempted {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrRetrieval, errors.Join(errs...))
	}

	return mergeResults(collected, f.cfg.MaxResults), nil
}

// research asks the research model for a broader query and searches once more.
// Failures are logged and yield no results.
func (f *Fetcher) research(ctx context.Context, query, statement, model string) []SearchResult {
	broader, err := f.completer.CompleteText(ctx, model, researchSystemPrompt,
		fmt.Sprintf(researchPromptFormat, query, statement))
	if err != nil {
		f.logger.Warn().Err(err).Str(logKeyQuery, query).Msg("research query failed")
		return nil
	}

	broader = strings.Trim(strings.TrimSpace(broader), `"'`)
	if broader == "" || strings.EqualFold(broader, query) {
		return nil
	}

	results, err := f.search(ctx, broader, statement)
	if err != nil {
		f.logger.Warn().Err(err).Str(logKeyQuery, broader).Msg("research search failed")
		return nil
	}

	return results
}

func (f *Fetcher) fillContent(ctx context.Context, results []SearchResult) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(articleFetchParallel)

	for i := range results {
		g.Go(func() error {
			article, err := f.articles.Fetch(gctx, results[i].URL)
			if err != nil {
				f.logger.Debug().Err(err).Str(logKeyURL, results[i].URL).Msg("article fetch failed")
				return nil
			}

			results[i].Content = article.Content

			if results[i].Title == "" {
				results[i].Title = article.Title
			}

			if results[i].PublishedAt.IsZero() {
				results[i].PublishedAt = article.PublishedAt
			}

			return nil
		})
	}

	_ = g.Wait()
}

// mergeResults concatenates provider results in provider order, skipping URLs
// already seen (case and trailing slash ignored), and stops at limit entries.
func mergeResults(collected [][]SearchResult, limit int) []SearchResult {
	seen := make(map[string]struct{})
	merged := make([]SearchResult, 0, limit)

	for _, results := range collected {
		for _, r := range results {
			if len(merged) >= limit {
				return merged
			}

			key := strings.TrimSuffix(strings.ToLower(r.URL), "/")
			if _, ok := seen[key]; ok {
				continue
			}

			seen[key] = struct{}{}
			merged = append(merged, r)
		}
	}

	return merged
}

// FormatResults renders results as the numbered article list shown to the
// classification model.
func FormatResults(results []SearchResult) string {
	var sb strings.Builder

	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Title)

		if r.Source != "" {
			fmt.Fprintf(&sb, "Source: %s\n", r.Source)
		}

		if !r.PublishedAt.IsZero() {
			fmt.Fprintf(&sb, "Date: %s\n", r.PublishedAt.Format(dateLayout))
		}

		fmt.Fprintf(&sb, "URL: %s", r.URL)

		text := coalesce(r.Content, r.Description)
		if text != "" {
			fmt.Fprintf(&sb, "\n%s", text)
		}
	}

	return sb.String()
}

func formatSources(results []SearchResult) string {
	lines := make([]string, 0, len(results))

	for _, r := range results {
		lines = append(lines, "- "+r.URL)
	}

	return strings.Join(lines, "\n")
}
