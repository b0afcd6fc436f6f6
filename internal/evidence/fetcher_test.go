package evidence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

type fakeProvider struct {
	name      ProviderName
	available bool
	results   map[string][]SearchResult
	err       error

	mu      sync.Mutex
	queries []string
}

func (p *fakeProvider) Name() ProviderName { return p.name }

func (p *fakeProvider) IsAvailable() bool { return p.available }

func (p *fakeProvider) Search(_ context.Context, query string, maxResults int) ([]SearchResult, error) {
	p.mu.Lock()
	p.queries = append(p.queries, query)
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}

	res := p.results[query]
	if len(res) > maxResults {
		res = res[:maxResults]
	}

	return res, nil
}

type fakeCompleter struct {
	replies map[string]string
	err     error
	calls   []string
}

func (c *fakeCompleter) CompleteText(_ context.Context, model, _, _ string) (string, error) {
	c.calls = append(c.calls, model)

	if c.err != nil {
		return "", c.err
	}

	return c.replies[model], nil
}

var testModels = domain.ModelSet{Extract: "x", Classify: "c", Research: "research", Summary: "summary"}

func TestFetcherDisabled(t *testing.T) {
	p := &fakeProvider{name: ProviderSearxNG, available: true}
	f := NewFetcher(Config{}, []Provider{p}, nil, nil, nil)

	block, err := f.Fetch(context.Background(), "q", "claim", false, testModels)
	require.NoError(t, err)
	assert.Empty(t, block)
	assert.Empty(t, p.queries)
}

func TestFetcherMergesAndFormats(t *testing.T) {
	published := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	news := &fakeProvider{name: ProviderGoogleNewsRSS, available: true, results: map[string][]SearchResult{
		"moon hoax": {
			{URL: "https://a.example/1", Title: "First", Source: "A", PublishedAt: published, Description: "desc one"},
			{URL: "https://b.example/2/", Title: "Second", Source: "B"},
		},
	}}
	searx := &fakeProvider{name: ProviderSearxNG, available: true, results: map[string][]SearchResult{
		"moon hoax": {
			{URL: "https://B.example/2", Title: "Duplicate"},
			{URL: "https://c.example/3", Title: "Third"},
		},
	}}
	factCheck := &fakeProvider{name: ProviderFactCheck, available: true, results: map[string][]SearchResult{
		"The moon landing was staged": {{URL: "https://fc.example/r", Title: "Review"}},
	}}
	offline := &fakeProvider{name: "offline", available: false}

	f := NewFetcher(Config{MaxResults: 3}, []Provider{news, searx, factCheck, offline}, nil, nil, nil)

	block, err := f.Fetch(context.Background(), "moon hoax", "The moon landing was staged", true, testModels)
	require.NoError(t, err)

	assert.Equal(t, []string{"The moon landing was staged"}, factCheck.queries)
	assert.Empty(t, offline.queries)

	assert.Contains(t, block, "1. First\nSource: A\nDate: 2024-01-02\nURL: https://a.example/1\ndesc one")
	assert.Contains(t, block, "2. Second")
	assert.Contains(t, block, "3. Third")
	assert.NotContains(t, block, "Duplicate")
	assert.NotContains(t, block, "Review")
}

func TestFetcherNothingFound(t *testing.T) {
	p := &fakeProvider{name: ProviderSearxNG, available: true}
	f := NewFetcher(Config{}, []Provider{p}, nil, nil, nil)

	block, err := f.Fetch(context.Background(), "q", "claim", true, domain.ModelSet{})
	require.NoError(t, err)
	assert.Empty(t, block)
}

func TestFetcherRetrievalFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		providers []Provider
		wantErr   bool
	}{
		{
			name:      "no providers available",
			providers: []Provider{&fakeProvider{name: ProviderSearxNG}},
			wantErr:   true,
		},
		{
			name: "every provider fails",
			providers: []Provider{
				&fakeProvider{name: ProviderSearxNG, available: true, err: boom},
				&fakeProvider{name: ProviderGoogleNewsRSS, available: true, err: boom},
			},
			wantErr: true,
		},
		{
			name: "one provider fails",
			providers: []Provider{
				&fakeProvider{name: ProviderSearxNG, available: true, err: boom},
				&fakeProvider{name: ProviderGoogleNewsRSS, available: true, results: map[string][]SearchResult{
					"q": {{URL: "https://ok.example", Title: "OK"}},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(Config{}, tt.providers, nil, nil, nil)

			block, err := f.Fetch(context.Background(), "q", "claim", true, domain.ModelSet{})
			if tt.wantErr {
				require.ErrorIs(t, err, apperrors.ErrRetrieval)
				return
			}

			require.NoError(t, err)
			assert.Contains(t, block, "OK")
		})
	}
}

func TestFetcherCancelledContext(t *testing.T) {
	p := &fakeProvider{name: ProviderSearxNG, available: true}
	f := NewFetcher(Config{}, []Provider{p}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "q", "claim", true, testModels)
	require.ErrorIs(t, err, apperrors.ErrRetrieval)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetcherResearchRetry(t *testing.T) {
	p := &fakeProvider{name: ProviderSearxNG, available: true, results: map[string][]SearchResult{
		"broader query": {{URL: "https://found.example", Title: "Found"}},
	}}
	c := &fakeCompleter{replies: map[string]string{"research": `"broader query"`}}

	f := NewFetcher(Config{}, []Provider{p}, nil, c, nil)

	block, err := f.Fetch(context.Background(), "narrow", "claim", true, testModels)
	require.NoError(t, err)
	assert.Contains(t, block, "Found")
	assert.Equal(t, []string{"narrow", "broader query"}, p.queries)
	assert.Equal(t, []string{"research"}, c.calls)
}

func TestFetcherSummarize(t *testing.T) {
	p := &fakeProvider{name: ProviderSearxNG, available: true, results: map[string][]SearchResult{
		"q": {
			{URL: "https://one.example", Title: "One"},
			{URL: "https://two.example", Title: "Two"},
		},
	}}

	t.Run("summary replaces raw block", func(t *testing.T) {
		c := &fakeCompleter{replies: map[string]string{"summary": "Both outlets report the event."}}
		f := NewFetcher(Config{Summarize: true}, []Provider{p}, nil, c, nil)

		block, err := f.Fetch(context.Background(), "q", "claim", true, testModels)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(block, "Both outlets report the event."))
		assert.Contains(t, block, "Sources:\n- https://one.example\n- https://two.example")
		assert.Equal(t, []string{"summary"}, c.calls)
	})

	t.Run("summary failure keeps raw block", func(t *testing.T) {
		c := &fakeCompleter{err: errors.New("model down")}
		f := NewFetcher(Config{Summarize: true}, []Provider{p}, nil, c, nil)

		block, err := f.Fetch(context.Background(), "q", "claim", true, testModels)
		require.NoError(t, err)
		assert.Contains(t, block, "1. One")
	})
}

func TestMergeResultsLimit(t *testing.T) {
	collected := [][]SearchResult{
		{{URL: "https://a"}, {URL: "https://b"}},
		nil,
		{{URL: "https://a/"}, {URL: "https://c"}, {URL: "https://d"}},
	}

	merged := mergeResults(collected, 3)
	require.Len(t, merged, 3)
	assert.Equal(t, "https://c", merged[2].URL)
}

func TestMergeResultsConcatenatesInProviderOrder(t *testing.T) {
	collected := [][]SearchResult{
		{{URL: "https://a"}, {URL: "https://b"}},
		{{URL: "https://A/"}, {URL: "https://c"}},
		{{URL: "https://d"}},
	}

	merged := mergeResults(collected, 10)

	urls := make([]string, len(merged))
	for i, r := range merged {
		urls[i] = r.URL
	}

	assert.Equal(t, []string{"https://a", "https://b", "https://c", "https://d"}, urls)
}
