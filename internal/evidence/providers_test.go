package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearxNGProviderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "moon landing", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "news", r.URL.Query().Get("categories"))
		assert.Equal(t, "bing news", r.URL.Query().Get("engines"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":"moon landing","results":[
			{"url":"https://www.example.com/a","title":"A","content":"first","publishedDate":"2024-03-01T10:00:00","score":1.5},
			{"url":"","title":"no url"},
			{"url":"https://news.example.org/b","title":"B","content":"second"},
			{"url":"https://news.example.org/c","title":"C","content":"third"}
		]}`))
	}))
	defer srv.Close()

	p := NewSearxNGProvider(SearxNGConfig{Enabled: true, BaseURL: srv.URL + "/", Engines: []string{"bing news"}})
	require.True(t, p.IsAvailable())

	results, err := p.Search(context.Background(), "moon landing", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "https://www.example.com/a", results[0].URL)
	assert.Equal(t, "example.com", results[0].Domain)
	assert.Equal(t, 2024, results[0].PublishedAt.Year())
	assert.Equal(t, ProviderSearxNG, results[0].Provider)
	assert.Equal(t, "B", results[1].Title)
}

func TestSearxNGProviderErrors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		p := NewSearxNGProvider(SearxNGConfig{Enabled: false, BaseURL: "http://localhost"})
		_, err := p.Search(context.Background(), "q", 5)
		require.ErrorIs(t, err, errProviderDisabled)
	})

	t.Run("html error page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>rate limited</html>"))
		}))
		defer srv.Close()

		p := NewSearxNGProvider(SearxNGConfig{Enabled: true, BaseURL: srv.URL})
		_, err := p.Search(context.Background(), "q", 5)
		require.ErrorIs(t, err, errSearxNGAPIError)
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		p := NewSearxNGProvider(SearxNGConfig{Enabled: true, BaseURL: srv.URL})
		_, err := p.Search(context.Background(), "q", 5)
		require.ErrorIs(t, err, errUnexpectedStatus)
	})
}

const googleNewsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>"vaccine" - Google News</title>
<item>
  <title>Vaccine study published - Reuters</title>
  <link>https://news.google.com/articles/one</link>
  <pubDate>Mon, 04 Mar 2024 08:00:00 GMT</pubDate>
  <description>&lt;a href="https://reuters.com"&gt;Vaccine study&lt;/a&gt; &amp;nbsp;Reuters</description>
</item>
<item>
  <title>Second story</title>
  <link>https://www.apnews.com/two</link>
</item>
<item>
  <title>Third story - BBC</title>
  <link>https://news.google.com/articles/three</link>
</item>
</channel>
</rss>`

func TestGoogleNewsProviderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "vaccine study", q.Get("q"))
		assert.Equal(t, "en-US", q.Get("hl"))
		assert.Equal(t, "US", q.Get("gl"))
		assert.Equal(t, "US:en", q.Get("ceid"))

		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(googleNewsFeed))
	}))
	defer srv.Close()

	p := NewGoogleNewsProvider(GoogleNewsConfig{Enabled: true, URL: srv.URL, Locale: "en-US:US"})

	results, err := p.Search(context.Background(), "vaccine study", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Vaccine study published", results[0].Title)
	assert.Equal(t, "Reuters", results[0].Source)
	assert.Equal(t, 2024, results[0].PublishedAt.Year())
	assert.NotContains(t, results[0].Description, "<a")
	assert.Equal(t, ProviderGoogleNewsRSS, results[0].Provider)

	assert.Equal(t, "Second story", results[1].Title)
	assert.Equal(t, "apnews.com", results[1].Source)
	assert.True(t, results[1].PublishedAt.IsZero())
}

func TestGoogleNewsProviderLocaleWithoutCountry(t *testing.T) {
	p := NewGoogleNewsProvider(GoogleNewsConfig{Enabled: true, Locale: "de"})

	assert.Equal(t, "de", p.hl)
	assert.Equal(t, "DE", p.gl)
	assert.Contains(t, p.buildURL("x"), "ceid=DE%3Ade")
}

func TestFactCheckProviderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "the earth is flat", q.Get("query"))
		assert.Equal(t, "secret", q.Get("key"))
		assert.Equal(t, "2", q.Get("pageSize"))

		_, _ = w.Write([]byte(`{"claims":[{"text":"Earth is flat","claimReview":[
			{"publisher":{"name":"PolitiFact","site":"politifact.com"},"url":"https://politifact.com/r/1","title":"Flat earth check","reviewDate":"2023-05-02T00:00:00Z","textualRating":"Pants on Fire"},
			{"publisher":{"site":"snopes.com"},"url":"https://snopes.com/r/2","textualRating":"False"},
			{"publisher":{"name":"Extra"},"url":"https://extra.example/r/3","textualRating":"False"}
		]}]}`))
	}))
	defer srv.Close()

	p := NewFactCheckProvider(FactCheckConfig{Enabled: true, APIKey: "secret", MaxResults: 2, Endpoint: srv.URL})

	results, err := p.Search(context.Background(), "the earth is flat", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Flat earth check", results[0].Title)
	assert.Equal(t, "PolitiFact", results[0].Source)
	assert.Contains(t, results[0].Description, "Pants on Fire")
	assert.Equal(t, 2023, results[0].PublishedAt.Year())

	assert.Equal(t, "Earth is flat", results[1].Title)
	assert.Equal(t, "snopes.com", results[1].Source)
}

func TestFactCheckProviderRequiresKey(t *testing.T) {
	p := NewFactCheckProvider(FactCheckConfig{Enabled: true})
	assert.False(t, p.IsAvailable())

	_, err := p.Search(context.Background(), "claim", 3)
	require.ErrorIs(t, err, errProviderDisabled)
}
