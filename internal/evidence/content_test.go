package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Page Title</title>
  <meta property="og:title" content="OG Title">
  <meta name="description" content="Short description">
  <meta property="article:published_time" content="2024-02-10T09:30:00Z">
</head>
<body>
  <article>
    <h1>City council approves new budget</h1>
    <p>The city council voted on Tuesday to approve a new budget that increases spending on public transit by twelve percent over the next fiscal year.</p>
    <p>Council members said the increase would fund additional bus routes, longer service hours, and maintenance of the aging light rail network that serves the downtown core.</p>
    <p>Opponents argued that the budget relies on optimistic revenue projections, but the measure passed with a comfortable majority after several hours of debate.</p>
    <p>The finance director told reporters that the transit expansion will be reviewed again in six months, when updated ridership figures and the first quarter tax receipts become available to the council.</p>
  </article>
</body>
</html>`

func TestExtractArticle(t *testing.T) {
	article := ExtractArticle([]byte(articleHTML), "https://example.com/news/budget", 0)

	assert.Contains(t, article.Content, "public transit")
	assert.Equal(t, "Short description", article.Description)
	assert.Equal(t, 2024, article.PublishedAt.Year())
	assert.NotEmpty(t, article.Title)
}

func TestExtractArticleTruncates(t *testing.T) {
	article := ExtractArticle([]byte(articleHTML), "https://example.com/news/budget", 20)

	assert.True(t, strings.HasSuffix(article.Content, "..."))
	assert.Equal(t, 23, len([]rune(article.Content)))
}

func TestExtractMetaTags(t *testing.T) {
	meta := extractMetaTags([]byte(articleHTML))

	assert.Equal(t, "Page Title", meta.Title)
	assert.Equal(t, "OG Title", meta.OGTitle)
	assert.Equal(t, "Short description", meta.Description)
	assert.Equal(t, "2024-02-10T09:30:00Z", meta.PublishedTime)
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "  just text ", want: "just text"},
		{name: "anchor", in: `<a href="x">Headline</a>&nbsp;<font>Source</font>`, want: "Headline   Source"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripTags(tt.in))
		})
	}
}

func TestArticleFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := NewArticleFetcher(time.Second, 100)

	article, err := f.Fetch(context.Background(), srv.URL+"/news")
	require.NoError(t, err)
	assert.NotEmpty(t, article.Content)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	require.ErrorIs(t, err, errUnexpectedStatus)
}
