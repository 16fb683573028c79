package tools

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearch struct {
	results []SearchResult
}

func (f fakeSearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return f.results, nil
}

type fakeFetcher struct {
	status int
	body   string
}

func (f fakeFetcher) Fetch(ctx context.Context, method, url, body string, headers map[string]string) (int, string, error) {
	return f.status, f.body, nil
}

func TestWebSearchTool(t *testing.T) {
	tc := testContext()
	tc.Search = fakeSearch{results: []SearchResult{{URL: "https://example.com", Title: "Example", Snippet: "a site"}}}

	out, err := NewWebSearchTool().Run(context.Background(), map[string]any{"query": "example"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.com")
}

func TestWebSearchToolNoResults(t *testing.T) {
	tc := testContext()
	tc.Search = fakeSearch{}
	out, err := NewWebSearchTool().Run(context.Background(), map[string]any{"query": "nothing"}, tc)
	require.NoError(t, err)
	assert.Equal(t, "(no results)", out)
}

func TestFetchURLTool(t *testing.T) {
	tc := testContext()
	tc.Fetcher = fakeFetcher{status: 200, body: "<html>hi</html>"}
	out, err := NewFetchURLTool().Run(context.Background(), map[string]any{"url": "https://example.com"}, tc)
	require.NoError(t, err)
	assert.Equal(t, "<html>hi</html>", out)
}

func TestFetchURLToolErrorStatus(t *testing.T) {
	tc := testContext()
	tc.Fetcher = fakeFetcher{status: 404, body: "not found"}
	out, err := NewFetchURLTool().Run(context.Background(), map[string]any{"url": "https://example.com/missing"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "status 404")
}

func TestFetchURLToolRespectsLimiter(t *testing.T) {
	tc := testContext()
	tc.Fetcher = fakeFetcher{status: 200, body: "hi"}
	tc.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := NewFetchURLTool().Run(context.Background(), map[string]any{"url": "https://example.com"}, tc)
	require.NoError(t, err, "first call consumes the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	out, err := NewFetchURLTool().Run(ctx, map[string]any{"url": "https://example.com"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "Error:", "second call exceeds the rate limit before the context deadline")
}

func TestHTTPRequestTool(t *testing.T) {
	tc := testContext()
	tc.Fetcher = fakeFetcher{status: 201, body: `{"ok":true}`}
	out, err := NewHTTPRequestTool().Run(context.Background(), map[string]any{"url": "https://example.com", "method": "POST"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "status 201")
	assert.Contains(t, out, `"ok":true`)
}
