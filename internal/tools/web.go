package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/deepagent-go/deepagent/internal/events"
)

// SearchResult is one hit from a WebSearchProvider.
type SearchResult struct {
	URL     string
	Title   string
	Snippet string
}

// WebSearchProvider is the optional search capability backing web_search
// (spec §6 "Web provider (optional)").
type WebSearchProvider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// URLFetcher is the optional HTTP capability backing http_request and
// fetch_url. A nil Fetcher disables both tools.
type URLFetcher interface {
	Fetch(ctx context.Context, method, url string, body string, headers map[string]string) (status int, responseBody string, err error)
}

// HTTPFetcher is the default URLFetcher, a thin wrapper over net/http with
// the spec §5 30-second network timeout applied per request.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func (f HTTPFetcher) Fetch(ctx context.Context, method, url string, body string, headers map[string]string) (int, string, error) {
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, string(data), nil
}

var _ URLFetcher = HTTPFetcher{}

// NewWebSearchTool performs a web search via the configured provider.
func NewWebSearchTool() Tool {
	return Tool{
		Name:        "web_search",
		Description: "Search the web and return a list of result URLs, titles, and snippets.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
			"required":   []string{"query"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			if tc.Search == nil {
				return "Error: web search is not configured", nil
			}
			query := stringArg(args, "query")
			timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
			defer cancel()

			if err := waitLimiter(timeoutCtx, tc.Limiter); err != nil {
				return "Error: " + err.Error(), nil
			}
			if err := tc.emit(ctx, events.NewWebSearchStartEvent(tc.step(), query)); err != nil {
				return "", err
			}
			results, err := tc.Search.Search(timeoutCtx, query)
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			if emitErr := tc.emit(ctx, events.NewWebSearchFinishEvent(tc.step(), query)); emitErr != nil {
				return "", emitErr
			}
			if len(results) == 0 {
				return "(no results)", nil
			}
			lines := make([]string, len(results))
			for i, r := range results {
				lines[i] = fmt.Sprintf("%s — %s\n%s", r.Title, r.URL, r.Snippet)
			}
			return strings.Join(lines, "\n\n"), nil
		},
	}
}

// NewHTTPRequestTool performs an arbitrary HTTP request via the configured
// fetcher.
func NewHTTPRequestTool() Tool {
	return Tool{
		Name:        "http_request",
		Description: "Issue an HTTP request and return the status code and response body.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":     map[string]any{"type": "string"},
				"method":  map[string]any{"type": "string"},
				"body":    map[string]any{"type": "string"},
				"headers": map[string]any{"type": "object"},
			},
			"required": []string{"url"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			if tc.Fetcher == nil {
				return "Error: HTTP requests are not configured", nil
			}
			url := stringArg(args, "url")
			timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
			defer cancel()

			if err := waitLimiter(timeoutCtx, tc.Limiter); err != nil {
				return "Error: " + err.Error(), nil
			}
			if err := tc.emit(ctx, events.NewHTTPRequestStartEvent(tc.step(), url)); err != nil {
				return "", err
			}
			status, respBody, err := tc.Fetcher.Fetch(timeoutCtx, stringArg(args, "method"), url, stringArg(args, "body"), toStringMap(args["headers"]))
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			if emitErr := tc.emit(ctx, events.NewHTTPRequestFinishEvent(tc.step(), url)); emitErr != nil {
				return "", emitErr
			}
			return fmt.Sprintf("status %d\n%s", status, respBody), nil
		},
	}
}

// NewFetchURLTool fetches a URL and returns its raw body, for the common
// case of the model wanting a page's contents without request tuning.
func NewFetchURLTool() Tool {
	return Tool{
		Name:        "fetch_url",
		Description: "Fetch a URL's content via GET.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"url": map[string]any{"type": "string"}},
			"required":   []string{"url"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			if tc.Fetcher == nil {
				return "Error: URL fetching is not configured", nil
			}
			url := stringArg(args, "url")
			timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
			defer cancel()

			if err := waitLimiter(timeoutCtx, tc.Limiter); err != nil {
				return "Error: " + err.Error(), nil
			}
			if err := tc.emit(ctx, events.NewFetchURLStartEvent(tc.step(), url)); err != nil {
				return "", err
			}
			status, body, err := tc.Fetcher.Fetch(timeoutCtx, http.MethodGet, url, "", nil)
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			if emitErr := tc.emit(ctx, events.NewFetchURLFinishEvent(tc.step(), url)); emitErr != nil {
				return "", emitErr
			}
			if status >= 400 {
				return fmt.Sprintf("Error: fetch %s returned status %d", url, status), nil
			}
			return body, nil
		},
	}
}

// waitLimiter blocks until limiter allows one more network call, or ctx is
// done first. A nil limiter (no WebRateLimit configured) never blocks.
func waitLimiter(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

func toStringMap(v any) map[string]string {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
