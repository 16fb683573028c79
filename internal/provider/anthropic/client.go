// Package anthropic implements the spec §6 model-provider interface
// (provider.ModelClient) against github.com/anthropics/anthropic-sdk-go,
// the way the teacher's internal/ai.Supervisor drives the same SDK: a
// *anthropic.Client built from an API key, calls wrapped in
// provider.RetryWithBackoff with a circuit breaker, and a provider-specific
// Classifier translating *anthropic.Error into provider.ErrorType.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/deepagent-go/deepagent/internal/message"
	"github.com/deepagent-go/deepagent/internal/provider"
)

// Config configures a Client. APIKey defaults to ANTHROPIC_API_KEY.
type Config struct {
	APIKey string
	Retry  provider.RetryConfig
}

func DefaultConfig() Config {
	return Config{Retry: provider.DefaultRetryConfig()}
}

// Client is the Anthropic-backed provider.ModelClient.
type Client struct {
	sdk     *anthropic.Client
	retry   provider.RetryConfig
	breaker *provider.CircuitBreaker
}

func New(cfg Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.Timeout == 0 {
		retry = provider.DefaultRetryConfig()
	}

	sdk := anthropic.NewClient(option.WithAPIKey(apiKey))

	var breaker *provider.CircuitBreaker
	if retry.CircuitBreakerEnabled {
		breaker = provider.NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout)
	}

	return &Client{sdk: &sdk, retry: retry, breaker: breaker}, nil
}

// Generate implements provider.ModelClient. It issues a single streaming
// Messages call, relaying text deltas, completed tool calls, and a final
// usage-bearing finish part onto the returned channels. The retry/circuit
// breaker wraps the whole streamed call: a mid-stream failure is retried
// from scratch, matching the teacher's retryWithBackoff treatment of a
// failed API call.
func (c *Client) Generate(ctx context.Context, messages []message.Message, tools []provider.ToolDef, opts provider.Options) (<-chan provider.Part, <-chan error) {
	parts := make(chan provider.Part, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(parts)
		defer close(errs)

		err := retryGenerate(ctx, c.retry, c.breaker, func(attemptCtx context.Context) error {
			return c.streamOnce(attemptCtx, messages, tools, opts, parts)
		})
		if err != nil {
			errs <- err
		}
	}()

	return parts, errs
}

func (c *Client) streamOnce(ctx context.Context, messages []message.Message, tools []provider.ToolDef, opts provider.Options, parts chan<- provider.Part) error {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		MaxTokens: int64(maxTokensOrDefault(opts.MaxTokens)),
		Messages:  toAnthropicMessages(messages),
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if len(tools) > 0 {
		params.Tools = toAnthropicTools(tools)
	}

	stream := c.sdk.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	acc := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return fmt.Errorf("accumulate stream event: %w", err)
		}

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				select {
				case parts <- provider.Part{Type: provider.PartText, Text: delta.Text}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}

	for _, block := range acc.Content {
		if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			var args map[string]any
			_ = json.Unmarshal(tu.Input, &args)
			select {
			case parts <- provider.Part{Type: provider.PartToolCall, ToolCallID: tu.ID, ToolName: tu.Name, ToolArgs: args}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	finish := provider.Part{
		Type:       provider.PartFinish,
		StopReason: string(acc.StopReason),
		Usage: provider.Usage{
			InputTokens:  int(acc.Usage.InputTokens),
			OutputTokens: int(acc.Usage.OutputTokens),
		},
	}
	select {
	case parts <- finish:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 8192
	}
	return n
}

func toAnthropicMessages(messages []message.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch p.Type {
			case message.PartText:
				blocks = append(blocks, anthropic.NewTextBlock(p.Text))
			case message.PartToolCall:
				blocks = append(blocks, anthropic.NewToolUseBlock(p.ToolCallID, p.Args, p.ToolName))
			case message.PartToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(p.ToolCallID, p.Result, p.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == message.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

func toAnthropicTools(tools []provider.ToolDef) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Schema["properties"],
					Required:   toStringSlice(t.Schema["required"]),
				},
			},
		})
	}
	return out
}

func toStringSlice(v any) []string {
	list, ok := v.([]string)
	if ok {
		return list
	}
	anyList, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(anyList))
	for _, item := range anyList {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func retryGenerate(ctx context.Context, cfg provider.RetryConfig, cb *provider.CircuitBreaker, fn func(context.Context) error) error {
	return provider.RetryWithBackoff(ctx, cfg, cb, classify, "generate", fn)
}

// classify maps anthropic.Error status codes (and, failing that, error
// string patterns for wrapped/transport errors) to a provider.ErrorType.
func classify(err error) (provider.ErrorType, time.Duration) {
	if err == nil {
		return provider.ErrorUnknown, 0
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return provider.ErrorQuota, parseRetryAfter(apiErr)
		case apiErr.StatusCode >= 500:
			return provider.ErrorTransient, 0
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return provider.ErrorAuth, 0
		case apiErr.StatusCode >= 400:
			return provider.ErrorInvalid, 0
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "quota"):
		return provider.ErrorQuota, provider.ParseRetryAfterFromMessage(errStr)
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") || strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") || strings.Contains(errStr, "gateway") || strings.Contains(errStr, "unavailable"):
		return provider.ErrorTransient, 0
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") || errors.Is(err, context.DeadlineExceeded):
		return provider.ErrorTransient, 0
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "403") || strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "forbidden"):
		return provider.ErrorAuth, 0
	case strings.Contains(errStr, "400") || strings.Contains(errStr, "bad request"):
		return provider.ErrorInvalid, 0
	default:
		return provider.ErrorUnknown, 0
	}
}

func parseRetryAfter(apiErr *anthropic.Error) time.Duration {
	if apiErr.Response != nil {
		if retryAfter := apiErr.Response.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				return time.Duration(seconds) * time.Second
			}
		}
		if resetTime := apiErr.Response.Header.Get("X-RateLimit-Reset"); resetTime != "" {
			if timestamp, err := strconv.ParseInt(resetTime, 10, 64); err == nil {
				if wait := time.Until(time.Unix(timestamp, 0)); wait > 0 {
					return wait
				}
			}
		}
	}
	if wait := provider.ParseRetryAfterFromMessage(apiErr.RawJSON()); wait > 0 {
		return wait
	}
	if apiErr.Request != nil {
		if wait := provider.ParseRetryAfterFromMessage(apiErr.Error()); wait > 0 {
			return wait
		}
	}
	return 1 * time.Hour
}
