// Package tools implements the named tool set from spec §4.3: typed
// descriptors wrapping backend operations, the todo list, sub-agent
// delegation, and the optional execute/web/http tools.
//
// The descriptor shape (stable name, JSON-schema args, an
// execute(ctx, args) function) is grounded on the retrieval pack's
// KumarDeepankar-wick_agent FilesystemHook
// (wick_deep_agent/server/hooks/filesystem.go), adapted from hook
// registration on a shared agent state into stateless carriers over an
// explicit Context the agent core supplies per call (spec §4.3: "Tools are
// stateless carriers over a shared backend reference").
package tools

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/deepagent-go/deepagent/internal/backend"
	"github.com/deepagent-go/deepagent/internal/events"
)

// Execute is a tool's implementation: given parsed arguments and the
// call's Context, produce a text result (or an "Error: ..." string per
// spec §7 — tool-scoped user errors are never returned as a Go error).
type Execute func(ctx context.Context, args map[string]any, tc *Context) (string, error)

// Tool is one named, schema-described, callable unit the agent core
// exposes to the model.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
	Run         Execute
}

// Context is everything a tool's Run function may need, assembled fresh by
// the agent core for each invocation (or each sub-agent's inner loop). Step
// returns the agent's current step number for event tagging.
type Context struct {
	Backend backend.Backend
	Stream  *events.Stream
	Step    func() int

	// Subagent dispatches the task tool to a named sub-agent configuration
	// and returns its final text. Nil disables the task tool.
	Subagent SubagentRunner

	// Sandbox runs shell commands for the execute tool. Nil disables it.
	Sandbox Sandbox

	// Search backs the web_search tool. Nil disables it.
	Search WebSearchProvider

	// Fetcher backs http_request/fetch_url. Nil disables both.
	Fetcher URLFetcher

	// Limiter throttles web_search/http_request/fetch_url to a shared
	// requests-per-second budget. Nil means unlimited.
	Limiter *rate.Limiter
}

// emit is a small helper every tool uses to publish its event, swallowing a
// nil Stream (used in tests that don't care about the event feed).
func (tc *Context) emit(ctx context.Context, ev events.Event) error {
	if tc == nil || tc.Stream == nil {
		return nil
	}
	return tc.Stream.Emit(ctx, ev)
}

func (tc *Context) step() int {
	if tc == nil || tc.Step == nil {
		return 0
	}
	return tc.Step()
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}
