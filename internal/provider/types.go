// Package provider defines the model-provider boundary (spec §6): a small
// streaming interface the agent core drives, independent of which model
// backs it. internal/provider/anthropic supplies the concrete
// implementation; the core package only ever imports this package.
package provider

import (
	"context"

	"github.com/deepagent-go/deepagent/internal/message"
)

// PartType discriminates the pieces of a streamed model turn.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool-call"
	PartStepFinish PartType = "step-finish"
	PartFinish     PartType = "finish"
)

// Part is one element of a provider's stream. Only the fields relevant to
// Type are populated.
type Part struct {
	Type PartType

	// PartText
	Text string

	// PartToolCall
	ToolCallID string
	ToolName   string
	ToolArgs   map[string]any

	// PartStepFinish / PartFinish
	StopReason string
	Usage      Usage
}

// Usage carries token accounting for a single model call, surfaced to
// callers for cost tracking and context-window bookkeeping.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ToolDef is the schema a provider needs to advertise one callable tool to
// the model. It mirrors tools.Tool's exported shape without internal/tools
// importing internal/provider (which would invert the dependency the core
// package relies on).
type ToolDef struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Options configures a single Generate call: the system prompt, a token
// cap, optional sampling temperature, and an optional JSON schema for the
// final assistant message (spec §6 "output"). Nothing in this package
// enforces the schema.
type Options struct {
	Model        string
	System       string
	MaxTokens    int
	Temperature  float64
	OutputSchema map[string]any
}

// ModelClient is the generic provider boundary: given a message history
// and an advertised tool set, stream back text/tool-call/step-finish parts
// terminated by a finish part carrying aggregate usage. Implementations
// must close the channel (with no further sends) once ctx is done or the
// stream concludes.
type ModelClient interface {
	Generate(ctx context.Context, messages []message.Message, tools []ToolDef, opts Options) (<-chan Part, <-chan error)
}
