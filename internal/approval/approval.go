// Package approval implements the human-in-the-loop gate described in
// spec §4.4: wrapping a tool's execute function so that calls needing
// approval are intercepted, decided, and only then (or never) delegated.
//
// The static/predicate config shape is grounded on the requiresApproval
// pattern in the retrieval pack's haasonsaas-nexus runtime
// (internal/agent/runtime.go), generalized from a string-pattern allowlist
// to a per-tool decision value.
package approval

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/deepagent-go/deepagent/internal/events"
)

// DeniedMessage is the sentinel tool-result text returned when a gated
// tool call is denied or auto-denied (spec §4.4 step 4).
const DeniedMessage = "Tool execution denied by user. The requested tool call was not executed."

// Decision is a per-tool approval configuration value: either a static
// verdict or a dynamic predicate consulted with the call's arguments.
type Decision struct {
	// Static, when Predicate is nil, is consulted directly.
	Static bool

	// Predicate, if set, is awaited with the tool's arguments and
	// overrides Static. May be asynchronous (spec's "Dynamic approval
	// predicate" design note, §9) — it is simply a function the gate
	// awaits before deciding, which in Go means it can itself block or
	// respect ctx.
	Predicate func(ctx context.Context, args map[string]any) (bool, error)
}

// Always is a Decision that always requires approval.
func Always() Decision { return Decision{Static: true} }

// Never is a Decision that never requires approval.
func Never() Decision { return Decision{Static: false} }

// When builds a Decision from a dynamic predicate.
func When(pred func(ctx context.Context, args map[string]any) (bool, error)) Decision {
	return Decision{Predicate: pred}
}

// NeedsApproval consults the decision for args, exported so callers that
// need to interleave their own events between the decision and the actual
// tool invocation (the agent package's per-call ordering) don't have to go
// through Gate's bundled decide-then-execute shape.
func (d Decision) NeedsApproval(ctx context.Context, args map[string]any) (bool, error) {
	if d.Predicate != nil {
		return d.Predicate(ctx, args)
	}
	return d.Static, nil
}

// Config maps tool name to its approval Decision (spec's `interruptOn`).
type Config map[string]Decision

// RequestHandler is the caller-supplied callback consulted for a decision
// once a gated call is found to need approval. Its absence means
// default-deny (spec §4.4 step 2).
type RequestHandler func(ctx context.Context, req Request) (bool, error)

// Request is the payload handed to a RequestHandler (spec §3
// "ApprovalRequest"). It is ephemeral: created just before the handler
// runs, discarded once the handler returns.
type Request struct {
	ApprovalID string
	ToolCallID string
	ToolName   string
	Args       map[string]any
}

// Execute is the shape every tool's unwrapped execute function has: take
// arguments and return a string (or structured) result.
type Execute func(ctx context.Context, args map[string]any) (string, error)

// RequestDecision emits approval-requested, awaits handler (default-deny if
// nil), and emits approval-response, returning whether the call is
// approved. Pulled out of Gate so agent.go can ask for a decision, emit its
// own tool-call event for the same toolCallID, and only then execute —
// preserving the spec §4.8 ordering ("approval-requested precedes the
// corresponding tool-call") that a single opaque decide-and-execute closure
// cannot give the caller control over.
func RequestDecision(ctx context.Context, stream *events.Stream, step func() int, approvalID, toolCallID, toolName string, args map[string]any, handler RequestHandler) (bool, error) {
	if stream != nil {
		if emitErr := stream.Emit(ctx, events.NewApprovalRequestedEvent(step(), approvalID, toolCallID, toolName, args)); emitErr != nil {
			return false, emitErr
		}
	}

	approved := false
	var err error
	if handler != nil {
		approved, err = handler(ctx, Request{
			ApprovalID: approvalID,
			ToolCallID: toolCallID,
			ToolName:   toolName,
			Args:       args,
		})
		if err != nil {
			return false, fmt.Errorf("approval handler for %s: %w", toolName, err)
		}
	}

	if stream != nil {
		if emitErr := stream.Emit(ctx, events.NewApprovalResponseEvent(step(), approvalID, approved)); emitErr != nil {
			return false, emitErr
		}
	}
	return approved, nil
}

// Gate wraps execute for toolName with cfg's decision, emitting
// approval-requested/approval-response around the caller's handler and
// falling back to default-deny when handler is nil. step is a callback
// returning the agent's current step number, since the gate may wrap a
// tool whose call spans multiple steps of a long-running loop.
//
// Gate bundles decide-then-execute into one Execute value, which is the
// right shape for a caller that has no event of its own to interleave
// between the decision and the call (this is exercised directly by this
// package's tests); a caller that needs to emit its own tool-call event in
// between, like agent.go's per-step loop, uses NeedsApproval and
// RequestDecision instead.
func Gate(stream *events.Stream, step func() int, toolName string, cfg Config, handler RequestHandler, execute Execute) Execute {
	decision, gated := cfg[toolName]
	if !gated {
		return execute
	}
	return func(ctx context.Context, args map[string]any) (string, error) {
		needs, err := decision.NeedsApproval(ctx, args)
		if err != nil {
			return "", fmt.Errorf("evaluate approval decision for %s: %w", toolName, err)
		}
		if !needs {
			return execute(ctx, args)
		}

		approvalID := uuid.New().String()
		toolCallID, _ := args["__tool_call_id"].(string)
		approved, err := RequestDecision(ctx, stream, step, approvalID, toolCallID, toolName, args, handler)
		if err != nil {
			return "", err
		}
		if !approved {
			return DeniedMessage, nil
		}
		return execute(ctx, args)
	}
}
