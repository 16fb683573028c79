package agent

import (
	"errors"

	"github.com/deepagent-go/deepagent/internal/approval"
	"github.com/deepagent-go/deepagent/internal/events"
	"github.com/deepagent-go/deepagent/internal/provider"
)

// ErrThreadNotFound is returned by Resume when no checkpoint exists for
// the requested thread ID.
var ErrThreadNotFound = errors.New("agent: thread not found")

// ErrMaxStepsExceeded is the error carried by the terminal error event
// when a run exhausts its step budget without the model returning a
// final, tool-call-free message (spec §4.8 step 5).
var ErrMaxStepsExceeded = errors.New("agent: max steps exceeded")

// ErrApprovalDenied is returned by ToolResultError for a tool-result event
// that carries the approval gate's denial sentinel. Denial is not itself
// an error on the event stream (spec §7); this exists for callers at the
// edges (CLI, HTTP handlers) that want ordinary Go error semantics.
var ErrApprovalDenied = errors.New("agent: tool execution denied by user")

// ErrCircuitOpen re-exports provider.ErrCircuitOpen so callers that only
// import the agent package can still errors.Is against it when a model
// call fails with the circuit breaker tripped.
var ErrCircuitOpen = provider.ErrCircuitOpen

// ToolResultError converts a TypeToolResult event into a Go error when its
// content is the approval gate's denial message, or nil otherwise.
func ToolResultError(ev events.Event) error {
	if ev.Type != events.TypeToolResult {
		return nil
	}
	if ev.ToolResult == approval.DeniedMessage {
		return ErrApprovalDenied
	}
	return nil
}
