// Package events defines the closed set of events the agent core emits
// while running a tool loop (spec §4.8), and a single-reader channel
// transport for streaming them to a caller.
//
// The enum-constant shape and doc-comment style follow the teacher's
// internal/events/types.go; the transport is new, since the teacher emits
// into a store rather than a live stream.
package events

import "time"

// Type is the tag identifying which closed-set event a Event carries.
type Type string

const (
	// TypeText carries one streamed text chunk from the model.
	TypeText Type = "text"
	// TypeStepStart marks the beginning of one model-call/tool-batch step.
	TypeStepStart Type = "step-start"
	// TypeToolCall marks that a tool invocation has begun.
	TypeToolCall Type = "tool-call"
	// TypeToolResult carries a completed tool invocation's result.
	TypeToolResult Type = "tool-result"
	// TypeTodosChanged fires after write_todos replaces or merges the list.
	TypeTodosChanged Type = "todos-changed"
	// TypeFileWriteStart fires before write_file delegates to the backend.
	TypeFileWriteStart Type = "file-write-start"
	// TypeFileWritten fires after a successful write_file.
	TypeFileWritten Type = "file-written"
	// TypeFileEdited fires after edit_file completes.
	TypeFileEdited Type = "file-edited"
	// TypeFileRead fires after read_file completes.
	TypeFileRead Type = "file-read"
	// TypeLs fires after the ls tool completes.
	TypeLs Type = "ls"
	// TypeGlob fires after the glob tool completes.
	TypeGlob Type = "glob"
	// TypeGrep fires after the grep tool completes.
	TypeGrep Type = "grep"
	// TypeExecuteStart fires before the execute tool runs a command.
	TypeExecuteStart Type = "execute-start"
	// TypeExecuteFinish fires after the execute tool's command completes.
	TypeExecuteFinish Type = "execute-finish"
	// TypeWebSearchStart fires before the web_search tool calls out.
	TypeWebSearchStart Type = "web-search-start"
	// TypeWebSearchFinish fires after the web_search tool returns.
	TypeWebSearchFinish Type = "web-search-finish"
	// TypeHTTPRequestStart fires before the http_request tool calls out.
	TypeHTTPRequestStart Type = "http-request-start"
	// TypeHTTPRequestFinish fires after the http_request tool returns.
	TypeHTTPRequestFinish Type = "http-request-finish"
	// TypeFetchURLStart fires before the fetch_url tool calls out.
	TypeFetchURLStart Type = "fetch-url-start"
	// TypeFetchURLFinish fires after the fetch_url tool returns.
	TypeFetchURLFinish Type = "fetch-url-finish"
	// TypeSubagentStart fires when the task tool spawns a sub-agent.
	TypeSubagentStart Type = "subagent-start"
	// TypeSubagentStep fires once per inner step of a running sub-agent.
	TypeSubagentStep Type = "subagent-step"
	// TypeSubagentFinish fires when a sub-agent's inner loop terminates.
	TypeSubagentFinish Type = "subagent-finish"
	// TypeTextSegment closes out one contiguous run of text chunks.
	TypeTextSegment Type = "text-segment"
	// TypeUserMessage fires when a new user message is appended to the buffer.
	TypeUserMessage Type = "user-message"
	// TypeDone marks successful termination of the invocation.
	TypeDone Type = "done"
	// TypeError marks unrecoverable termination of the invocation.
	TypeError Type = "error"
	// TypeApprovalRequested fires when a gated tool call needs a decision.
	TypeApprovalRequested Type = "approval-requested"
	// TypeApprovalResponse fires once a decision has been made.
	TypeApprovalResponse Type = "approval-response"
	// TypeCheckpointSaved fires after a step's checkpoint write succeeds.
	TypeCheckpointSaved Type = "checkpoint-saved"
	// TypeCheckpointLoaded fires when a prior checkpoint seeds the run.
	TypeCheckpointLoaded Type = "checkpoint-loaded"
)

// Event is the single concrete type carrying every member of the closed
// event set. Only the fields relevant to Type are populated; this mirrors
// the teacher's single AgentEvent struct with a typed Data payload, but
// keeps the payload as named fields instead of a map so callers get
// compile-time field access for the fields each event type actually uses.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Step is the current step number, populated on step/tool events.
	Step int `json:"step,omitempty"`

	// Text carries TypeText/TypeTextSegment payloads.
	Text string `json:"text,omitempty"`

	// ToolCallID/ToolName/ToolArgs/ToolResult carry tool-call/result events.
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	ToolArgs   map[string]any `json:"tool_args,omitempty"`
	ToolResult string         `json:"tool_result,omitempty"`
	ToolError  bool           `json:"tool_error,omitempty"`

	// Path/Pattern/Entries/Matches carry filesystem-tool events.
	Path    string   `json:"path,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Entries []string `json:"entries,omitempty"`
	Matches []string `json:"matches,omitempty"`

	// Command/ExitCode/Stdout/Stderr carry execute-tool events.
	Command  string `json:"command,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`

	// Query/URL carry web_search/http_request/fetch_url events.
	Query string `json:"query,omitempty"`
	URL   string `json:"url,omitempty"`

	// SubagentType/SubagentID carry subagent lifecycle events.
	SubagentType string `json:"subagent_type,omitempty"`
	SubagentID   string `json:"subagent_id,omitempty"`

	// ApprovalID/Approved carry approval events.
	ApprovalID string `json:"approval_id,omitempty"`
	Approved   bool   `json:"approved,omitempty"`

	// ThreadID/MessagesCount carry checkpoint events.
	ThreadID      string `json:"thread_id,omitempty"`
	MessagesCount int    `json:"messages_count,omitempty"`

	// Output carries the TypeDone payload's optional structured result.
	Output any `json:"output,omitempty"`

	// Err carries the TypeError payload. Not serialized; events are
	// ephemeral (spec §3) and never persisted as JSON.
	Err error `json:"-"`
}
