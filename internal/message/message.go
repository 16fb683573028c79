// Package message defines the provider-agnostic chat message shape the
// agent core accumulates in its message buffer (spec §3 "Message").
package message

// Role identifies who produced a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// PartType discriminates the tagged variants of ContentPart.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
)

// ContentPart is one tagged segment of a Message's structured content.
// Exactly the fields relevant to Type are populated; the rest are zero.
type ContentPart struct {
	Type PartType `json:"type"`

	// Text holds the payload for PartText.
	Text string `json:"text,omitempty"`

	// ToolCallID/ToolName/Args hold the payload for PartToolCall.
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	Args       map[string]any `json:"args,omitempty"`

	// Result/IsError hold the payload for PartToolResult. ToolCallID above
	// is shared between the call and its result.
	Result  string `json:"result,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}

// Text builds a PartText content part.
func Text(s string) ContentPart { return ContentPart{Type: PartText, Text: s} }

// ToolCall builds a PartToolCall content part.
func ToolCall(id, name string, args map[string]any) ContentPart {
	return ContentPart{Type: PartToolCall, ToolCallID: id, ToolName: name, Args: args}
}

// ToolResult builds a PartToolResult content part.
func ToolResult(id, result string, isError bool) ContentPart {
	return ContentPart{Type: PartToolResult, ToolCallID: id, Result: result, IsError: isError}
}

// Message is one entry in the agent's message buffer. Content is always
// represented as structured Parts internally; Parts with a single PartText
// element are the equivalent of a plain string message.
type Message struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`

	// Summary marks a system message synthesized by summarization (spec
	// §4.6). A later summarization pass folds it into the new summary like
	// any other message in the summarized prefix.
	Summary bool `json:"summary,omitempty"`
}

// NewText builds a single-part plain-text message.
func NewText(role Role, text string) Message {
	return Message{Role: role, Parts: []ContentPart{Text(text)}}
}

// PlainText concatenates all PartText segments, ignoring tool parts. Useful
// for rendering a message for logging or for a final-answer check.
func (m Message) PlainText() string {
	out := ""
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// ToolCalls returns every PartToolCall segment in the message, in order.
func (m Message) ToolCalls() []ContentPart {
	var out []ContentPart
	for _, p := range m.Parts {
		if p.Type == PartToolCall {
			out = append(out, p)
		}
	}
	return out
}

// HasToolCalls reports whether the message carries at least one tool call,
// the signal the tool loop uses to decide a step is not yet final (spec
// §4.8 step 5).
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls()) > 0
}
