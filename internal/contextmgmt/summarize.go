package contextmgmt

import (
	"context"
	"fmt"

	"github.com/deepagent-go/deepagent/internal/message"
	"github.com/deepagent-go/deepagent/internal/util"
)

// DefaultTokenThreshold triggers summarization once the buffer's estimated
// aggregate size exceeds it (spec §4.6).
const DefaultTokenThreshold = 170_000

// DefaultKeepMessages is how many of the most recent messages are always
// preserved verbatim, never folded into the summary (spec §4.6).
const DefaultKeepMessages = 6

// Summarizer asks the model to produce a natural-language summary of a run
// of messages. The agent core's model client implements this by issuing a
// single non-tool-calling completion request.
type Summarizer interface {
	Summarize(ctx context.Context, messages []message.Message) (string, error)
}

// EstimateBuffer sums EstimateTokens over every text part of every message,
// the aggregate-size figure §4.6's threshold is compared against.
func EstimateBuffer(messages []message.Message) int {
	total := 0
	for _, m := range messages {
		for _, p := range m.Parts {
			switch p.Type {
			case message.PartText:
				total += util.EstimateTokens(p.Text)
			case message.PartToolCall:
				total += util.EstimateTokens(p.ToolName)
			case message.PartToolResult:
				total += util.EstimateTokens(p.Result)
			}
		}
	}
	return total
}

// splitPoint finds the index at which the tail of keepMessages (or more, to
// avoid splitting a pending tool-call/tool-result pair) begins. The
// invariant from spec §4.6: "the last N messages and any pending
// tool-call/tool-result pair are never split."
func splitPoint(messages []message.Message, keepMessages int) int {
	if keepMessages <= 0 {
		keepMessages = DefaultKeepMessages
	}
	if len(messages) <= keepMessages {
		return 0
	}
	cut := len(messages) - keepMessages

	pendingCalls := map[string]bool{}
	for i := 0; i < cut; i++ {
		for _, p := range messages[i].Parts {
			if p.Type == message.PartToolCall {
				pendingCalls[p.ToolCallID] = true
			}
			if p.Type == message.PartToolResult {
				delete(pendingCalls, p.ToolCallID)
			}
		}
	}
	// If the prefix ends with unresolved tool calls, walk the cut point
	// backward until their matching results (or the calls themselves) are
	// entirely on the same side of the split.
	for len(pendingCalls) > 0 && cut > 0 {
		cut--
		for _, p := range messages[cut].Parts {
			if p.Type == message.PartToolCall {
				delete(pendingCalls, p.ToolCallID)
			}
		}
	}
	return cut
}

// MaybeSummarize replaces messages[:cut] with a single summary system
// message when the buffer's estimated size exceeds threshold, leaving the
// tail (at least keepMessages long, and never splitting a pending
// tool-call/tool-result pair) untouched. Returns messages unchanged,
// without calling summarizer, when already under threshold or when fewer
// than keepMessages messages exist (spec §4.6).
func MaybeSummarize(ctx context.Context, summarizer Summarizer, messages []message.Message, threshold, keepMessages int) ([]message.Message, error) {
	if threshold <= 0 {
		threshold = DefaultTokenThreshold
	}
	if keepMessages <= 0 {
		keepMessages = DefaultKeepMessages
	}
	if len(messages) <= keepMessages {
		return messages, nil
	}
	if EstimateBuffer(messages) <= threshold {
		return messages, nil
	}

	cut := splitPoint(messages, keepMessages)
	if cut <= 0 {
		return messages, nil
	}

	summaryText, err := summarizer.Summarize(ctx, messages[:cut])
	if err != nil {
		return nil, fmt.Errorf("summarize message buffer: %w", err)
	}

	summary := message.NewText(message.RoleSystem, summaryText)
	summary.Summary = true

	out := make([]message.Message, 0, 1+len(messages)-cut)
	out = append(out, summary)
	out = append(out, messages[cut:]...)
	return out, nil
}
