package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/deepagent-go/deepagent/internal/events"
)

// displayEvent formats and prints one event in a consistent one-or-two-line
// format, grounded on the teacher's cmd/vc displayActivityEvent: an emoji
// keyed off event type, a colored headline, and a dimmed detail line.
func displayEvent(ev events.Event) {
	switch ev.Type {
	case events.TypeText:
		fmt.Print(ev.Text)
		return
	case events.TypeStepStart, events.TypeTextSegment, events.TypeUserMessage:
		return
	}

	emoji := eventEmoji(ev)
	headline := color.New(color.FgMagenta).Sprint(string(ev.Type))

	fmt.Printf("\n%s %s\n", emoji, headline)
	if detail := eventDetail(ev); detail != "" {
		gray := color.New(color.FgHiBlack)
		fmt.Printf("  %s\n", gray.Sprint(detail))
	}
}

func eventEmoji(ev events.Event) string {
	switch ev.Type {
	case events.TypeToolCall:
		return "🔧"
	case events.TypeToolResult:
		if ev.ToolError {
			return "❌"
		}
		return "✅"
	case events.TypeApprovalRequested:
		return "⏸️"
	case events.TypeApprovalResponse:
		if ev.Approved {
			return "✔️"
		}
		return "✖️"
	case events.TypeSubagentStart:
		return "🚀"
	case events.TypeSubagentFinish:
		return "🏁"
	case events.TypeCheckpointSaved, events.TypeCheckpointLoaded:
		return "💾"
	case events.TypeDone:
		return "🎉"
	case events.TypeError:
		return "🔥"
	default:
		return "•"
	}
}

func eventDetail(ev events.Event) string {
	switch ev.Type {
	case events.TypeToolCall:
		return fmt.Sprintf("%s(%v)", ev.ToolName, ev.ToolArgs)
	case events.TypeToolResult:
		return truncate(ev.ToolResult, 200)
	case events.TypeApprovalRequested:
		return fmt.Sprintf("%s wants to run %s(%v)", ev.ApprovalID, ev.ToolName, ev.ToolArgs)
	case events.TypeSubagentStart, events.TypeSubagentFinish:
		return ev.SubagentType
	case events.TypeCheckpointSaved, events.TypeCheckpointLoaded:
		return fmt.Sprintf("thread=%s step=%d", ev.ThreadID, ev.Step)
	case events.TypeError:
		if ev.Err != nil {
			return ev.Err.Error()
		}
		return ""
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
