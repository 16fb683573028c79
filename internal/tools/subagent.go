package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/deepagent-go/deepagent/internal/events"
)

// SubagentRunner spawns a named sub-agent configuration as an isolated
// inner tool loop (spec §9 "Sub-agents": its own tool set and prompt,
// sharing the backend but not the parent's message buffer) and returns its
// final assistant text.
type SubagentRunner interface {
	RunSubagent(ctx context.Context, subagentType, description, prompt string) (string, error)
}

// NewTaskTool delegates a sub-task to a named sub-agent configuration.
func NewTaskTool() Tool {
	return Tool{
		Name:        "task",
		Description: "Delegate a self-contained sub-task to a named sub-agent with its own tool loop.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"subagent_type": map[string]any{"type": "string", "description": "Name of the sub-agent configuration to run."},
				"description":   map[string]any{"type": "string", "description": "Short label for what this sub-task accomplishes."},
				"prompt":        map[string]any{"type": "string", "description": "Full instructions for the sub-agent."},
			},
			"required": []string{"subagent_type", "description", "prompt"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			if tc.Subagent == nil {
				return "Error: sub-agent delegation is not configured", nil
			}
			subagentType := stringArg(args, "subagent_type")
			subagentID := uuid.New().String()

			if err := tc.emit(ctx, events.NewSubagentStartEvent(tc.step(), subagentID, subagentType)); err != nil {
				return "", err
			}

			result, err := tc.Subagent.RunSubagent(ctx, subagentType, stringArg(args, "description"), stringArg(args, "prompt"))
			if err != nil {
				result = fmt.Sprintf("Error: sub-agent %q failed: %v", subagentType, err)
			}

			if emitErr := tc.emit(ctx, events.NewSubagentFinishEvent(tc.step(), subagentID, result)); emitErr != nil {
				return "", emitErr
			}
			return result, nil
		},
	}
}
