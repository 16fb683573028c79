package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepagent-go/deepagent/internal/backend"
	"github.com/deepagent-go/deepagent/internal/events"
	"github.com/deepagent-go/deepagent/internal/message"
	"github.com/deepagent-go/deepagent/internal/provider"
	"github.com/deepagent-go/deepagent/internal/tools"
)

// subagentRunner implements tools.SubagentRunner by dispatching into the
// parent Agent's named sub-agent registry (spec §6 "subagents", §9
// "Sub-agents"). Each sub-agent is an isolated inner tool loop: it shares
// the parent's backend so file writes are visible to both, but starts from
// an empty message buffer rather than inheriting the parent's history.
type subagentRunner struct {
	agent   *Agent
	backend backend.Backend
	stream  *events.Stream
}

var _ tools.SubagentRunner = (*subagentRunner)(nil)

func (r *subagentRunner) RunSubagent(ctx context.Context, subagentType, description, prompt string) (string, error) {
	cfg, ok := r.agent.opts.subagents[subagentType]
	if !ok {
		return "", fmt.Errorf("agent: unknown sub-agent type %q", subagentType)
	}
	return r.agent.runSubagentLoop(ctx, r.stream, r.backend, subagentType, cfg, description, prompt)
}

// runSubagentLoop drives a bounded inner tool loop for one task-tool
// dispatch. It deliberately omits the task tool from its own tool set so
// sub-agents cannot recursively spawn further sub-agents, bounding
// delegation to a single level.
func (a *Agent) runSubagentLoop(ctx context.Context, stream *events.Stream, b backend.Backend, subagentType string, cfg SubagentConfig, label, prompt string) (string, error) {
	maxSteps := defaultInt(cfg.MaxSteps, DefaultMaxSubagentSteps)

	innerTools := make([]tools.Tool, 0, len(tools.CoreSet())+len(cfg.Tools))
	innerTools = append(innerTools, tools.CoreSet()...)
	innerTools = append(innerTools, cfg.Tools...)
	toolDefs := toToolDefs(innerTools)

	step := 0
	stepFn := func() int { return step }
	execs := a.buildExecutors(stream, stepFn, b, nil, innerTools)

	messages := []message.Message{message.NewText(message.RoleUser, prompt)}

	for step < maxSteps {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if stream != nil {
			if err := stream.Emit(ctx, events.NewSubagentStepEvent(step, label, step)); err != nil {
				return "", err
			}
		}

		parts, errs := a.generate(ctx, messages, toolDefs, provider.Options{
			Model:  a.opts.modelName,
			System: cfg.SystemPrompt,
		})

		var text strings.Builder
		var toolCalls []provider.Part
		for p := range parts {
			switch p.Type {
			case provider.PartText:
				text.WriteString(p.Text)
			case provider.PartToolCall:
				toolCalls = append(toolCalls, p)
			}
		}
		if err := <-errs; err != nil {
			return "", fmt.Errorf("sub-agent %q: %w", subagentType, err)
		}

		assistantParts := make([]message.ContentPart, 0, 1+len(toolCalls))
		if text.Len() > 0 {
			assistantParts = append(assistantParts, message.Text(text.String()))
		}
		for _, tc := range toolCalls {
			assistantParts = append(assistantParts, message.ToolCall(tc.ToolCallID, tc.ToolName, tc.ToolArgs))
		}
		if len(assistantParts) > 0 {
			messages = append(messages, message.Message{Role: message.RoleAssistant, Parts: assistantParts})
		}

		if len(toolCalls) == 0 {
			return text.String(), nil
		}

		outcomes, err := a.runToolBatch(ctx, stream, step, b, execs, cfg.InterruptOn, toolCalls)
		if err != nil {
			return "", fmt.Errorf("sub-agent %q: %w", subagentType, err)
		}
		for _, o := range outcomes {
			messages = append(messages, message.Message{
				Role:  message.RoleTool,
				Parts: []message.ContentPart{message.ToolResult(o.tc.ToolCallID, o.result, o.isError)},
			})
		}
		step++
	}

	return "", fmt.Errorf("sub-agent %q: %w", subagentType, ErrMaxStepsExceeded)
}
