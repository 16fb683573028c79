// Package agent implements the tool-loop driver (spec §4.8): the public
// entry point wiring together the model provider, tool set, approval
// gate, context management, and checkpointer into a single streamed
// invocation.
//
// The step-loop shape (call model, forward text, batch tool calls, save a
// checkpoint, repeat until a final message or maxSteps) is grounded on the
// teacher's executor event loop (internal/executor/executor_event_loop.go)
// and its retry-wrapped Anthropic calls (internal/ai/retry.go), adapted
// from the teacher's mission/issue domain to a generic tool-calling loop
// over provider.ModelClient.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/deepagent-go/deepagent/internal/approval"
	"github.com/deepagent-go/deepagent/internal/backend"
	"github.com/deepagent-go/deepagent/internal/checkpoint"
	"github.com/deepagent-go/deepagent/internal/contextmgmt"
	"github.com/deepagent-go/deepagent/internal/events"
	"github.com/deepagent-go/deepagent/internal/message"
	"github.com/deepagent-go/deepagent/internal/provider"
	"github.com/deepagent-go/deepagent/internal/state"
	"github.com/deepagent-go/deepagent/internal/tools"
)

// Agent is one configured tool-loop driver. It is safe to call Run
// concurrently for distinct thread IDs over a backend that serializes
// writes per spec §5's parallelism note; a single Agent value may drive
// many independent invocations.
type Agent struct {
	opts     resolved
	generate GenerateFunc
}

// New validates and defaults opts, returning a ready-to-run Agent.
func New(opts Options) (*Agent, error) {
	r, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	gen := GenerateFunc(r.model.Generate)
	for i := len(r.middleware) - 1; i >= 0; i-- {
		gen = r.middleware[i](gen)
	}

	return &Agent{opts: r, generate: gen}, nil
}

// RunInput is one invocation's input (spec §4.8 step 2). Messages, when
// non-nil, replaces the loaded history entirely ("the caller's full
// messages list if provided"); otherwise Prompt is appended as a new user
// message to whatever history was loaded for ThreadID.
type RunInput struct {
	ThreadID string
	Prompt   string
	Messages []message.Message
}

// Run starts one invocation and returns the event stream it produces.
// The stream is closed once the run reaches done/error; Run never blocks
// on tool execution or model calls itself — those happen on an internal
// goroutine the caller drives purely by reading Events().
func (a *Agent) Run(ctx context.Context, in RunInput) *events.Stream {
	if in.ThreadID == "" && a.opts.checkpointer != nil {
		in.ThreadID = newID()
	}
	stream := events.NewStream(64)
	go func() {
		defer stream.Close()
		a.runLoop(ctx, stream, in, a.opts.backend)
	}()
	return stream
}

func (a *Agent) runLoop(ctx context.Context, stream *events.Stream, in RunInput, b backend.Backend) {
	step := 0
	stepFn := func() int { return step }

	messages, err := a.seedMessages(ctx, stream, in, &step)
	if err != nil {
		a.emitError(ctx, stream, step, err)
		return
	}

	messages, err = a.maybeSummarize(ctx, messages)
	if err != nil {
		a.emitError(ctx, stream, step, err)
		return
	}

	subagentRunner := &subagentRunner{agent: a, backend: b, stream: stream}
	allTools := a.allTools()
	execs := a.buildExecutors(stream, stepFn, b, subagentRunner, allTools)
	toolDefs := toToolDefs(allTools)

	for step < a.opts.maxSteps {
		if ctx.Err() != nil {
			return
		}

		if emitErr := stream.Emit(ctx, events.NewStepStartEvent(step)); emitErr != nil {
			return
		}

		text, toolCalls, usage, err := a.callModel(ctx, stream, step, messages, toolDefs)
		if err != nil {
			a.emitError(ctx, stream, step, err)
			return
		}
		_ = usage

		assistantParts := make([]message.ContentPart, 0, 1+len(toolCalls))
		if text != "" {
			assistantParts = append(assistantParts, message.Text(text))
			if emitErr := stream.Emit(ctx, events.NewTextSegmentEvent(step, text)); emitErr != nil {
				return
			}
		}
		for _, tc := range toolCalls {
			assistantParts = append(assistantParts, message.ToolCall(tc.ToolCallID, tc.ToolName, tc.ToolArgs))
		}
		if len(assistantParts) > 0 {
			messages = append(messages, message.Message{Role: message.RoleAssistant, Parts: assistantParts})
		}

		if len(toolCalls) == 0 {
			a.finish(ctx, stream, in.ThreadID, step, messages, text)
			return
		}

		toolResults, err := a.runToolBatch(ctx, stream, step, b, execs, a.opts.interruptOn, toolCalls)
		if err != nil {
			a.emitError(ctx, stream, step, err)
			return
		}
		for _, r := range toolResults {
			messages = append(messages, message.Message{
				Role:  message.RoleTool,
				Parts: []message.ContentPart{message.ToolResult(r.tc.ToolCallID, r.result, r.isError)},
			})
		}

		step++

		messages, err = a.maybeSummarize(ctx, messages)
		if err != nil {
			a.emitError(ctx, stream, step, err)
			return
		}

		if a.opts.checkpointer != nil && in.ThreadID != "" {
			if err := a.saveCheckpoint(ctx, in.ThreadID, step, messages, b); err != nil {
				a.emitError(ctx, stream, step, err)
				return
			}
			if emitErr := stream.Emit(ctx, events.NewCheckpointSavedEvent(step, in.ThreadID)); emitErr != nil {
				return
			}
		}
	}

	a.emitError(ctx, stream, step, ErrMaxStepsExceeded)
}

// seedMessages implements spec §4.8 steps 1-2: load a checkpoint if one
// exists for ThreadID, then build the working message array.
func (a *Agent) seedMessages(ctx context.Context, stream *events.Stream, in RunInput, step *int) ([]message.Message, error) {
	var messages []message.Message

	if in.ThreadID != "" && a.opts.checkpointer != nil {
		cp, found, err := a.opts.checkpointer.Load(ctx, in.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint for thread %q: %w", in.ThreadID, err)
		}
		if found {
			messages = append([]message.Message(nil), cp.Messages...)
			*step = cp.Step
			if sb, ok := a.opts.backend.(*backend.StateBackend); ok {
				*sb.State() = cp.State
			}
			if emitErr := stream.Emit(ctx, events.NewCheckpointLoadedEvent(in.ThreadID, len(messages))); emitErr != nil {
				return nil, emitErr
			}
		}
	}

	switch {
	case in.Messages != nil:
		messages = in.Messages
	case in.Prompt != "":
		messages = append(messages, message.NewText(message.RoleUser, in.Prompt))
		if emitErr := stream.Emit(ctx, events.NewUserMessageEvent(in.Prompt)); emitErr != nil {
			return nil, emitErr
		}
	}

	return messages, nil
}

func (a *Agent) maybeSummarize(ctx context.Context, messages []message.Message) ([]message.Message, error) {
	if a.opts.summarizer == nil {
		return messages, nil
	}
	return contextmgmt.MaybeSummarize(ctx, a.opts.summarizer, messages, a.opts.tokenThreshold, a.opts.keepMessages)
}

// callModel drives one model.Generate call to completion, accumulating
// text and tool calls and forwarding text chunks as they stream in (spec
// §4.8 step 5, bullets 1-2).
func (a *Agent) callModel(ctx context.Context, stream *events.Stream, step int, messages []message.Message, toolDefs []provider.ToolDef) (string, []provider.Part, provider.Usage, error) {
	parts, errs := a.generate(ctx, messages, toolDefs, provider.Options{
		Model:        a.opts.modelName,
		System:       a.opts.systemPrompt,
		OutputSchema: a.opts.outputSchema,
	})

	var text strings.Builder
	var toolCalls []provider.Part
	var usage provider.Usage

	for p := range parts {
		switch p.Type {
		case provider.PartText:
			if p.Text == "" {
				continue
			}
			text.WriteString(p.Text)
			if emitErr := stream.Emit(ctx, events.NewTextEvent(step, p.Text)); emitErr != nil {
				return "", nil, provider.Usage{}, emitErr
			}
		case provider.PartToolCall:
			toolCalls = append(toolCalls, p)
		case provider.PartStepFinish, provider.PartFinish:
			usage = p.Usage
		}
	}

	if err := <-errs; err != nil {
		return "", nil, provider.Usage{}, err
	}
	return text.String(), toolCalls, usage, nil
}

// invokeTool runs one tool call through to its tool-result event, in five
// ordered steps that together satisfy spec §4.8's per-call sequencing:
// decide whether the call needs approval, request it if so (emitting
// approval-requested/approval-response), emit tool-call, run the tool (or
// substitute the denial sentinel), and emit tool-result. tool-call always
// fires, even for a denied or unknown call, so it is always followed by a
// matching tool-result (spec's "no emitted tool-call is ever left
// dangling").
func (a *Agent) invokeTool(ctx context.Context, stream *events.Stream, step int, b backend.Backend, execs map[string]approval.Execute, interruptOn approval.Config, tc provider.Part) (string, bool, error) {
	exec, known := execs[tc.ToolName]

	args := tc.ToolArgs
	if args == nil {
		args = map[string]any{}
	}
	args["__tool_call_id"] = tc.ToolCallID

	approved := true
	if decision, gated := interruptOn[tc.ToolName]; gated {
		needs, err := decision.NeedsApproval(ctx, args)
		if err != nil {
			return "", false, fmt.Errorf("evaluate approval decision for %s: %w", tc.ToolName, err)
		}
		if needs {
			approved, err = approval.RequestDecision(ctx, stream, func() int { return step }, newID(), tc.ToolCallID, tc.ToolName, args, a.opts.onApprovalRequest)
			if err != nil {
				return "", false, err
			}
		}
	}

	if emitErr := stream.Emit(ctx, events.NewToolCallEvent(step, tc.ToolCallID, tc.ToolName, tc.ToolArgs)); emitErr != nil {
		return "", false, emitErr
	}

	var result string
	var isError, executed bool
	switch {
	case !approved:
		result = approval.DeniedMessage
	case !known:
		result = fmt.Sprintf("Error: unknown tool %q", tc.ToolName)
		isError = true
	default:
		out, err := exec(ctx, args)
		if err != nil {
			result = fmt.Sprintf("Error: %v", err)
			isError = true
		} else {
			result = out
			isError = strings.HasPrefix(out, "Error:")
			executed = true
		}
	}

	if executed {
		evicted, evictErr := contextmgmt.MaybeEvict(ctx, b, tc.ToolName, tc.ToolCallID, result, a.opts.evictionLimit)
		if evictErr != nil {
			result, isError = fmt.Sprintf("Error: %v", evictErr), true
		} else {
			result = evicted.Content
		}
	}

	if emitErr := stream.Emit(ctx, events.NewToolResultEvent(step, tc.ToolCallID, tc.ToolName, result, isError)); emitErr != nil {
		return "", false, emitErr
	}
	return result, isError, nil
}

// toolOutcome pairs a tool call with its executed result.
type toolOutcome struct {
	tc      provider.Part
	result  string
	isError bool
}

// runToolBatch executes one step's tool calls one at a time, in call order
// (spec §5: "no two tool invocations for the same agent run in parallel";
// spec §4.8 step 5: "for every tool call: emit tool-call; invoke the tool;
// ...; emit tool-result"). Sequential execution is also what keeps a
// multi-call step's approval prompts from racing each other on the same
// terminal (cmd/deepagent's stdin y/N handler).
func (a *Agent) runToolBatch(ctx context.Context, stream *events.Stream, step int, b backend.Backend, execs map[string]approval.Execute, interruptOn approval.Config, toolCalls []provider.Part) ([]toolOutcome, error) {
	results := make([]toolOutcome, 0, len(toolCalls))
	for _, tc := range toolCalls {
		result, isError, err := a.invokeTool(ctx, stream, step, b, execs, interruptOn, tc)
		if err != nil {
			return nil, err
		}
		results = append(results, toolOutcome{tc: tc, result: result, isError: isError})
	}
	return results, nil
}

func (a *Agent) finish(ctx context.Context, stream *events.Stream, threadID string, step int, messages []message.Message, finalText string) {
	var output any
	if a.opts.outputSchema != nil && finalText != "" {
		if parsed, err := provider.ParseStructuredOutput(finalText); err == nil {
			output = parsed
		}
	}

	if a.opts.checkpointer != nil && threadID != "" {
		if err := a.saveCheckpoint(ctx, threadID, step, messages, a.opts.backend); err != nil {
			a.emitError(ctx, stream, step, err)
			return
		}
		_ = stream.Emit(ctx, events.NewCheckpointSavedEvent(step, threadID))
	}

	_ = stream.Emit(ctx, events.NewDoneEvent(step, output))
}

func (a *Agent) emitError(ctx context.Context, stream *events.Stream, step int, err error) {
	_ = stream.Emit(ctx, events.NewErrorEvent(step, err))
}

func (a *Agent) saveCheckpoint(ctx context.Context, threadID string, step int, messages []message.Message, b backend.Backend) error {
	snapshot := state.AgentState{}
	if sb, ok := b.(*backend.StateBackend); ok {
		snapshot = *sb.State()
	}
	cp := checkpoint.Checkpoint{
		ThreadID: threadID,
		Step:     step,
		Messages: messages,
		State:    snapshot,
	}
	if err := a.opts.checkpointer.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint for thread %q: %w", threadID, err)
	}
	return nil
}

// Resume reports whether a checkpoint exists for threadID, for callers
// that want to distinguish "fresh thread" from "resuming" before calling
// Run (e.g. to choose a different prompt).
func (a *Agent) Resume(ctx context.Context, threadID string) (checkpoint.Checkpoint, error) {
	if a.opts.checkpointer == nil {
		return checkpoint.Checkpoint{}, ErrThreadNotFound
	}
	cp, found, err := a.opts.checkpointer.Load(ctx, threadID)
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}
	if !found {
		return checkpoint.Checkpoint{}, ErrThreadNotFound
	}
	return cp, nil
}

func (a *Agent) allTools() []tools.Tool {
	all := make([]tools.Tool, 0, len(tools.CoreSet())+len(tools.OptionalSet())+len(a.opts.extraTools))
	all = append(all, tools.CoreSet()...)
	all = append(all, tools.OptionalSet()...)
	all = append(all, a.opts.extraTools...)
	return all
}

// buildExecutors wires each tool's raw Run method into an approval.Execute
// value. It deliberately does not gate on approval.Config itself: gating
// happens per call in invokeTool, which needs to emit its own tool-call
// event between the approval decision and the actual invocation (spec
// §4.8's "approval-requested precedes the corresponding tool-call").
func (a *Agent) buildExecutors(stream *events.Stream, stepFn func() int, b backend.Backend, runner tools.SubagentRunner, allTools []tools.Tool) map[string]approval.Execute {
	tc := &tools.Context{
		Backend:  b,
		Stream:   stream,
		Step:     stepFn,
		Subagent: runner,
		Sandbox:  a.opts.sandbox,
		Search:   a.opts.search,
		Fetcher:  a.opts.fetcher,
		Limiter:  a.opts.webLimiter,
	}

	execs := make(map[string]approval.Execute, len(allTools))
	for _, t := range allTools {
		t := t
		execs[t.Name] = func(ctx context.Context, args map[string]any) (string, error) {
			return t.Run(ctx, args, tc)
		}
	}
	return execs
}

func toToolDefs(list []tools.Tool) []provider.ToolDef {
	out := make([]provider.ToolDef, 0, len(list))
	for _, t := range list {
		out = append(out, provider.ToolDef{Name: t.Name, Description: t.Description, Schema: t.Schema})
	}
	return out
}

// newID generates a random identifier for approval IDs, and for thread IDs
// where the caller doesn't supply one.
func newID() string { return uuid.New().String() }
