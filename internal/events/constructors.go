package events

import "time"

// now is overridden in tests that need deterministic timestamps.
var now = time.Now

func NewTextEvent(step int, text string) Event {
	return Event{Type: TypeText, Timestamp: now(), Step: step, Text: text}
}

func NewTextSegmentEvent(step int, text string) Event {
	return Event{Type: TypeTextSegment, Timestamp: now(), Step: step, Text: text}
}

func NewStepStartEvent(step int) Event {
	return Event{Type: TypeStepStart, Timestamp: now(), Step: step}
}

func NewToolCallEvent(step int, toolCallID, toolName string, args map[string]any) Event {
	return Event{Type: TypeToolCall, Timestamp: now(), Step: step, ToolCallID: toolCallID, ToolName: toolName, ToolArgs: args}
}

func NewToolResultEvent(step int, toolCallID, toolName, result string, isError bool) Event {
	return Event{Type: TypeToolResult, Timestamp: now(), Step: step, ToolCallID: toolCallID, ToolName: toolName, ToolResult: result, ToolError: isError}
}

func NewTodosChangedEvent(step int) Event {
	return Event{Type: TypeTodosChanged, Timestamp: now(), Step: step}
}

func NewFileWriteStartEvent(step int, path string) Event {
	return Event{Type: TypeFileWriteStart, Timestamp: now(), Step: step, Path: path}
}

func NewFileWrittenEvent(step int, path string) Event {
	return Event{Type: TypeFileWritten, Timestamp: now(), Step: step, Path: path}
}

func NewFileEditedEvent(step int, path string) Event {
	return Event{Type: TypeFileEdited, Timestamp: now(), Step: step, Path: path}
}

func NewFileReadEvent(step int, path string) Event {
	return Event{Type: TypeFileRead, Timestamp: now(), Step: step, Path: path}
}

func NewLsEvent(step int, path string, entries []string) Event {
	return Event{Type: TypeLs, Timestamp: now(), Step: step, Path: path, Entries: entries}
}

func NewGlobEvent(step int, pattern, path string, matches []string) Event {
	return Event{Type: TypeGlob, Timestamp: now(), Step: step, Pattern: pattern, Path: path, Matches: matches}
}

func NewGrepEvent(step int, pattern, path string, matches []string) Event {
	return Event{Type: TypeGrep, Timestamp: now(), Step: step, Pattern: pattern, Path: path, Matches: matches}
}

func NewExecuteStartEvent(step int, command string) Event {
	return Event{Type: TypeExecuteStart, Timestamp: now(), Step: step, Command: command}
}

func NewExecuteFinishEvent(step int, command string, exitCode int, stdout, stderr string) Event {
	return Event{Type: TypeExecuteFinish, Timestamp: now(), Step: step, Command: command, ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
}

func NewWebSearchStartEvent(step int, query string) Event {
	return Event{Type: TypeWebSearchStart, Timestamp: now(), Step: step, Query: query}
}

func NewWebSearchFinishEvent(step int, query string) Event {
	return Event{Type: TypeWebSearchFinish, Timestamp: now(), Step: step, Query: query}
}

func NewHTTPRequestStartEvent(step int, url string) Event {
	return Event{Type: TypeHTTPRequestStart, Timestamp: now(), Step: step, URL: url}
}

func NewHTTPRequestFinishEvent(step int, url string) Event {
	return Event{Type: TypeHTTPRequestFinish, Timestamp: now(), Step: step, URL: url}
}

func NewFetchURLStartEvent(step int, url string) Event {
	return Event{Type: TypeFetchURLStart, Timestamp: now(), Step: step, URL: url}
}

func NewFetchURLFinishEvent(step int, url string) Event {
	return Event{Type: TypeFetchURLFinish, Timestamp: now(), Step: step, URL: url}
}

func NewSubagentStartEvent(step int, subagentID, subagentType string) Event {
	return Event{Type: TypeSubagentStart, Timestamp: now(), Step: step, SubagentID: subagentID, SubagentType: subagentType}
}

func NewSubagentStepEvent(step int, subagentID string, innerStep int) Event {
	return Event{Type: TypeSubagentStep, Timestamp: now(), Step: step, SubagentID: subagentID, MessagesCount: innerStep}
}

func NewSubagentFinishEvent(step int, subagentID, result string) Event {
	return Event{Type: TypeSubagentFinish, Timestamp: now(), Step: step, SubagentID: subagentID, ToolResult: result}
}

func NewUserMessageEvent(text string) Event {
	return Event{Type: TypeUserMessage, Timestamp: now(), Text: text}
}

func NewDoneEvent(step int, output any) Event {
	return Event{Type: TypeDone, Timestamp: now(), Step: step, Output: output}
}

func NewErrorEvent(step int, err error) Event {
	return Event{Type: TypeError, Timestamp: now(), Step: step, Err: err}
}

func NewApprovalRequestedEvent(step int, approvalID, toolCallID, toolName string, args map[string]any) Event {
	return Event{Type: TypeApprovalRequested, Timestamp: now(), Step: step, ApprovalID: approvalID, ToolCallID: toolCallID, ToolName: toolName, ToolArgs: args}
}

func NewApprovalResponseEvent(step int, approvalID string, approved bool) Event {
	return Event{Type: TypeApprovalResponse, Timestamp: now(), Step: step, ApprovalID: approvalID, Approved: approved}
}

func NewCheckpointSavedEvent(step int, threadID string) Event {
	return Event{Type: TypeCheckpointSaved, Timestamp: now(), Step: step, ThreadID: threadID}
}

func NewCheckpointLoadedEvent(threadID string, messagesCount int) Event {
	return Event{Type: TypeCheckpointLoaded, Timestamp: now(), ThreadID: threadID, MessagesCount: messagesCount}
}
