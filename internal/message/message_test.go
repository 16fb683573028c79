package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTextPlainText(t *testing.T) {
	m := NewText(RoleUser, "hello")
	assert.Equal(t, "hello", m.PlainText())
	assert.False(t, m.HasToolCalls())
}

func TestHasToolCalls(t *testing.T) {
	m := Message{Role: RoleAssistant, Parts: []ContentPart{
		Text("let me check"),
		ToolCall("call-1", "read_file", map[string]any{"path": "/a.txt"}),
	}}
	assert.True(t, m.HasToolCalls())
	calls := m.ToolCalls()
	require := assert.New(t)
	require.Len(calls, 1)
	require.Equal("call-1", calls[0].ToolCallID)
}

func TestToolResultPart(t *testing.T) {
	p := ToolResult("call-1", "done", false)
	assert.Equal(t, PartToolResult, p.Type)
	assert.False(t, p.IsError)
}

func TestPlainTextIgnoresToolParts(t *testing.T) {
	m := Message{Role: RoleTool, Parts: []ContentPart{
		ToolResult("call-1", "some result", false),
		Text("trailing note"),
	}}
	assert.Equal(t, "trailing note", m.PlainText())
}
