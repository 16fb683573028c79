package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepagent-go/deepagent/internal/backend"
)

func testContext() *Context {
	return &Context{Backend: backend.NewStateBackend(nil), Step: func() int { return 1 }}
}

func TestWriteThenReadFileTool(t *testing.T) {
	ctx := context.Background()
	tc := testContext()

	out, err := NewWriteFileTool().Run(ctx, map[string]any{"path": "/a.txt", "content": "hello\nworld"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "/a.txt")

	out, err = NewReadFileTool().Run(ctx, map[string]any{"path": "/a.txt"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestWriteFileToolRejectsOverwrite(t *testing.T) {
	ctx := context.Background()
	tc := testContext()
	NewWriteFileTool().Run(ctx, map[string]any{"path": "/a.txt", "content": "v1"}, tc)
	out, err := NewWriteFileTool().Run(ctx, map[string]any{"path": "/a.txt", "content": "v2"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "Error:")
}

func TestEditFileTool(t *testing.T) {
	ctx := context.Background()
	tc := testContext()
	NewWriteFileTool().Run(ctx, map[string]any{"path": "/a.txt", "content": "foo bar"}, tc)

	out, err := NewEditFileTool().Run(ctx, map[string]any{"path": "/a.txt", "old_string": "foo", "new_string": "baz"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "Replaced 1")
}

func TestGlobAndGrepTools(t *testing.T) {
	ctx := context.Background()
	tc := testContext()
	NewWriteFileTool().Run(ctx, map[string]any{"path": "/src/main.go", "content": "package main\nfunc main() {}"}, tc)

	out, err := NewGlobTool().Run(ctx, map[string]any{"pattern": "**/*.go"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "/src/main.go")

	out, err = NewGrepTool().Run(ctx, map[string]any{"pattern": "func"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "/src/main.go:2:")
}

func TestReadFileToolMissingPath(t *testing.T) {
	ctx := context.Background()
	tc := testContext()
	out, err := NewReadFileTool().Run(ctx, map[string]any{"path": ""}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "Error:")
}

func TestWriteTodosToolMerge(t *testing.T) {
	ctx := context.Background()
	tc := testContext()
	NewWriteTodosTool().Run(ctx, map[string]any{"todos": []any{
		map[string]any{"id": "1", "content": "write spec", "status": "pending"},
	}}, tc)

	out, err := NewWriteTodosTool().Run(ctx, map[string]any{
		"merge": true,
		"todos": []any{map[string]any{"id": "1", "content": "write spec", "status": "completed"}},
	}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "1 items")

	todos, err := tc.Backend.GetTodos(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "completed", string(todos[0].Status))
}

func TestLsToolEmptyRoot(t *testing.T) {
	ctx := context.Background()
	tc := testContext()
	out, err := NewLsTool().Run(ctx, map[string]any{}, tc)
	require.NoError(t, err)
	assert.Equal(t, "(empty)", out)
}

func TestCoreSetHasSevenTools(t *testing.T) {
	set := ByName(CoreSet())
	assert.Len(t, set, 7)
	assert.Contains(t, set, "write_file")
	assert.Contains(t, set, "grep")
}

func TestOptionalToolsReportNotConfigured(t *testing.T) {
	ctx := context.Background()
	tc := testContext()
	out, err := NewExecuteTool().Run(ctx, map[string]any{"command": "ls"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "not configured")

	out, err = NewTaskTool().Run(ctx, map[string]any{"subagent_type": "x", "description": "d", "prompt": "p"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "not configured")
}
