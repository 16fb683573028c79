package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSandbox struct {
	result ExecResult
	err    error
}

func (f fakeSandbox) Exec(ctx context.Context, command string, args []string) (ExecResult, error) {
	return f.result, f.err
}

func TestExecuteToolSuccess(t *testing.T) {
	tc := testContext()
	tc.Sandbox = fakeSandbox{result: ExecResult{Stdout: "hello\n", ExitCode: 0}}

	out, err := NewExecuteTool().Run(context.Background(), map[string]any{"command": "echo", "args": []any{"hello"}}, tc)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestExecuteToolNonZeroExit(t *testing.T) {
	tc := testContext()
	tc.Sandbox = fakeSandbox{result: ExecResult{Stdout: "", Stderr: "boom", ExitCode: 1}}

	out, err := NewExecuteTool().Run(context.Background(), map[string]any{"command": "false"}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "exit code 1")
	assert.Contains(t, out, "boom")
}

func TestToStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, toStringSlice([]any{"a", "b"}))
	assert.Nil(t, toStringSlice("not a slice"))
}
