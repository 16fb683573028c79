package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubagentRunner struct {
	result string
	err    error
}

func (f fakeSubagentRunner) RunSubagent(ctx context.Context, subagentType, description, prompt string) (string, error) {
	return f.result, f.err
}

func TestTaskToolDelegates(t *testing.T) {
	tc := testContext()
	tc.Subagent = fakeSubagentRunner{result: "done researching"}

	out, err := NewTaskTool().Run(context.Background(), map[string]any{
		"subagent_type": "researcher", "description": "look something up", "prompt": "find X",
	}, tc)
	require.NoError(t, err)
	assert.Equal(t, "done researching", out)
}

func TestTaskToolPropagatesFailureAsText(t *testing.T) {
	tc := testContext()
	tc.Subagent = fakeSubagentRunner{err: assert.AnError}

	out, err := NewTaskTool().Run(context.Background(), map[string]any{
		"subagent_type": "researcher", "description": "d", "prompt": "p",
	}, tc)
	require.NoError(t, err)
	assert.Contains(t, out, "failed")
}
