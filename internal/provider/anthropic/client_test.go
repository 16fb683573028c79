package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deepagent-go/deepagent/internal/message"
	"github.com/deepagent-go/deepagent/internal/provider"
)

func TestToAnthropicMessagesDropsEmptyMessages(t *testing.T) {
	msgs := []message.Message{
		message.NewText(message.RoleUser, "hello"),
		{Role: message.RoleAssistant, Parts: nil},
		message.NewText(message.RoleAssistant, "hi back"),
	}
	out := toAnthropicMessages(msgs)
	assert.Len(t, out, 2)
}

func TestToAnthropicToolsCarriesSchema(t *testing.T) {
	defs := []provider.ToolDef{
		{Name: "read_file", Description: "reads a file", Schema: map[string]any{
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
			"required":   []any{"path"},
		}},
	}
	out := toAnthropicTools(defs)
	assert.Len(t, out, 1)
	assert.Equal(t, "read_file", out[0].OfTool.Name)
	assert.Equal(t, []string{"path"}, out[0].OfTool.InputSchema.Required)
}

func TestToStringSliceHandlesBothShapes(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, toStringSlice([]any{"a", "b"}))
	assert.Equal(t, []string{"a"}, toStringSlice([]string{"a"}))
	assert.Nil(t, toStringSlice(nil))
}

func TestClassifyFallsBackToErrorStringPatterns(t *testing.T) {
	typ, _ := classify(assertErr("429 too many requests"))
	assert.Equal(t, provider.ErrorQuota, typ)

	typ, _ = classify(assertErr("503 service unavailable"))
	assert.Equal(t, provider.ErrorTransient, typ)

	typ, _ = classify(assertErr("401 unauthorized"))
	assert.Equal(t, provider.ErrorAuth, typ)

	typ, _ = classify(assertErr("400 bad request"))
	assert.Equal(t, provider.ErrorInvalid, typ)

	typ, _ = classify(assertErr("something weird"))
	assert.Equal(t, provider.ErrorUnknown, typ)
}

type stringError string

func (e stringError) Error() string { return string(e) }

func assertErr(s string) error { return stringError(s) }
