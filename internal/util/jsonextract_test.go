package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONDirect(t *testing.T) {
	r := ExtractJSON(`{"a":1}`)
	require.True(t, r.Success)
	assert.JSONEq(t, `{"a":1}`, string(r.Data))
}

func TestExtractJSONCodeFence(t *testing.T) {
	r := ExtractJSON("```json\n{\"a\":1}\n```")
	require.True(t, r.Success)
	assert.JSONEq(t, `{"a":1}`, string(r.Data))
}

func TestExtractJSONTrailingComma(t *testing.T) {
	r := ExtractJSON(`{"a":1,"b":[1,2,],}`)
	require.True(t, r.Success)
}

func TestExtractJSONMixedContent(t *testing.T) {
	r := ExtractJSON("Sure, here is the plan:\n{\"steps\":[\"a\",\"b\"]}\nLet me know if that works.")
	require.True(t, r.Success)
	assert.JSONEq(t, `{"steps":["a","b"]}`, string(r.Data))
}

func TestExtractJSONEmpty(t *testing.T) {
	r := ExtractJSON("   ")
	assert.False(t, r.Success)
}

type planOutput struct {
	Steps []string `json:"steps"`
}

func TestDecodeJSON(t *testing.T) {
	out, err := DecodeJSON[planOutput]("```json\n{\"steps\":[\"a\",\"b\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Steps)
}
