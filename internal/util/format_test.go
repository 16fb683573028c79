package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLinesEmptyFile(t *testing.T) {
	out, err := FormatLines(nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, EmptyFileMessage, out)
}

func TestFormatLinesBasic(t *testing.T) {
	lines := []string{"alpha", "beta", "gamma"}
	out, err := FormatLines(lines, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "     1\talpha\n     2\tbeta\n     3\tgamma", out)
}

func TestFormatLinesOffsetOutOfRange(t *testing.T) {
	lines := []string{"alpha"}
	_, err := FormatLines(lines, 5, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5")
}

func TestFormatLinesChunksLongLines(t *testing.T) {
	long := strings.Repeat("x", ChunkSize+10)
	out, err := FormatLines([]string{long}, 0, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "1.1\t")
	assert.Contains(t, out, "1.2\t")
}

func TestSplitJoinRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "a\nb\nc", "\n\n", "trailing\n"} {
		lines := SplitContent(s)
		assert.Equal(t, s, JoinContent(lines))
	}
}
