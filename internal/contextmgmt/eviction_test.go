package contextmgmt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepagent-go/deepagent/internal/backend"
)

func TestMaybeEvictSmallContentUnchanged(t *testing.T) {
	b := backend.NewStateBackend(nil)
	res, err := MaybeEvict(context.Background(), b, "read_file", "call-1", "small", 20_000)
	require.NoError(t, err)
	assert.False(t, res.Evicted)
	assert.Equal(t, "small", res.Content)
}

func TestMaybeEvictLargeContentWritesFile(t *testing.T) {
	ctx := context.Background()
	b := backend.NewStateBackend(nil)
	big := strings.Repeat("x", 100_000)

	res, err := MaybeEvict(ctx, b, "grep", "call-7", big, 0)
	require.NoError(t, err)
	require.True(t, res.Evicted)
	assert.Equal(t, "/tool-results/grep-call-7.txt", res.Path)
	assert.NotEqual(t, big, res.Content)

	fd, err := b.ReadRaw(ctx, res.Path)
	require.NoError(t, err)
	assert.Equal(t, big, strings.Join(fd.Content, "\n"))
}
