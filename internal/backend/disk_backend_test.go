package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskBackendWriteReadEditRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := NewDiskBackend(t.TempDir())
	require.NoError(t, err)

	res := b.Write(ctx, "/nested/dir/file.txt", "foo bar foo")
	require.True(t, res.Success)
	assert.Equal(t, "/nested/dir/file.txt", res.Path)

	edit := b.Edit(ctx, "/nested/dir/file.txt", "foo", "baz", true)
	require.True(t, edit.Success)
	assert.Equal(t, 2, edit.Occurrences)

	fd, err := b.ReadRaw(ctx, "/nested/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"baz bar baz"}, fd.Content)
}

func TestDiskBackendWriteRejectsOverwrite(t *testing.T) {
	ctx := context.Background()
	b, err := NewDiskBackend(t.TempDir())
	require.NoError(t, err)
	require.True(t, b.Write(ctx, "/a.txt", "1").Success)
	res := b.Write(ctx, "/a.txt", "2")
	assert.False(t, res.Success)
}

func TestDiskBackendRejectsPathEscape(t *testing.T) {
	ctx := context.Background()
	b, err := NewDiskBackend(t.TempDir())
	require.NoError(t, err)
	res := b.Write(ctx, "/../escape.txt", "x")
	assert.False(t, res.Success)
}

func TestDiskBackendGlobAndGrep(t *testing.T) {
	ctx := context.Background()
	b, err := NewDiskBackend(t.TempDir())
	require.NoError(t, err)
	b.Write(ctx, "/src/main.go", "package main\nfunc main() {}")
	b.Write(ctx, "/README.md", "hello")

	entries, err := b.GlobInfo(ctx, "**/*.go", "/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/src/main.go", entries[0].Path)

	matches, err := b.GrepRaw(ctx, "func", "/", "*.go")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "/src/main.go", matches[0].Path)
}

func TestDiskBackendLsMissingDirReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	b, err := NewDiskBackend(t.TempDir())
	require.NoError(t, err)
	entries, err := b.LsInfo(ctx, "/does-not-exist/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
