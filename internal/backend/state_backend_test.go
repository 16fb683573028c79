package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepagent-go/deepagent/internal/util"
)

func TestStateBackendWriteThenRead(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)

	res := b.Write(ctx, "/a.txt", "hello\nworld")
	require.True(t, res.Success)

	out, err := b.Read(ctx, "/a.txt", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "     1\thello\n     2\tworld", out)

	fd, err := b.ReadRaw(ctx, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, fd.Content)
	assert.True(t, !fd.ModifiedAt.Before(fd.CreatedAt))
}

func TestStateBackendReadMissing(t *testing.T) {
	b := NewStateBackend(nil)
	_, err := b.Read(context.Background(), "/missing.txt", 0, 10)
	require.Error(t, err)
	assert.Equal(t, "Error: File '/missing.txt' not found", err.Error())
}

func TestStateBackendReadEmptyFile(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)
	b.Write(ctx, "/empty.txt", "")
	out, err := b.Read(ctx, "/empty.txt", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, util.EmptyFileMessage, out)
}

func TestStateBackendWriteRejectsOverwrite(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)
	b.Write(ctx, "/a.txt", "v1")
	res := b.Write(ctx, "/a.txt", "v2")
	assert.False(t, res.Success)
}

func TestStateBackendEditReplaceAllFalseWithTwoMatches(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)
	b.Write(ctx, "/a.txt", "foo bar foo")
	res := b.Edit(ctx, "/a.txt", "foo", "baz", false)
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "appears 2 times")
}

func TestStateBackendEditReplaceAll(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)
	b.Write(ctx, "/a.txt", "foo bar foo")
	res := b.Edit(ctx, "/a.txt", "foo", "baz", true)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Occurrences)
	fd, _ := b.ReadRaw(ctx, "/a.txt")
	assert.Equal(t, "baz bar baz", util.JoinContent(fd.Content))
}

func TestStateBackendEditZeroMatches(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)
	b.Write(ctx, "/a.txt", "foo")
	res := b.Edit(ctx, "/a.txt", "nope", "x", false)
	assert.False(t, res.Success)
}

func TestStateBackendGrepInvalidRegex(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)
	b.Write(ctx, "/a.txt", "foo")
	_, err := b.GrepRaw(ctx, "[invalid", "/", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid regex pattern:")
}

func TestStateBackendGrepNoMatches(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)
	b.Write(ctx, "/a.txt", "foo")
	matches, err := b.GrepRaw(ctx, "zzz", "/", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestStateBackendGlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)
	b.Write(ctx, "/a/b/c.go", "package main")
	entries, err := b.GlobInfo(ctx, "**/*.go", "/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/a/b/c.go", entries[0].Path)

	content, err := b.Read(ctx, entries[0].Path, 0, 10)
	require.NoError(t, err)
	assert.Contains(t, content, "package main")
}

func TestStateBackendTodos(t *testing.T) {
	ctx := context.Background()
	b := NewStateBackend(nil)
	todos, err := b.GetTodos(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)

	want := []struct{ ID, Content, Status string }{{"1", "write spec", "pending"}}
	_ = want
}

func TestValidatePathRejectsWhitespace(t *testing.T) {
	_, err := util.NormalizePath("   ")
	require.Error(t, err)
}
