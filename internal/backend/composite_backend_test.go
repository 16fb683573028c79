package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepagent-go/deepagent/internal/state"
)

func TestNewCompositeBackendRejectsTiedPrefixLengths(t *testing.T) {
	_, err := NewCompositeBackend(NewStateBackend(nil), map[string]Backend{
		"/aaa/": NewStateBackend(nil),
		"/bbb/": NewStateBackend(nil),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous routes")
}

func TestNewCompositeBackendRejectsMissingDefault(t *testing.T) {
	_, err := NewCompositeBackend(nil, nil)
	require.Error(t, err)
}

func TestCompositeBackendRoutesToMountAndStripsPrefix(t *testing.T) {
	ctx := context.Background()
	def := NewStateBackend(nil)
	mount := NewStateBackend(nil)
	c, err := NewCompositeBackend(def, map[string]Backend{"/mnt/": mount})
	require.NoError(t, err)

	res := c.Write(ctx, "/mnt/file.txt", "hello")
	require.True(t, res.Success)
	assert.Equal(t, "/mnt/file.txt", res.Path)

	// Backend behind the mount must never see the "/mnt" prefix.
	fd, err := mount.ReadRaw(ctx, "/file.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, fd.Content)

	// The default backend must not see the file at all.
	_, err = def.ReadRaw(ctx, "/mnt/file.txt")
	require.Error(t, err)
}

func TestCompositeBackendRootLsConcatenatesMounts(t *testing.T) {
	ctx := context.Background()
	def := NewStateBackend(nil)
	def.Write(ctx, "/root.txt", "x")
	mount := NewStateBackend(nil)
	c, err := NewCompositeBackend(def, map[string]Backend{"/mnt/": mount})
	require.NoError(t, err)

	entries, err := c.LsInfo(ctx, "/")
	require.NoError(t, err)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "/root.txt")
	assert.Contains(t, paths, "/mnt/")
}

func TestCompositeBackendRootGlobUnionsAndReprefixes(t *testing.T) {
	ctx := context.Background()
	def := NewStateBackend(nil)
	def.Write(ctx, "/a.go", "package main")
	mount := NewStateBackend(nil)
	mount.Write(ctx, "/b.go", "package main")
	c, err := NewCompositeBackend(def, map[string]Backend{"/mnt/": mount})
	require.NoError(t, err)

	entries, err := c.GlobInfo(ctx, "*.go", "/")
	require.NoError(t, err)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "/a.go")
	assert.Contains(t, paths, "/mnt/b.go")
}

func TestCompositeBackendTodosDelegateToDefault(t *testing.T) {
	ctx := context.Background()
	def := NewStateBackend(nil)
	mount := NewStateBackend(nil)
	c, err := NewCompositeBackend(def, map[string]Backend{"/mnt/": mount})
	require.NoError(t, err)

	todos, err := c.GetTodos(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)

	want := state.TodoList{{ID: "1", Content: "write spec", Status: state.TodoPending}}
	require.NoError(t, c.SetTodos(ctx, want))
	got, err := def.GetTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	fromMount, err := mount.GetTodos(ctx)
	require.NoError(t, err)
	assert.Empty(t, fromMount)
}
