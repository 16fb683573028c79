package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepagent-go/deepagent/internal/kvstore"
	"github.com/deepagent-go/deepagent/internal/message"
	"github.com/deepagent-go/deepagent/internal/state"
)

func sampleCheckpoint(threadID string) Checkpoint {
	s := state.NewAgentState()
	s.Todos = state.TodoList{{ID: "1", Content: "write spec", Status: state.TodoPending}}
	return Checkpoint{
		ThreadID: threadID,
		Step:     3,
		Messages: []message.Message{message.NewText(message.RoleUser, "hello")},
		State:    *s,
	}
}

func testCheckpointerRoundTrip(t *testing.T, cp Checkpointer) {
	ctx := context.Background()
	saved := sampleCheckpoint("thread-a")

	require.NoError(t, cp.Save(ctx, saved))

	loaded, ok, err := cp.Load(ctx, "thread-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved.ThreadID, loaded.ThreadID)
	assert.Equal(t, saved.Step, loaded.Step)
	assert.Equal(t, saved.Messages, loaded.Messages)
	assert.Equal(t, saved.State, loaded.State)
	assert.False(t, loaded.CreatedAt.IsZero())
	assert.True(t, !loaded.UpdatedAt.Before(loaded.CreatedAt))

	exists, err := cp.Exists(ctx, "thread-a")
	require.NoError(t, err)
	assert.True(t, exists)

	missing, ok, err := cp.Load(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Checkpoint{}, missing)
}

func testCheckpointerThreadIsolation(t *testing.T, cp Checkpointer) {
	ctx := context.Background()
	require.NoError(t, cp.Save(ctx, sampleCheckpoint("thread-a")))
	require.NoError(t, cp.Save(ctx, sampleCheckpoint("thread-b")))

	list, err := cp.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"thread-a", "thread-b"}, list)
}

func testCheckpointerPreservesCreatedAt(t *testing.T, cp Checkpointer) {
	ctx := context.Background()
	first := sampleCheckpoint("thread-c")
	require.NoError(t, cp.Save(ctx, first))
	loadedFirst, _, err := cp.Load(ctx, "thread-c")
	require.NoError(t, err)

	second := sampleCheckpoint("thread-c")
	second.Step = 4
	require.NoError(t, cp.Save(ctx, second))
	loadedSecond, _, err := cp.Load(ctx, "thread-c")
	require.NoError(t, err)

	assert.Equal(t, loadedFirst.CreatedAt, loadedSecond.CreatedAt)
	assert.Equal(t, 4, loadedSecond.Step)
}

func testCheckpointerDelete(t *testing.T, cp Checkpointer) {
	ctx := context.Background()
	require.NoError(t, cp.Save(ctx, sampleCheckpoint("thread-d")))
	require.NoError(t, cp.Delete(ctx, "thread-d"))
	exists, err := cp.Exists(ctx, "thread-d")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCheckpointer(t *testing.T) {
	cp := NewMemoryCheckpointer("")
	testCheckpointerRoundTrip(t, cp)
	testCheckpointerDelete(t, cp)
}

func TestMemoryCheckpointerThreadIsolation(t *testing.T) {
	testCheckpointerThreadIsolation(t, NewMemoryCheckpointer(""))
}

func TestMemoryCheckpointerPreservesCreatedAt(t *testing.T) {
	testCheckpointerPreservesCreatedAt(t, NewMemoryCheckpointer(""))
}

func TestFileCheckpointer(t *testing.T) {
	cp, err := NewFileCheckpointer(t.TempDir())
	require.NoError(t, err)
	testCheckpointerRoundTrip(t, cp)
	testCheckpointerDelete(t, cp)
}

func TestFileCheckpointerThreadIsolation(t *testing.T) {
	cp, err := NewFileCheckpointer(t.TempDir())
	require.NoError(t, err)
	testCheckpointerThreadIsolation(t, cp)
}

func TestFileCheckpointerSanitizesThreadID(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewFileCheckpointer(dir)
	require.NoError(t, err)

	unsafe := "thread/with weird:chars"
	require.NoError(t, cp.Save(context.Background(), sampleCheckpoint(unsafe)))

	loaded, ok, err := cp.Load(context.Background(), unsafe)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, unsafe, loaded.ThreadID)

	assert.FileExists(t, filepath.Join(dir, sanitizeThreadID(unsafe)+".json"))
}

func TestFileCheckpointerCorruptFileLoadsAsUndefined(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewFileCheckpointer(dir)
	require.NoError(t, err)

	corruptPath := filepath.Join(dir, sanitizeThreadID("broken")+".json")
	require.NoError(t, os.WriteFile(corruptPath, []byte("{not valid json"), 0o644))

	_, ok, err := cp.Load(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVCheckpointer(t *testing.T) {
	cp := NewKVCheckpointer(kvstore.NewMemoryStore(), "")
	testCheckpointerRoundTrip(t, cp)
	testCheckpointerDelete(t, cp)
}

func TestKVCheckpointerNamespaceIsolation(t *testing.T) {
	store := kvstore.NewMemoryStore()
	a := NewKVCheckpointer(store, "a:")
	b := NewKVCheckpointer(store, "b:")
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, sampleCheckpoint("thread-x")))

	_, ok, err := b.Load(ctx, "thread-x")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = a.Load(ctx, "thread-x")
	require.NoError(t, err)
	assert.True(t, ok)
}
