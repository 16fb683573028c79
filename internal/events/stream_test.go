package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEmitAndConsume(t *testing.T) {
	s := NewStream(1)
	ctx := context.Background()

	err := s.Emit(ctx, NewStepStartEvent(1))
	require.NoError(t, err)
	s.Close()

	ev, ok := <-s.Events()
	require.True(t, ok)
	assert.Equal(t, TypeStepStart, ev.Type)
	assert.Equal(t, 1, ev.Step)

	_, ok = <-s.Events()
	assert.False(t, ok)
}

func TestStreamEmitRespectsCancellation(t *testing.T) {
	s := NewStream(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Emit(ctx, NewDoneEvent(5, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamOrderingToolCallBeforeResult(t *testing.T) {
	s := NewStream(4)
	ctx := context.Background()
	go func() {
		s.Emit(ctx, NewToolCallEvent(1, "c1", "read_file", nil))
		s.Emit(ctx, NewToolResultEvent(1, "c1", "read_file", "ok", false))
		s.Close()
	}()

	var seen []Type
	done := make(chan struct{})
	go func() {
		for ev := range s.Events() {
			seen = append(seen, ev.Type)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream to close")
	}

	require.Len(t, seen, 2)
	assert.Equal(t, TypeToolCall, seen[0])
	assert.Equal(t, TypeToolResult, seen[1])
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewStream(0)
	s.Close()
	assert.NotPanics(t, func() { s.Close() })
}
