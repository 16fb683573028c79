package events

import (
	"context"
	"sync"
)

// Stream is the single-producer, single-consumer event transport described
// in spec §9: "the natural realization is a cooperative generator or a
// channel with a single consumer." Emit blocks until the consumer reads or
// the context is cancelled, which is how the agent core observes caller
// cancellation at its next suspension point (spec §5).
type Stream struct {
	ch        chan Event
	closeOnce sync.Once
}

// NewStream returns a stream with the given channel buffer. A buffer of 0
// gives the strictest backpressure; a small positive buffer (the agent core
// uses a handful) lets the producer stay slightly ahead of a slow consumer
// without unbounded growth.
func NewStream(buffer int) *Stream {
	return &Stream{ch: make(chan Event, buffer)}
}

// Events returns the read-only channel a caller ranges over to consume the
// stream. It is closed exactly once, after the terminal done/error event.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// Emit delivers ev to the consumer, blocking until it is received or ctx is
// cancelled. Returns ctx.Err() on cancellation so the agent core's step
// loop can stop issuing further model/tool calls at this suspension point.
func (s *Stream) Emit(ctx context.Context, ev Event) error {
	select {
	case s.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates the stream. Safe to call more than once; only the first
// call has effect.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}
