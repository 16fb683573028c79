// Package checkpoint implements thread persistence (spec §4.7): saving and
// restoring a full agent snapshot — messages, filesystem state, and todos —
// keyed by thread ID, with pluggable storage.
package checkpoint

import (
	"context"
	"time"

	"github.com/deepagent-go/deepagent/internal/message"
	"github.com/deepagent-go/deepagent/internal/state"
)

// Checkpoint is a full snapshot of one thread's agent state (spec §3).
type Checkpoint struct {
	ThreadID  string            `json:"thread_id"`
	Step      int               `json:"step"`
	Messages  []message.Message `json:"messages"`
	State     state.AgentState  `json:"state"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Clone copies a Checkpoint so a caller can append to its Messages or
// mutate its State without affecting a stored snapshot. State is
// deep-copied; the Messages slice is copied, but each message's Parts (and
// their Args maps) are shared with c.
func (c Checkpoint) Clone() Checkpoint {
	out := c
	out.Messages = append([]message.Message(nil), c.Messages...)
	out.State = *c.State.Clone()
	return out
}

// Checkpointer is the persistence contract every storage variant
// implements (spec §4.7). load returns (Checkpoint{}, false, nil) when no
// checkpoint exists for threadID, never an error.
type Checkpointer interface {
	Save(ctx context.Context, cp Checkpoint) error
	Load(ctx context.Context, threadID string) (Checkpoint, bool, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, threadID string) error
	Exists(ctx context.Context, threadID string) (bool, error)
}
