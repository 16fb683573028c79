package checkpoint

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryCheckpointer is a process-local Checkpointer. An optional namespace
// isolates multiple independent savers sharing one process (spec §4.7).
type MemoryCheckpointer struct {
	namespace string

	mu    sync.Mutex
	saved map[string]Checkpoint
}

// NewMemoryCheckpointer returns an empty in-memory checkpointer.
func NewMemoryCheckpointer(namespace string) *MemoryCheckpointer {
	return &MemoryCheckpointer{namespace: namespace, saved: make(map[string]Checkpoint)}
}

func (m *MemoryCheckpointer) key(threadID string) string {
	return m.namespace + threadID
}

func (m *MemoryCheckpointer) Save(ctx context.Context, cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.key(cp.ThreadID)
	now := time.Now()
	if existing, ok := m.saved[key]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.saved[key] = cp.Clone()
	return nil
}

func (m *MemoryCheckpointer) Load(ctx context.Context, threadID string) (Checkpoint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.saved[m.key(threadID)]
	if !ok {
		return Checkpoint{}, false, nil
	}
	return cp.Clone(), true, nil
}

func (m *MemoryCheckpointer) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.saved))
	for _, cp := range m.saved {
		out = append(out, cp.ThreadID)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryCheckpointer) Delete(ctx context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, m.key(threadID))
	return nil
}

func (m *MemoryCheckpointer) Exists(ctx context.Context, threadID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.saved[m.key(threadID)]
	return ok, nil
}

var _ Checkpointer = (*MemoryCheckpointer)(nil)
