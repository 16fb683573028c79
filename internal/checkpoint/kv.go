package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/deepagent-go/deepagent/internal/kvstore"
)

// KVCheckpointer layers checkpoint persistence over an abstract
// kvstore.Store with prefix-listing support, namespace-isolated so several
// checkpointers can share one store (spec §4.7).
type KVCheckpointer struct {
	store     kvstore.Store
	namespace string
}

// NewKVCheckpointer wraps store, scoping all keys under namespace.
func NewKVCheckpointer(store kvstore.Store, namespace string) *KVCheckpointer {
	return &KVCheckpointer{store: store, namespace: namespace}
}

func (k *KVCheckpointer) key(threadID string) string {
	return k.namespace + "checkpoint:" + threadID
}

func (k *KVCheckpointer) Save(ctx context.Context, cp Checkpoint) error {
	now := time.Now()
	if existing, ok, err := k.Load(ctx, cp.ThreadID); err != nil {
		return err
	} else if ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint for %s: %w", cp.ThreadID, err)
	}
	return k.store.Set(ctx, k.key(cp.ThreadID), raw)
}

func (k *KVCheckpointer) Load(ctx context.Context, threadID string) (Checkpoint, bool, error) {
	raw, ok, err := k.store.Get(ctx, k.key(threadID))
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint for %s: %w", threadID, err)
	}
	if !ok {
		return Checkpoint{}, false, nil
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return Checkpoint{}, false, nil
	}
	return cp, true, nil
}

func (k *KVCheckpointer) List(ctx context.Context) ([]string, error) {
	keys, err := k.store.ListWithPrefix(ctx, k.namespace+"checkpoint:")
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, strings.TrimPrefix(key, k.namespace+"checkpoint:"))
	}
	sort.Strings(out)
	return out, nil
}

func (k *KVCheckpointer) Delete(ctx context.Context, threadID string) error {
	return k.store.Delete(ctx, k.key(threadID))
}

func (k *KVCheckpointer) Exists(ctx context.Context, threadID string) (bool, error) {
	_, ok, err := k.store.Get(ctx, k.key(threadID))
	return ok, err
}

var _ Checkpointer = (*KVCheckpointer)(nil)
