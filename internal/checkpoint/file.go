package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// sanitizeThreadID turns an arbitrary display thread ID into a safe
// filename, per the "Thread-ID sanitization" design note (spec §9): the
// displayed ID is stored inside the payload, while the filename uses the
// sanitized form.
func sanitizeThreadID(threadID string) string {
	return unsafeFilenameChars.ReplaceAllString(threadID, "_")
}

// FileCheckpointer persists one JSON file per thread under dir.
type FileCheckpointer struct {
	dir string
}

// NewFileCheckpointer creates dir if needed and returns a checkpointer
// rooted there.
func NewFileCheckpointer(dir string) (*FileCheckpointer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &FileCheckpointer{dir: dir}, nil
}

func (f *FileCheckpointer) path(threadID string) string {
	return filepath.Join(f.dir, sanitizeThreadID(threadID)+".json")
}

func (f *FileCheckpointer) Save(ctx context.Context, cp Checkpoint) error {
	path := f.path(cp.ThreadID)
	now := time.Now()
	if existing, ok, err := f.Load(ctx, cp.ThreadID); err == nil && ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	raw, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint for %s: %w", cp.ThreadID, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write checkpoint for %s: %w", cp.ThreadID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize checkpoint for %s: %w", cp.ThreadID, err)
	}
	return nil
}

// Load returns (zero, false, nil) both when the file is missing and when it
// is corrupt: per spec §4.7/§7, a corrupt checkpoint loads as undefined
// rather than surfacing a decode error.
func (f *FileCheckpointer) Load(ctx context.Context, threadID string) (Checkpoint, bool, error) {
	raw, err := os.ReadFile(f.path(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, nil
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return Checkpoint{}, false, nil
	}
	return cp, true, nil
}

func (f *FileCheckpointer) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list checkpoint directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(f.dir, e.Name()))
		if err != nil {
			continue
		}
		var cp Checkpoint
		if err := json.Unmarshal(raw, &cp); err != nil {
			continue
		}
		out = append(out, cp.ThreadID)
	}
	sort.Strings(out)
	return out, nil
}

func (f *FileCheckpointer) Delete(ctx context.Context, threadID string) error {
	err := os.Remove(f.path(threadID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete checkpoint for %s: %w", threadID, err)
	}
	return nil
}

func (f *FileCheckpointer) Exists(ctx context.Context, threadID string) (bool, error) {
	_, err := os.Stat(f.path(threadID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat checkpoint for %s: %w", threadID, err)
}

var _ Checkpointer = (*FileCheckpointer)(nil)
