package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/deepagent-go/deepagent/internal/kvstore"
	"github.com/deepagent-go/deepagent/internal/state"
	"github.com/deepagent-go/deepagent/internal/util"
)

// KVBackend stores one entry per file under an optional namespace prefix on
// top of an abstract kvstore.Store. Enumeration (Ls/Glob/Grep) relies on the
// store's prefix-listing capability, matching spec §4.2's "key-value
// persistent backend".
type KVBackend struct {
	store     kvstore.Store
	namespace string
}

// NewKVBackend wraps store, scoping all keys under namespace (may be empty).
func NewKVBackend(store kvstore.Store, namespace string) *KVBackend {
	return &KVBackend{store: store, namespace: namespace}
}

func (b *KVBackend) fileKey(path string) string {
	return b.namespace + "file:" + path
}

func (b *KVBackend) todosKey() string {
	return b.namespace + "todos"
}

func (b *KVBackend) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	fd, err := b.ReadRaw(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%s", formatReadError(err))
	}
	out, err := util.FormatLines(fd.Content, offset, limit)
	if err != nil {
		return "", fmt.Errorf("%s", formatReadError(err))
	}
	return out, nil
}

func (b *KVBackend) ReadRaw(ctx context.Context, path string) (state.FileData, error) {
	path, err := util.NormalizePath(path)
	if err != nil {
		return state.FileData{}, err
	}
	raw, ok, err := b.store.Get(ctx, b.fileKey(path))
	if err != nil {
		return state.FileData{}, err
	}
	if !ok {
		return state.FileData{}, &ErrNotFound{Path: path}
	}
	var fd state.FileData
	if err := json.Unmarshal(raw, &fd); err != nil {
		return state.FileData{}, fmt.Errorf("decode stored file %s: %w", path, err)
	}
	return fd, nil
}

func (b *KVBackend) Write(ctx context.Context, path, content string) WriteResult {
	path, err := util.NormalizePath(path)
	if err != nil {
		return WriteResult{Success: false, Error: err.Error()}
	}
	if _, ok, _ := b.store.Get(ctx, b.fileKey(path)); ok {
		return WriteResult{Success: false, Error: fmt.Sprintf(
			"file '%s' already exists; use read then edit instead of overwriting", path)}
	}
	now := time.Now()
	fd := state.FileData{Content: util.SplitContent(content), CreatedAt: now, ModifiedAt: now}
	raw, err := json.Marshal(fd)
	if err != nil {
		return WriteResult{Success: false, Error: err.Error()}
	}
	if err := b.store.Set(ctx, b.fileKey(path), raw); err != nil {
		return WriteResult{Success: false, Error: err.Error()}
	}
	return WriteResult{Success: true, Path: path}
}

func (b *KVBackend) Edit(ctx context.Context, path, oldStr, newStr string, replaceAll bool) EditResult {
	fd, err := b.ReadRaw(ctx, path)
	if err != nil {
		return EditResult{Success: false, Error: err.Error()}
	}
	content := util.JoinContent(fd.Content)
	count := strings.Count(content, oldStr)
	if count == 0 {
		return EditResult{Success: false, Error: fmt.Sprintf("string '%s' not found in file", oldStr)}
	}
	if !replaceAll && count > 1 {
		return EditResult{Success: false, Error: fmt.Sprintf("string '%s' appears %d times; pass replace_all=true or narrow the match", oldStr, count)}
	}
	n := 1
	occurrences := 1
	if replaceAll {
		n = -1
		occurrences = count
	}
	fd.Content = util.SplitContent(strings.Replace(content, oldStr, newStr, n))
	fd.ModifiedAt = time.Now()
	path, _ = util.NormalizePath(path)
	raw, err := json.Marshal(fd)
	if err != nil {
		return EditResult{Success: false, Error: err.Error()}
	}
	if err := b.store.Set(ctx, b.fileKey(path), raw); err != nil {
		return EditResult{Success: false, Error: err.Error()}
	}
	return EditResult{Success: true, Occurrences: occurrences}
}

func (b *KVBackend) allPaths(ctx context.Context) ([]string, error) {
	keys, err := b.store.ListWithPrefix(ctx, b.namespace+"file:")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, b.namespace+"file:"))
	}
	return out, nil
}

func (b *KVBackend) LsInfo(ctx context.Context, prefix string) ([]Entry, error) {
	prefix = util.NormalizePrefix(prefix)
	paths, err := b.allPaths(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []Entry
	for _, path := range paths {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			dir := prefix + rest[:idx+1]
			if !seen[dir] {
				seen[dir] = true
				out = append(out, Entry{Path: dir, Kind: KindDir})
			}
			continue
		}
		out = append(out, Entry{Path: path, Kind: KindFile})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (b *KVBackend) GlobInfo(ctx context.Context, pattern, prefix string) ([]Entry, error) {
	prefix = util.NormalizePrefix(prefix)
	paths, err := b.allPaths(ctx)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, path := range paths {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		ok, err := util.MatchGlob(pattern, strings.TrimPrefix(path, prefix), util.GlobOptions{})
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Entry{Path: path, Kind: KindFile})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (b *KVBackend) GrepRaw(ctx context.Context, pattern, prefix, globFilter string) ([]GrepMatch, error) {
	prefix = util.NormalizePrefix(prefix)
	re, err := compileGrepPattern(pattern)
	if err != nil {
		return nil, err
	}
	paths, err := b.allPaths(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var out []GrepMatch
	for _, path := range paths {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		ok, err := matchesGlobFilter(path, globFilter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		fd, err := b.ReadRaw(ctx, path)
		if err != nil {
			continue
		}
		for i, line := range fd.Content {
			if re.MatchString(line) {
				out = append(out, GrepMatch{Path: path, Line: i + 1, Text: line})
			}
		}
	}
	return out, nil
}

func (b *KVBackend) GetTodos(ctx context.Context) (state.TodoList, error) {
	raw, ok, err := b.store.Get(ctx, b.todosKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return state.TodoList{}, nil
	}
	var todos state.TodoList
	if err := json.Unmarshal(raw, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (b *KVBackend) SetTodos(ctx context.Context, todos state.TodoList) error {
	raw, err := json.Marshal(todos)
	if err != nil {
		return err
	}
	return b.store.Set(ctx, b.todosKey(), raw)
}

var _ Backend = (*KVBackend)(nil)
