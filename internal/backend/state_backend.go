package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deepagent-go/deepagent/internal/state"
	"github.com/deepagent-go/deepagent/internal/util"
)

// StateBackend holds an AgentState entirely in process memory. All
// operations are synchronous; concurrent writes are serialized by a mutex
// so the backend is safe to share across goroutines even though the spec's
// single-threaded tool loop normally never exercises that path (spec §5).
type StateBackend struct {
	mu    sync.Mutex
	state *state.AgentState
}

// NewStateBackend wraps (or creates) an AgentState.
func NewStateBackend(s *state.AgentState) *StateBackend {
	if s == nil {
		s = state.NewAgentState()
	}
	return &StateBackend{state: s}
}

// State returns the underlying AgentState. Callers that need a snapshot
// for checkpointing should call State().Clone().
func (b *StateBackend) State() *state.AgentState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *StateBackend) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	path, err := util.NormalizePath(path)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	fd, ok := b.state.Files[path]
	b.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%s", formatReadError(&ErrNotFound{Path: path}))
	}
	out, err := util.FormatLines(fd.Content, offset, limit)
	if err != nil {
		return "", fmt.Errorf("%s", formatReadError(err))
	}
	return out, nil
}

func (b *StateBackend) ReadRaw(ctx context.Context, path string) (state.FileData, error) {
	path, err := util.NormalizePath(path)
	if err != nil {
		return state.FileData{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fd, ok := b.state.Files[path]
	if !ok {
		return state.FileData{}, &ErrNotFound{Path: path}
	}
	return fd, nil
}

func (b *StateBackend) Write(ctx context.Context, path, content string) WriteResult {
	path, err := util.NormalizePath(path)
	if err != nil {
		return WriteResult{Success: false, Error: err.Error()}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.state.Files[path]; exists {
		return WriteResult{Success: false, Error: fmt.Sprintf(
			"file '%s' already exists; use read then edit instead of overwriting", path)}
	}
	now := time.Now()
	b.state.Files[path] = state.FileData{
		Content:    util.SplitContent(content),
		CreatedAt:  now,
		ModifiedAt: now,
	}
	return WriteResult{Success: true, Path: path}
}

func (b *StateBackend) Edit(ctx context.Context, path, oldStr, newStr string, replaceAll bool) EditResult {
	path, err := util.NormalizePath(path)
	if err != nil {
		return EditResult{Success: false, Error: err.Error()}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fd, ok := b.state.Files[path]
	if !ok {
		return EditResult{Success: false, Error: (&ErrNotFound{Path: path}).Error()}
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
	if replaceAll {
		n = -1
	}
	updated := strings.Replace(content, oldStr, newStr, n)
	occurrences := count
	if !replaceAll {
		occurrences = 1
	}
	fd.Content = util.SplitContent(updated)
	fd.ModifiedAt = time.Now()
	b.state.Files[path] = fd
	return EditResult{Success: true, Occurrences: occurrences}
}

func (b *StateBackend) LsInfo(ctx context.Context, prefix string) ([]Entry, error) {
	prefix = util.NormalizePrefix(prefix)
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := map[string]bool{}
	var out []Entry
	for path, fd := range b.state.Files {
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
		out = append(out, Entry{Path: path, Kind: KindFile, Size: len(util.JoinContent(fd.Content))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (b *StateBackend) GlobInfo(ctx context.Context, pattern, prefix string) ([]Entry, error) {
	prefix = util.NormalizePrefix(prefix)
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Entry
	for path, fd := range b.state.Files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		ok, err := util.MatchGlob(pattern, strings.TrimPrefix(path, prefix), util.GlobOptions{})
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Entry{Path: path, Kind: KindFile, Size: len(util.JoinContent(fd.Content))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (b *StateBackend) GrepRaw(ctx context.Context, pattern, prefix, globFilter string) ([]GrepMatch, error) {
	prefix = util.NormalizePrefix(prefix)
	re, err := compileGrepPattern(pattern)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []GrepMatch
	var paths []string
	for path := range b.state.Files {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	for _, path := range paths {
		ok, err := matchesGlobFilter(path, globFilter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		fd := b.state.Files[path]
		for i, line := range fd.Content {
			if re.MatchString(line) {
				out = append(out, GrepMatch{Path: path, Line: i + 1, Text: line})
			}
		}
	}
	return out, nil
}

func (b *StateBackend) GetTodos(ctx context.Context) (state.TodoList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Todos.Clone(), nil
}

func (b *StateBackend) SetTodos(ctx context.Context, todos state.TodoList) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Todos = todos.Clone()
	return nil
}

var _ Backend = (*StateBackend)(nil)
