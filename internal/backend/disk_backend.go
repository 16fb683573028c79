package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/deepagent-go/deepagent/internal/state"
	"github.com/deepagent-go/deepagent/internal/util"
)

// DiskBackend mirrors virtual-path operations onto a real directory tree,
// translating between the virtual path space ("/foo/bar") and a real root
// the way the teacher's sandbox manager translates a mission's virtual
// workspace onto a git worktree directory.
type DiskBackend struct {
	root string

	// todosMu guards the in-memory todo list; todos have no natural disk
	// representation in this harness and are kept alongside the tree.
	todosMu sync.Mutex
	todos   state.TodoList
}

// NewDiskBackend roots a backend at dir, creating it if necessary.
func NewDiskBackend(dir string) (*DiskBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create disk backend root: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve disk backend root: %w", err)
	}
	return &DiskBackend{root: abs}, nil
}

func (b *DiskBackend) realPath(virtual string) (string, error) {
	virtual, err := util.NormalizePath(virtual)
	if err != nil {
		return "", err
	}
	clean := filepath.Clean(strings.TrimPrefix(virtual, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path escapes backend root: %s", virtual)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *DiskBackend) virtualPath(real string) string {
	rel, err := filepath.Rel(b.root, real)
	if err != nil {
		return real
	}
	return "/" + filepath.ToSlash(rel)
}

func (b *DiskBackend) Read(ctx context.Context, path string, offset, limit int) (string, error) {
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

func (b *DiskBackend) ReadRaw(ctx context.Context, path string) (state.FileData, error) {
	real, err := b.realPath(path)
	if err != nil {
		return state.FileData{}, err
	}
	info, err := os.Stat(real)
	if err != nil {
		if os.IsNotExist(err) {
			return state.FileData{}, &ErrNotFound{Path: path}
		}
		return state.FileData{}, err
	}
	if info.IsDir() {
		return state.FileData{}, fmt.Errorf("'%s' is a directory, not a file", path)
	}
	content, err := os.ReadFile(real)
	if err != nil {
		return state.FileData{}, err
	}
	return state.FileData{
		Content:    util.SplitContent(string(content)),
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
	}, nil
}

func (b *DiskBackend) Write(ctx context.Context, path, content string) WriteResult {
	real, err := b.realPath(path)
	if err != nil {
		return WriteResult{Success: false, Error: err.Error()}
	}
	if _, statErr := os.Stat(real); statErr == nil {
		return WriteResult{Success: false, Error: fmt.Sprintf(
			"file '%s' already exists; use read then edit instead of overwriting", path)}
	}
	if err := os.MkdirAll(filepath.Dir(real), 0o755); err != nil {
		return WriteResult{Success: false, Error: err.Error()}
	}
	if err := os.WriteFile(real, []byte(content), 0o644); err != nil {
		return WriteResult{Success: false, Error: err.Error()}
	}
	normalized, _ := util.NormalizePath(path)
	return WriteResult{Success: true, Path: normalized}
}

func (b *DiskBackend) Edit(ctx context.Context, path, oldStr, newStr string, replaceAll bool) EditResult {
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
	updated := strings.Replace(content, oldStr, newStr, n)
	real, err := b.realPath(path)
	if err != nil {
		return EditResult{Success: false, Error: err.Error()}
	}
	if err := os.WriteFile(real, []byte(updated), 0o644); err != nil {
		return EditResult{Success: false, Error: err.Error()}
	}
	return EditResult{Success: true, Occurrences: occurrences}
}

func (b *DiskBackend) LsInfo(ctx context.Context, prefix string) ([]Entry, error) {
	prefix = util.NormalizePrefix(prefix)
	real, err := b.realPath(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(real)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		kind := KindFile
		size := 0
		if e.IsDir() {
			kind = KindDir
		} else if info, err := e.Info(); err == nil {
			size = int(info.Size())
		}
		p := prefix + e.Name()
		if kind == KindDir {
			p += "/"
		}
		out = append(out, Entry{Path: p, Kind: kind, Size: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (b *DiskBackend) GlobInfo(ctx context.Context, pattern, prefix string) ([]Entry, error) {
	prefix = util.NormalizePrefix(prefix)
	root, err := b.realPath(prefix)
	if err != nil {
		return nil, err
	}
	var out []Entry
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		virtual := b.virtualPath(p)
		rel := strings.TrimPrefix(virtual, prefix)
		ok, matchErr := util.MatchGlob(pattern, rel, util.GlobOptions{})
		if matchErr != nil {
			return matchErr
		}
		if ok {
			info, _ := d.Info()
			size := 0
			if info != nil {
				size = int(info.Size())
			}
			out = append(out, Entry{Path: virtual, Kind: KindFile, Size: size})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (b *DiskBackend) GrepRaw(ctx context.Context, pattern, prefix, globFilter string) ([]GrepMatch, error) {
	prefix = util.NormalizePrefix(prefix)
	re, err := compileGrepPattern(pattern)
	if err != nil {
		return nil, err
	}
	root, err := b.realPath(prefix)
	if err != nil {
		return nil, err
	}
	var out []GrepMatch
	walkErr := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		virtual := b.virtualPath(p)
		ok, matchErr := matchesGlobFilter(virtual, globFilter)
		if matchErr != nil {
			return matchErr
		}
		if !ok {
			return nil
		}
		content, readErr := os.ReadFile(p)
		if readErr != nil {
			return nil
		}
		for i, line := range util.SplitContent(string(content)) {
			if re.MatchString(line) {
				out = append(out, GrepMatch{Path: virtual, Line: i + 1, Text: line})
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

func (b *DiskBackend) GetTodos(ctx context.Context) (state.TodoList, error) {
	b.todosMu.Lock()
	defer b.todosMu.Unlock()
	return b.todos.Clone(), nil
}

func (b *DiskBackend) SetTodos(ctx context.Context, todos state.TodoList) error {
	b.todosMu.Lock()
	defer b.todosMu.Unlock()
	b.todos = todos.Clone()
	return nil
}

var _ Backend = (*DiskBackend)(nil)
