package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/deepagent-go/deepagent/internal/state"
	"github.com/deepagent-go/deepagent/internal/util"
)

// CompositeBackend routes operations to a mounted backend by longest
// matching path-prefix, falling back to a default backend (spec §4.2).
// Ties on prefix length are rejected at construction.
type CompositeBackend struct {
	def    Backend
	routes map[string]Backend
}

// NewCompositeBackend builds a router over def with named prefix mounts.
// Every prefix must end in "/"; duplicate-length prefixes are an error
// since the spec requires ties to be disallowed by construction.
func NewCompositeBackend(def Backend, routes map[string]Backend) (*CompositeBackend, error) {
	if def == nil {
		return nil, fmt.Errorf("composite backend requires a default backend")
	}
	normalized := make(map[string]Backend, len(routes))
	lengths := map[int]string{}
	for prefix, b := range routes {
		if !strings.HasSuffix(prefix, "/") {
			return nil, fmt.Errorf("route prefix %q must end with '/'", prefix)
		}
		if existing, ok := lengths[len(prefix)]; ok && existing != prefix {
			return nil, fmt.Errorf("ambiguous routes with equal prefix length: %q and %q", existing, prefix)
		}
		lengths[len(prefix)] = prefix
		normalized[prefix] = b
	}
	return &CompositeBackend{def: def, routes: normalized}, nil
}

func (c *CompositeBackend) route(path string) (Backend, string) {
	best := ""
	var backend Backend
	for prefix, b := range c.routes {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			best = prefix
			backend = b
		}
	}
	if backend == nil {
		return c.def, ""
	}
	return backend, best
}

func (c *CompositeBackend) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	path, err := util.NormalizePath(path)
	if err != nil {
		return "", err
	}
	b, prefix := c.route(path)
	return b.Read(ctx, util.StripPrefix(path, prefix), offset, limit)
}

func (c *CompositeBackend) ReadRaw(ctx context.Context, path string) (state.FileData, error) {
	path, err := util.NormalizePath(path)
	if err != nil {
		return state.FileData{}, err
	}
	b, prefix := c.route(path)
	return b.ReadRaw(ctx, util.StripPrefix(path, prefix))
}

func (c *CompositeBackend) Write(ctx context.Context, path, content string) WriteResult {
	normalized, err := util.NormalizePath(path)
	if err != nil {
		return WriteResult{Success: false, Error: err.Error()}
	}
	b, prefix := c.route(normalized)
	res := b.Write(ctx, util.StripPrefix(normalized, prefix), content)
	if res.Success {
		res.Path = normalized
	}
	return res
}

func (c *CompositeBackend) Edit(ctx context.Context, path, oldStr, newStr string, replaceAll bool) EditResult {
	normalized, err := util.NormalizePath(path)
	if err != nil {
		return EditResult{Success: false, Error: err.Error()}
	}
	b, prefix := c.route(normalized)
	return b.Edit(ctx, util.StripPrefix(normalized, prefix), oldStr, newStr, replaceAll)
}

// LsInfo at the root concatenates the default backend's entries with one
// synthetic directory entry per registered mount (spec §4.2). A non-root
// prefix is forwarded to whichever single backend owns it.
func (c *CompositeBackend) LsInfo(ctx context.Context, prefix string) ([]Entry, error) {
	prefix = util.NormalizePrefix(prefix)
	if prefix != "/" {
		b, routePrefix := c.route(prefix)
		return b.LsInfo(ctx, util.StripPrefix(prefix, routePrefix))
	}

	out, err := c.def.LsInfo(ctx, "/")
	if err != nil {
		return nil, err
	}
	mounts := make([]string, 0, len(c.routes))
	for mount := range c.routes {
		mounts = append(mounts, mount)
	}
	sort.Strings(mounts)
	for _, mount := range mounts {
		out = append(out, Entry{Path: mount, Kind: KindDir})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// GlobInfo/GrepRaw at the root union results across every backend,
// re-prefixing each returned path so the caller never sees a mounted
// backend's internal path space (spec §4.2 invariant).
func (c *CompositeBackend) GlobInfo(ctx context.Context, pattern, prefix string) ([]Entry, error) {
	prefix = util.NormalizePrefix(prefix)
	if prefix != "/" {
		b, routePrefix := c.route(prefix)
		entries, err := b.GlobInfo(ctx, pattern, util.StripPrefix(prefix, routePrefix))
		if err != nil {
			return nil, err
		}
		return rePrefixEntries(entries, routePrefix), nil
	}

	out, err := c.def.GlobInfo(ctx, pattern, "/")
	if err != nil {
		return nil, err
	}
	for mount, b := range c.routes {
		entries, err := b.GlobInfo(ctx, pattern, "/")
		if err != nil {
			return nil, err
		}
		out = append(out, rePrefixEntries(entries, mount)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (c *CompositeBackend) GrepRaw(ctx context.Context, pattern, prefix, globFilter string) ([]GrepMatch, error) {
	prefix = util.NormalizePrefix(prefix)
	if prefix != "/" {
		b, routePrefix := c.route(prefix)
		matches, err := b.GrepRaw(ctx, pattern, util.StripPrefix(prefix, routePrefix), globFilter)
		if err != nil {
			return nil, err
		}
		return rePrefixMatches(matches, routePrefix), nil
	}

	out, err := c.def.GrepRaw(ctx, pattern, "/", globFilter)
	if err != nil {
		return nil, err
	}
	for mount, b := range c.routes {
		matches, err := b.GrepRaw(ctx, pattern, "/", globFilter)
		if err != nil {
			return nil, err
		}
		out = append(out, rePrefixMatches(matches, mount)...)
	}
	return out, nil
}

func rePrefixEntries(entries []Entry, prefix string) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.Path = prefix + strings.TrimPrefix(e.Path, "/")
		out[i] = e
	}
	return out
}

func rePrefixMatches(matches []GrepMatch, prefix string) []GrepMatch {
	out := make([]GrepMatch, len(matches))
	for i, m := range matches {
		m.Path = prefix + strings.TrimPrefix(m.Path, "/")
		out[i] = m
	}
	return out
}

// GetTodos/SetTodos always delegate to the default backend: todos are a
// single shared list for the whole agent, not a per-prefix resource.
func (c *CompositeBackend) GetTodos(ctx context.Context) (state.TodoList, error) {
	return c.def.GetTodos(ctx)
}

func (c *CompositeBackend) SetTodos(ctx context.Context, todos state.TodoList) error {
	return c.def.SetTodos(ctx, todos)
}

var _ Backend = (*CompositeBackend)(nil)
