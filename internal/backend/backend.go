// Package backend implements the virtual filesystem contract (spec §4.1)
// and its variants: in-memory state, real disk, key-value persisted, and a
// prefix-routed composite (spec §4.2).
//
// Grounded on the protocol shape in the retrieval pack's
// wordflowlab-agentsdk backends/protocol.go (itself a Go port of
// DeepAgents' backends/protocol.py) and the tool-facing contract in
// KumarDeepankar-wick_agent's hooks/filesystem.go.
package backend

import (
	"context"
	"fmt"
	"regexp"

	"github.com/deepagent-go/deepagent/internal/state"
	"github.com/deepagent-go/deepagent/internal/util"
)

// EntryKind distinguishes files from directories in listings.
type EntryKind string

const (
	KindFile EntryKind = "file"
	KindDir  EntryKind = "dir"
)

// Entry describes one path returned by Ls or Glob.
type Entry struct {
	Path string    `json:"path"`
	Kind EntryKind `json:"kind"`
	Size int       `json:"size,omitempty"`
}

// GrepMatch is one line matched by Grep.
type GrepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// WriteResult is the outcome of a Write call.
type WriteResult struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EditResult is the outcome of an Edit call.
type EditResult struct {
	Success     bool   `json:"success"`
	Occurrences int    `json:"occurrences,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Backend is the uniform contract every filesystem variant satisfies
// (spec §4.1). Implementations must normalize paths per
// util.NormalizePath/NormalizePrefix.
type Backend interface {
	// Read returns a formatted, line-numbered rendering of lines
	// [offset, offset+limit) of path, or an error string per spec §4.1.
	Read(ctx context.Context, path string, offset, limit int) (string, error)

	// ReadRaw returns the unformatted FileData for path.
	ReadRaw(ctx context.Context, path string) (state.FileData, error)

	// Write creates path with content. Overwriting an existing path fails
	// unless the backend is explicitly overwrite-capable (spec's
	// documented-default backend policy, see Open Question in spec §9).
	Write(ctx context.Context, path, content string) WriteResult

	// Edit performs a literal substring replacement.
	Edit(ctx context.Context, path, oldStr, newStr string, replaceAll bool) EditResult

	// LsInfo lists entries directly under prefix.
	LsInfo(ctx context.Context, prefix string) ([]Entry, error)

	// GlobInfo lists entries under prefix matching pattern.
	GlobInfo(ctx context.Context, pattern, prefix string) ([]Entry, error)

	// GrepRaw searches file contents under prefix (optionally filtered by
	// globFilter) for a regular expression.
	GrepRaw(ctx context.Context, pattern, prefix, globFilter string) ([]GrepMatch, error)

	// GetTodos/SetTodos manage the backend's todo list.
	GetTodos(ctx context.Context) (state.TodoList, error)
	SetTodos(ctx context.Context, todos state.TodoList) error
}

// ErrNotFound is returned by ReadRaw (and wrapped into the Read error
// string) when a path does not exist.
type ErrNotFound struct{ Path string }

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("File '%s' not found", e.Path)
}

// ErrInvalidRegex wraps a regexp compile failure into the spec's required
// "Invalid regex pattern:" prefix.
type ErrInvalidRegex struct{ Underlying error }

func (e *ErrInvalidRegex) Error() string {
	return fmt.Sprintf("Invalid regex pattern: %v", e.Underlying)
}

func (e *ErrInvalidRegex) Unwrap() error { return e.Underlying }

func compileGrepPattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &ErrInvalidRegex{Underlying: err}
	}
	return re, nil
}

// formatReadError renders the spec-mandated "Error: ..." strings for Read.
func formatReadError(err error) string {
	return "Error: " + err.Error()
}

// matchesGlobFilter applies an optional filename glob (e.g. "*.go") on top
// of a grep/glob prefix search.
func matchesGlobFilter(path, globFilter string) (bool, error) {
	if globFilter == "" {
		return true, nil
	}
	base := path
	if idx := lastSlash(path); idx >= 0 {
		base = path[idx+1:]
	}
	return util.MatchGlob(globFilter, base, util.GlobOptions{Dot: true})
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
