package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepagent-go/deepagent/internal/events"
	"github.com/deepagent-go/deepagent/internal/state"
)

// NewWriteTodosTool replaces or merges the agent's todo list.
func NewWriteTodosTool() Tool {
	return Tool{
		Name:        "write_todos",
		Description: "Replace or merge the agent's todo list. Use this to plan and track multi-step work.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"todos": map[string]any{
					"type":        "array",
					"description": "Ordered list of { id, content, status } todo items.",
				},
				"merge": map[string]any{
					"type":        "boolean",
					"description": "If true, merge into the existing list by id instead of replacing it.",
				},
			},
			"required": []string{"todos"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			raw, _ := args["todos"].([]any)
			incoming := make(state.TodoList, 0, len(raw))
			for _, item := range raw {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				incoming = append(incoming, state.Todo{
					ID:      stringArg(m, "id"),
					Content: stringArg(m, "content"),
					Status:  state.TodoStatus(stringArg(m, "status")),
				})
			}

			final := incoming
			if boolArg(args, "merge") {
				existing, err := tc.Backend.GetTodos(ctx)
				if err != nil {
					return "Error: " + err.Error(), nil
				}
				final = mergeTodos(existing, incoming)
			}

			if err := tc.Backend.SetTodos(ctx, final); err != nil {
				return "Error: " + err.Error(), nil
			}
			if err := tc.emit(ctx, events.NewTodosChangedEvent(tc.step())); err != nil {
				return "", err
			}
			return fmt.Sprintf("Updated todo list (%d items).", len(final)), nil
		},
	}
}

func mergeTodos(existing, incoming state.TodoList) state.TodoList {
	byID := make(map[string]int, len(existing))
	out := existing.Clone()
	for i, t := range out {
		byID[t.ID] = i
	}
	for _, t := range incoming {
		if i, ok := byID[t.ID]; ok {
			out[i] = t
			continue
		}
		byID[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

// NewLsTool lists directory entries under an optional path.
func NewLsTool() Tool {
	return Tool{
		Name:        "ls",
		Description: "List files and directories directly under a path (default: root).",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Directory path to list."},
			},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			path := stringArg(args, "path")
			entries, err := tc.Backend.LsInfo(ctx, path)
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			names := make([]string, len(entries))
			lines := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Path
				lines[i] = fmt.Sprintf("%s\t%s", e.Kind, e.Path)
			}
			if err := tc.emit(ctx, events.NewLsEvent(tc.step(), path, names)); err != nil {
				return "", err
			}
			if len(lines) == 0 {
				return "(empty)", nil
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}

// NewReadFileTool performs a formatted, line-numbered file read.
func NewReadFileTool() Tool {
	return Tool{
		Name:        "read_file",
		Description: "Read a file, returning line-numbered content. Supports paging via offset/limit.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":   map[string]any{"type": "string", "description": "File path to read."},
				"offset": map[string]any{"type": "integer", "description": "0-based line offset to start from."},
				"limit":  map[string]any{"type": "integer", "description": "Maximum number of lines to return (0 = no limit)."},
			},
			"required": []string{"path"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			path := stringArg(args, "path")
			if path == "" {
				return "Error: path is required", nil
			}
			out, err := tc.Backend.Read(ctx, path, intArg(args, "offset", 0), intArg(args, "limit", 0))
			if err != nil {
				return err.Error(), nil
			}
			if emitErr := tc.emit(ctx, events.NewFileReadEvent(tc.step(), path)); emitErr != nil {
				return "", emitErr
			}
			return out, nil
		},
	}
}

// NewWriteFileTool creates a new file.
func NewWriteFileTool() Tool {
	return Tool{
		Name:        "write_file",
		Description: "Create a new file with the given content. Fails if the file already exists; use edit_file to modify one.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    map[string]any{"type": "string", "description": "File path to create."},
				"content": map[string]any{"type": "string", "description": "File content."},
			},
			"required": []string{"path", "content"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			path := stringArg(args, "path")
			if path == "" {
				return "Error: path is required", nil
			}
			if err := tc.emit(ctx, events.NewFileWriteStartEvent(tc.step(), path)); err != nil {
				return "", err
			}
			res := tc.Backend.Write(ctx, path, stringArg(args, "content"))
			if !res.Success {
				return "Error: " + res.Error, nil
			}
			if err := tc.emit(ctx, events.NewFileWrittenEvent(tc.step(), res.Path)); err != nil {
				return "", err
			}
			return fmt.Sprintf("Wrote %s", res.Path), nil
		},
	}
}

// NewEditFileTool performs a literal substring replacement on an existing file.
func NewEditFileTool() Tool {
	return Tool{
		Name:        "edit_file",
		Description: "Replace a literal substring in an existing file. Fails if the substring is missing or ambiguous (unless replace_all is set).",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":        map[string]any{"type": "string"},
				"old_string":  map[string]any{"type": "string"},
				"new_string":  map[string]any{"type": "string"},
				"replace_all": map[string]any{"type": "boolean"},
			},
			"required": []string{"path", "old_string", "new_string"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			path := stringArg(args, "path")
			res := tc.Backend.Edit(ctx, path, stringArg(args, "old_string"), stringArg(args, "new_string"), boolArg(args, "replace_all"))
			if !res.Success {
				return "Error: " + res.Error, nil
			}
			if err := tc.emit(ctx, events.NewFileEditedEvent(tc.step(), path)); err != nil {
				return "", err
			}
			return fmt.Sprintf("Replaced %d occurrence(s) in %s", res.Occurrences, path), nil
		},
	}
}

// NewGlobTool matches files by glob pattern.
func NewGlobTool() Tool {
	return Tool{
		Name:        "glob",
		Description: "Find files matching a glob pattern (** for any depth, * within one segment).",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string"},
				"path":    map[string]any{"type": "string"},
			},
			"required": []string{"pattern"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			pattern := stringArg(args, "pattern")
			path := stringArg(args, "path")
			entries, err := tc.Backend.GlobInfo(ctx, pattern, path)
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Path
			}
			if emitErr := tc.emit(ctx, events.NewGlobEvent(tc.step(), pattern, path, names)); emitErr != nil {
				return "", emitErr
			}
			if len(names) == 0 {
				return "(no matches)", nil
			}
			return strings.Join(names, "\n"), nil
		},
	}
}

// NewGrepTool searches file contents by regular expression.
func NewGrepTool() Tool {
	return Tool{
		Name:        "grep",
		Description: "Search file contents for a regular expression, optionally restricted by an include glob.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string"},
				"path":    map[string]any{"type": "string"},
				"include": map[string]any{"type": "string"},
			},
			"required": []string{"pattern"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			pattern := stringArg(args, "pattern")
			path := stringArg(args, "path")
			matches, err := tc.Backend.GrepRaw(ctx, pattern, path, stringArg(args, "include"))
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			lines := make([]string, len(matches))
			texts := make([]string, len(matches))
			for i, m := range matches {
				lines[i] = fmt.Sprintf("%s:%d:%s", m.Path, m.Line, m.Text)
				texts[i] = m.Path
			}
			if emitErr := tc.emit(ctx, events.NewGrepEvent(tc.step(), pattern, path, texts)); emitErr != nil {
				return "", emitErr
			}
			if len(lines) == 0 {
				return "(no matches)", nil
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}
