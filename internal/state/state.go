// Package state defines the data model shared across the agent core: the
// todo list and the virtual filesystem snapshot that together make up an
// AgentState.
package state

import "time"

// TodoStatus is the lifecycle state of a single todo item.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// Todo is a single unit of planned work. IDs are unique within a list but
// carry no meaning outside it.
type Todo struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Status  TodoStatus `json:"status"`
}

// TodoList is an ordered sequence of todos. At most one in_progress item is
// a convention enforced by callers, not by this type.
type TodoList []Todo

// Clone returns a deep copy so callers can mutate without aliasing state
// held elsewhere (mirrors the defensive copying the teacher's AgentContext
// snapshot does before persisting interrupt metadata).
func (l TodoList) Clone() TodoList {
	if l == nil {
		return nil
	}
	out := make(TodoList, len(l))
	copy(out, l)
	return out
}

// FileData is the raw representation of one virtual file: its content split
// into logical lines plus creation/modification timestamps.
//
// Invariant: strings.Join(Content, "\n") followed by re-splitting on "\n"
// round-trips to the same Content slice.
type FileData struct {
	Content    []string  `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// AgentState is the full virtual-filesystem + todo snapshot owned by a
// single agent invocation.
type AgentState struct {
	Todos TodoList            `json:"todos"`
	Files map[string]FileData `json:"files"`
}

// NewAgentState returns an empty, ready-to-use state.
func NewAgentState() *AgentState {
	return &AgentState{
		Todos: TodoList{},
		Files: make(map[string]FileData),
	}
}

// Clone deep-copies the state so a checkpoint snapshot cannot be mutated by
// the live agent loop after it has been handed off to a checkpointer.
func (s *AgentState) Clone() *AgentState {
	if s == nil {
		return nil
	}
	out := &AgentState{
		Todos: s.Todos.Clone(),
		Files: make(map[string]FileData, len(s.Files)),
	}
	for path, fd := range s.Files {
		content := make([]string, len(fd.Content))
		copy(content, fd.Content)
		out.Files[path] = FileData{
			Content:    content,
			CreatedAt:  fd.CreatedAt,
			ModifiedAt: fd.ModifiedAt,
		}
	}
	return out
}
