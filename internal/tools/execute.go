package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/deepagent-go/deepagent/internal/events"
)

// ExecResult is the outcome of running a command through a Sandbox.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Sandbox is the optional shell-execution capability backing the execute
// tool (spec §6 "Sandbox (optional)"). Network-bound/shell calls default to
// a 30s timeout per spec §5; the sandbox implementation is expected to
// honor ctx's deadline.
type Sandbox interface {
	Exec(ctx context.Context, command string, args []string) (ExecResult, error)
}

// DefaultTimeout is the spec §5 default for sandbox and network-bound
// tool calls.
const DefaultTimeout = 30 * time.Second

// LocalSandbox runs commands directly on the host via os/exec. It is a
// minimal Sandbox that a caller can supply explicitly; it is not installed
// automatically, and a nil Context.Sandbox leaves the execute tool
// reporting "not configured".
type LocalSandbox struct{}

func (LocalSandbox) Exec(ctx context.Context, command string, args []string) (ExecResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
		err = nil
	}
	if err != nil {
		return ExecResult{}, fmt.Errorf("run %s: %w", command, err)
	}
	return ExecResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}, nil
}

// NewExecuteTool runs a shell command through the configured Sandbox.
func NewExecuteTool() Tool {
	return Tool{
		Name:        "execute",
		Description: "Run a shell command through the configured sandbox and return its output.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "description": "Executable to run."},
				"args":    map[string]any{"type": "array", "description": "Arguments to pass to the executable."},
			},
			"required": []string{"command"},
		},
		Run: func(ctx context.Context, args map[string]any, tc *Context) (string, error) {
			if tc.Sandbox == nil {
				return "Error: command execution is not configured", nil
			}
			command := stringArg(args, "command")
			cmdArgs := toStringSlice(args["args"])

			timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
			defer cancel()

			if err := tc.emit(ctx, events.NewExecuteStartEvent(tc.step(), command)); err != nil {
				return "", err
			}
			res, err := tc.Sandbox.Exec(timeoutCtx, command, cmdArgs)
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			if emitErr := tc.emit(ctx, events.NewExecuteFinishEvent(tc.step(), command, res.ExitCode, res.Stdout, res.Stderr)); emitErr != nil {
				return "", emitErr
			}
			if res.ExitCode != 0 {
				return fmt.Sprintf("exit code %d\nstdout:\n%s\nstderr:\n%s", res.ExitCode, res.Stdout, res.Stderr), nil
			}
			return res.Stdout, nil
		},
	}
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
