package main

import (
	"context"
	"fmt"

	"github.com/deepagent-go/deepagent/internal/control"
)

// maybeStartControlServer starts a control.Server on socketPath when one
// was requested, dispatching approve/deny commands into prompter so an
// operator can resolve a pending approval from another shell (the
// internal/control package's stated purpose). Returns a nil server and no
// error when socketPath is empty.
func maybeStartControlServer(ctx context.Context, socketPath string, prompter *approvalPrompter) (*control.Server, error) {
	if socketPath == "" {
		return nil, nil
	}

	srv, err := control.NewServer(socketPath, func(cmd control.Command) (map[string]any, error) {
		switch cmd.Type {
		case "approve":
			if !prompter.resolve(cmd.ApprovalID, true) {
				return nil, fmt.Errorf("no pending approval %q", cmd.ApprovalID)
			}
			return map[string]any{"approval_id": cmd.ApprovalID, "approved": true}, nil
		case "deny":
			if !prompter.resolve(cmd.ApprovalID, false) {
				return nil, fmt.Errorf("no pending approval %q", cmd.ApprovalID)
			}
			return map[string]any{"approval_id": cmd.ApprovalID, "approved": false, "reason": cmd.Reason}, nil
		case "status":
			return map[string]any{"status": "running"}, nil
		default:
			return nil, fmt.Errorf("unsupported control command %q", cmd.Type)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("start control server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return nil, err
	}
	return srv, nil
}
