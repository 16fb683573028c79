package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/deepagent-go/deepagent/internal/approval"
)

// approvalPrompter implements approval.RequestHandler for an interactive
// terminal session, and doubles as the pending-decision table a
// control.Server's approve/deny commands resolve against (grounded on the
// teacher's executor pause/resume socket, generalized in
// internal/control's doc comment to approve/deny). Whichever of the two
// arrives first for a given approval ID wins; the other is a no-op.
type approvalPrompter struct {
	mu      sync.Mutex
	pending map[string]chan bool
}

func newApprovalPrompter() *approvalPrompter {
	return &approvalPrompter{pending: make(map[string]chan bool)}
}

func (p *approvalPrompter) handle(ctx context.Context, req approval.Request) (bool, error) {
	ch := make(chan bool, 1)
	p.mu.Lock()
	p.pending[req.ApprovalID] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, req.ApprovalID)
		p.mu.Unlock()
	}()

	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	fmt.Printf("\n%s tool %q wants to run with args %v\n", yellow("[approval required]"), req.ToolName, req.Args)
	fmt.Printf("approve? [y/N] (or: deepagent approve/deny %s from another shell) ", req.ApprovalID)

	go func() {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		approved := strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
		p.resolve(req.ApprovalID, approved)
	}()

	select {
	case approved := <-ch:
		return approved, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// resolve is called either by the stdin goroutine above or by a
// control.Server command handler relaying an operator's approve/deny from
// another process. It is a no-op if the approval already resolved or
// never existed.
func (p *approvalPrompter) resolve(approvalID string, approved bool) bool {
	p.mu.Lock()
	ch, ok := p.pending[approvalID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- approved:
	default:
	}
	return true
}
