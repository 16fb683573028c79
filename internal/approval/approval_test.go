package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepagent-go/deepagent/internal/events"
)

func noopExecute(calls *int) Execute {
	return func(ctx context.Context, args map[string]any) (string, error) {
		*calls++
		return "ok", nil
	}
}

func TestGateUngatedToolPassesThrough(t *testing.T) {
	calls := 0
	fn := Gate(nil, func() int { return 1 }, "read_file", Config{}, nil, noopExecute(&calls))
	out, err := fn(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, calls)
}

func TestGateDefaultDenyWithoutHandler(t *testing.T) {
	calls := 0
	cfg := Config{"write_file": Always()}
	fn := Gate(nil, func() int { return 1 }, "write_file", cfg, nil, noopExecute(&calls))
	out, err := fn(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, DeniedMessage, out)
	assert.Equal(t, 0, calls)
}

func TestGateApprovedDelegates(t *testing.T) {
	calls := 0
	cfg := Config{"write_file": Always()}
	handler := func(ctx context.Context, req Request) (bool, error) { return true, nil }
	fn := Gate(nil, func() int { return 1 }, "write_file", cfg, handler, noopExecute(&calls))
	out, err := fn(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, calls)
}

func TestGateDeniedDoesNotExecute(t *testing.T) {
	calls := 0
	cfg := Config{"write_file": Always()}
	handler := func(ctx context.Context, req Request) (bool, error) { return false, nil }
	fn := Gate(nil, func() int { return 1 }, "write_file", cfg, handler, noopExecute(&calls))
	out, err := fn(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, DeniedMessage, out)
	assert.Equal(t, 0, calls)
}

func TestGatePredicateDecidesDynamically(t *testing.T) {
	calls := 0
	cfg := Config{"execute": When(func(ctx context.Context, args map[string]any) (bool, error) {
		cmd, _ := args["command"].(string)
		return cmd == "rm -rf /", nil
	})}
	fn := Gate(nil, func() int { return 1 }, "execute", cfg, nil, noopExecute(&calls))

	out, err := fn(context.Background(), map[string]any{"command": "ls"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, calls)

	out, err = fn(context.Background(), map[string]any{"command": "rm -rf /"})
	require.NoError(t, err)
	assert.Equal(t, DeniedMessage, out)
	assert.Equal(t, 1, calls)
}

func TestGateEmitsApprovalEventsInOrder(t *testing.T) {
	s := events.NewStream(4)
	cfg := Config{"write_file": Always()}
	handler := func(ctx context.Context, req Request) (bool, error) { return true, nil }
	calls := 0
	fn := Gate(s, func() int { return 2 }, "write_file", cfg, handler, noopExecute(&calls))

	go func() {
		fn(context.Background(), nil)
		s.Close()
	}()

	var seen []events.Type
	for ev := range s.Events() {
		seen = append(seen, ev.Type)
	}
	require.Len(t, seen, 2)
	assert.Equal(t, events.TypeApprovalRequested, seen[0])
	assert.Equal(t, events.TypeApprovalResponse, seen[1])
}
