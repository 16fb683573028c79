package control

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, onCommand func(Command) (map[string]any, error)) (*Server, string) {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "agent.sock")
	srv, err := NewServer(sockPath, onCommand)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { srv.Stop() })
	return srv, sockPath
}

func TestClientServerApproveRoundTrip(t *testing.T) {
	var received Command
	_, sockPath := startTestServer(t, func(cmd Command) (map[string]any, error) {
		received = cmd
		return map[string]any{"approved": true}, nil
	})

	client := NewClient(sockPath)
	resp, err := client.Approve("approval-1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "approve", received.Type)
	assert.Equal(t, "approval-1", received.ApprovalID)
	assert.Equal(t, true, resp.Data["approved"])
}

func TestClientServerDenyCarriesReason(t *testing.T) {
	var received Command
	_, sockPath := startTestServer(t, func(cmd Command) (map[string]any, error) {
		received = cmd
		return nil, nil
	})

	client := NewClient(sockPath)
	_, err := client.Deny("approval-2", "not safe")
	require.NoError(t, err)
	assert.Equal(t, "deny", received.Type)
	assert.Equal(t, "not safe", received.Reason)
}

func TestServerReportsHandlerError(t *testing.T) {
	_, sockPath := startTestServer(t, func(cmd Command) (map[string]any, error) {
		return nil, assertError("boom")
	})

	resp, err := NewClient(sockPath).Status()
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "boom", resp.Error)
}

func TestClientFailsWhenNoServerListening(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	client.SetTimeout(200 * time.Millisecond)
	_, err := client.Status()
	assert.Error(t, err)
}

func TestServerIsRunningAndSocketPath(t *testing.T) {
	srv, sockPath := startTestServer(t, func(cmd Command) (map[string]any, error) { return nil, nil })
	assert.True(t, srv.IsRunning())
	assert.Equal(t, sockPath, srv.SocketPath())
}

type assertError string

func (e assertError) Error() string { return string(e) }
