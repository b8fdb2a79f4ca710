package ipc

import (
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func echoHandler() Handler {
	return HandlerFunc(func(_ context.Context, req Request) Response {
		if req.Command == "boom" {
			return Response{OK: false, Error: "boom rejected"}
		}
		return Response{OK: true, State: "recording", Message: "got " + req.Command}
	})
}

func startServer(t *testing.T) (string, context.CancelFunc) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dicto.sock")
	ctx, cancel := context.WithCancel(context.Background())

	listener, err := Listen(ctx, path, 100*time.Millisecond)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = Serve(ctx, listener, echoHandler())
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return path, cancel
}

func TestSendRoundTrip(t *testing.T) {
	path, _ := startServer(t)

	resp, err := Send(context.Background(), path, Request{Command: "status"}, time.Second)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "recording", resp.State)
	require.Equal(t, "got status", resp.Message)
}

func TestSendErrorResponse(t *testing.T) {
	path, _ := startServer(t)

	resp, err := Send(context.Background(), path, Request{Command: "boom"}, time.Second)
	require.NoError(t, err)
	require.False(t, resp.OK)
	require.Equal(t, "boom rejected", resp.Error)
}

func TestSendMissingSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sock")

	_, err := Send(context.Background(), path, Request{Command: "status"}, 100*time.Millisecond)
	require.Error(t, err)
	require.True(t, IsSocketMissing(err))
}

func TestProbe(t *testing.T) {
	path, cancel := startServer(t)

	alive, err := Probe(context.Background(), path, time.Second)
	require.NoError(t, err)
	require.True(t, alive)

	cancel()
	// Give the listener a moment to close; the socket file then refuses.
	require.Eventually(t, func() bool {
		alive, probeErr := Probe(context.Background(), path, 100*time.Millisecond)
		return probeErr == nil && !alive
	}, 2*time.Second, 50*time.Millisecond)
}

func TestListenClearsStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dicto.sock")

	// Simulate a crashed owner: bind, then close without unlinking so
	// the socket file stays behind with nobody listening.
	stale, err := net.Listen("unix", path)
	require.NoError(t, err)
	stale.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, stale.Close())

	listener, err := Listen(context.Background(), path, 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, listener.Close())
}

func TestListenRefusesLiveOwner(t *testing.T) {
	path, _ := startServer(t)

	_, err := Listen(context.Background(), path, time.Second)
	require.Error(t, err)
	require.Contains(t, err.Error(), "live owner")
}
