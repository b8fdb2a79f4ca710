package app

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhromadka/dicto/internal/ipc"
	"github.com/stretchr/testify/require"
)

func isolateState(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestExecuteHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, ExitOK, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, &stdout, &stderr)
	require.Equal(t, ExitOK, exitCode)
	require.Contains(t, stdout.String(), "dicto")
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, &stdout, &stderr)
	require.Equal(t, ExitUsage, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
	require.Contains(t, stderr.String(), "Usage:")
}

func TestExecuteStopWithoutSession(t *testing.T) {
	isolateState(t)
	var stdout, stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"stop"}, &stdout, &stderr)
	require.Equal(t, ExitNoSession, exitCode)
	require.Contains(t, stdout.String(), "nothing to stop")
}

func TestExecuteLangRoundTrip(t *testing.T) {
	isolateState(t)
	var stdout, stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"lang", "cs"}, &stdout, &stderr)
	require.Equal(t, ExitOK, exitCode)
	require.Contains(t, stdout.String(), "Czech")

	stdout.Reset()
	exitCode = Execute(context.Background(), []string{"lang"}, &stdout, &stderr)
	require.Equal(t, ExitOK, exitCode)
	require.Contains(t, stdout.String(), "* cs   Czech")
	require.Contains(t, stdout.String(), "  auto Auto-detect")
	require.Contains(t, stdout.String(), "  en   English")
}

func TestExecuteLangRejectsUnknownCode(t *testing.T) {
	isolateState(t)
	var stdout, stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"lang", "fr"}, &stdout, &stderr)
	require.Equal(t, ExitUsage, exitCode)
	require.Contains(t, stderr.String(), "unsupported language")
}

func TestExecuteStopForwardsToLiveSession(t *testing.T) {
	isolateState(t)

	socketPath, err := ipc.RuntimeSocketPath()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := ipc.Listen(ctx, socketPath, 100*time.Millisecond)
	require.NoError(t, err)

	var got string
	var mu sync.Mutex
	go func() {
		_ = ipc.Serve(ctx, listener, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
			mu.Lock()
			got = req.Command
			mu.Unlock()
			return ipc.Response{OK: true, State: "draining", Message: "stopping"}
		}))
	}()

	var stdout, stderr bytes.Buffer
	exitCode := Execute(context.Background(), []string{"stop"}, &stdout, &stderr)
	require.Equal(t, ExitOK, exitCode)
	require.Contains(t, stdout.String(), "stopping")

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "stop", got)
}

func TestExecuteStatusForwardsToLiveSession(t *testing.T) {
	isolateState(t)

	socketPath, err := ipc.RuntimeSocketPath()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := ipc.Listen(ctx, socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	go func() {
		_ = ipc.Serve(ctx, listener, ipc.HandlerFunc(func(_ context.Context, _ ipc.Request) ipc.Response {
			return ipc.Response{OK: true, State: "recording", Engine: "elevenlabs", Lang: "auto"}
		}))
	}()

	var stdout, stderr bytes.Buffer
	exitCode := Execute(context.Background(), []string{"status"}, &stdout, &stderr)
	require.Equal(t, ExitOK, exitCode)
	require.Contains(t, stdout.String(), "recording")
	require.Contains(t, stdout.String(), "engine=elevenlabs")
	require.Contains(t, stdout.String(), "lang=auto")
}
