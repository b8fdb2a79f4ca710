package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RuntimeSocketPath resolves the per-user control socket location.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return filepath.Join(os.TempDir(), "dicto.sock"), nil
	}
	return filepath.Join(runtimeDir, "dicto.sock"), nil
}

// Listen binds the control socket, clearing a stale socket file when no
// responsive owner is behind it.
func Listen(ctx context.Context, path string, probeTimeout time.Duration) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err == nil {
		_ = os.Chmod(path, 0o600)
		return listener, nil
	}
	if !isAddrInUse(err) {
		return nil, fmt.Errorf("listen unix %s: %w", path, err)
	}

	alive, probeErr := Probe(ctx, path, probeTimeout)
	if alive {
		return nil, fmt.Errorf("control socket %s has a live owner", path)
	}
	if probeErr != nil {
		return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
	}

	if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, removeErr)
	}

	listener, err = net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen unix %s: %w", path, err)
	}
	_ = os.Chmod(path, 0o600)
	return listener, nil
}

func isAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "address already in use")
}
