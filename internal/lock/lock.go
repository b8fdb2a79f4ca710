// Package lock provides single-instance admission control via a pidfile.
package lock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyActive reports a live owner holding the session lock.
var ErrAlreadyActive = errors.New("another dictation session is already active")

// Lock is one held session lock. Release must run on every exit path.
type Lock struct {
	path string
	pid  int
}

// DefaultPath resolves the well-known lock location for the current user.
func DefaultPath() string {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return filepath.Join(os.TempDir(), "dicto.pid")
	}
	return filepath.Join(runtimeDir, "dicto.pid")
}

// Acquire records the current process as session owner at path.
//
// A lock whose recorded owner is no longer executing is treated as stale
// and overridden; the override is logged so crashed sessions stay visible.
func Acquire(path string, logger *slog.Logger) (*Lock, error) {
	ownerPID, err := readOwner(path)
	if err == nil {
		if ownerAlive(ownerPID) {
			return nil, ErrAlreadyActive
		}
		if logger != nil {
			logger.Warn("lock stale override", "path", path, "stale_pid", ownerPID)
		}
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock %s: %w", path, removeErr)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}

	pid := os.Getpid()
	// O_EXCL closes the race between two sessions starting at once.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrAlreadyActive
		}
		return nil, fmt.Errorf("create lock %s: %w", path, err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", pid); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close lock %s: %w", path, err)
	}

	return &Lock{path: path, pid: pid}, nil
}

// Release removes the lock when still owned by this process.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	ownerPID, err := readOwner(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if ownerPID != l.pid {
		// Someone else overrode a lock they judged stale; leave theirs alone.
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}

// readOwner parses the owner PID recorded at path.
func readOwner(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("lock %s holds malformed owner %q", path, strings.TrimSpace(string(content)))
	}
	return pid, nil
}

// ownerAlive checks owner liveness with a zero signal.
func ownerAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists under another user.
	return errors.Is(err, syscall.EPERM)
}
