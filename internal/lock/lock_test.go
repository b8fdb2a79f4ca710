package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func lockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "dicto.pid")
}

func TestAcquireAndRelease(t *testing.T) {
	path := lockPath(t)

	l, err := Acquire(path, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(content))

	require.NoError(t, l.Release())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestSecondAcquireFails(t *testing.T) {
	path := lockPath(t)

	l, err := Acquire(path, nil)
	require.NoError(t, err)
	defer func() { _ = l.Release() }()

	// The first owner is this very process, which is definitely alive.
	_, err = Acquire(path, nil)
	require.ErrorIs(t, err, ErrAlreadyActive)
}

func TestStaleLockIsOverridden(t *testing.T) {
	path := lockPath(t)

	// Spawn and reap a child so its PID is known-dead.
	child, err := os.StartProcess("/bin/true", []string{"true"}, &os.ProcAttr{})
	require.NoError(t, err)
	_, err = child.Wait()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("%d\n", child.Pid)), 0o600))

	l, err := Acquire(path, nil)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestMalformedLockFails(t *testing.T) {
	path := lockPath(t)
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0o600))

	_, err := Acquire(path, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed owner")
}

func TestReleaseLeavesForeignLockAlone(t *testing.T) {
	path := lockPath(t)

	l, err := Acquire(path, nil)
	require.NoError(t, err)

	// Another process overrode the lock; Release must not remove theirs.
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o600))
	require.NoError(t, l.Release())

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestReleaseNilLock(t *testing.T) {
	var l *Lock
	require.NoError(t, l.Release())
}
