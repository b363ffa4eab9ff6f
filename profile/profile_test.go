package profile

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCreatesNestedDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "profile")
	require.NoError(t, Ensure(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent on an existing directory.
	require.NoError(t, Ensure(dir))
}

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir, zerolog.Nop())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, lockFileName))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(data))

	require.NoError(t, lock.Release())
	_, err = os.Stat(filepath.Join(dir, lockFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireFailsWhileOwnerAlive(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir, zerolog.Nop())
	require.NoError(t, err)
	defer lock.Release()

	_, err = Acquire(dir, zerolog.Nop())
	assert.ErrorIs(t, err, ErrLocked)
}

func TestAcquireClearsStaleLock(t *testing.T) {
	dir := t.TempDir()

	// A finished child's pid is as close to "crashed previous instance" as a
	// test can get without racing pid reuse.
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	deadPid := cmd.Process.Pid

	lockPath := filepath.Join(dir, lockFileName)
	require.NoError(t, os.WriteFile(lockPath, []byte(fmt.Sprintf("%d\n", deadPid)), 0644))

	lock, err := Acquire(dir, zerolog.Nop())
	require.NoError(t, err)
	defer lock.Release()

	data, err := os.ReadFile(lockPath)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(data))
}

func TestCleanStaleRemovesSockets(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "wa-session.sock")
	keep := filepath.Join(dir, "session.db")
	require.NoError(t, os.WriteFile(sock, nil, 0644))
	require.NoError(t, os.WriteFile(keep, []byte("data"), 0644))

	CleanStale(dir, zerolog.Nop())

	_, err := os.Stat(sock)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(keep)
	assert.NoError(t, err)
}

func TestCleanStaleIgnoresGarbageLock(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, lockFileName)
	require.NoError(t, os.WriteFile(lockPath, []byte("not-a-pid"), 0644))

	CleanStale(dir, zerolog.Nop())

	// An unreadable lock is left alone; Acquire then reports it as held.
	_, err := os.Stat(lockPath)
	assert.NoError(t, err)
	_, err = Acquire(dir, zerolog.Nop())
	assert.ErrorIs(t, err, ErrLocked)
}
