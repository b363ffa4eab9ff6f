// Package profile manages the on-disk directory that holds persisted session
// material. The directory is owned by exactly one process at a time; a pid
// lock file enforces that, and locks left behind by a crashed process are
// cleared so they cannot block the next start.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
)

const (
	lockFileName     = "session.lock"
	staleSocketGlob  = "wa-*.sock"
	lockFilePermBits = 0644
)

// ErrLocked is returned when another live process holds the profile lock.
var ErrLocked = errors.New("profile directory is locked by another process")

// Ensure creates the profile directory, recursively, if it does not exist.
func Ensure(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// Lock represents exclusive ownership of a profile directory.
type Lock struct {
	path string
}

// Acquire takes ownership of the profile directory. Stale artifacts from a
// dead owner are removed first, best-effort; a lock held by a live process
// fails with ErrLocked.
func Acquire(dir string, log zerolog.Logger) (*Lock, error) {
	CleanStale(dir, log)

	path := filepath.Join(dir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, lockFilePermBits)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to create profile lock: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write profile lock: %w", err)
	}
	return &Lock{path: path}, nil
}

// Release drops ownership. Safe to call once at shutdown.
func (l *Lock) Release() error {
	return os.Remove(l.path)
}

// CleanStale removes lock and socket artifacts left by a previous process
// that is no longer alive. Failures are logged, never fatal: the worst case
// is that the subsequent Acquire reports the directory as locked.
func CleanStale(dir string, log zerolog.Logger) {
	path := filepath.Join(dir, lockFileName)
	if pid, ok := readLockPid(path); ok && !processAlive(pid) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove stale profile lock")
		} else {
			log.Info().Int("pid", pid).Msg("removed stale profile lock")
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, staleSocketGlob))
	if err != nil {
		return
	}
	for _, sock := range matches {
		if err := os.Remove(sock); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", sock).Msg("failed to remove stale socket")
		}
	}
}

func readLockPid(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processAlive reports whether pid refers to a running process. Signal 0
// probes existence without delivering anything.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
