package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// errLocked means another invocation holds the lock.
var errLocked = errors.New("another optdesk run holds the lock")

// lockFile is an advisory lock serializing scheduled invocations and the
// daemon. The kernel drops it when the holding process exits, so a crashed
// run never leaves a lock behind.
type lockFile struct {
	fl *flock.Flock
}

// acquireLock takes the lock at path without blocking. The holder's pid is
// written into the file for diagnostics.
func acquireLock(path string) (*lockFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !ok {
		return nil, errLocked
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("recording lock holder: %w", err)
	}
	return &lockFile{fl: fl}, nil
}

// Release drops the lock. The file stays in place; removing it would let a
// waiter lock an unlinked inode.
func (l *lockFile) Release() error {
	return l.fl.Unlock()
}

// holder returns the pid recorded in the lock at path, or 0.
func holder(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	line, _, _ := strings.Cut(string(data), "\n")
	pid, _ := strconv.Atoi(strings.TrimSpace(line))
	return pid
}
