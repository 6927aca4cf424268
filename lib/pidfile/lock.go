// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pidfile

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by [AcquireLock] when another process holds
// the lock.
var ErrLocked = errors.New("lock is held by another process")

// Lock is a held exclusive advisory lock.
type Lock struct {
	file *flock.Flock
}

// AcquireLock takes the exclusive lock at path without blocking. The
// file is created if needed. Returns ErrLocked when another process
// holds it.
func AcquireLock(path string) (*Lock, error) {
	file := flock.New(path)
	locked, err := file.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return &Lock{file: file}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.file.Path() }

// Release unlocks. The lock file is left in place.
func (l *Lock) Release() error {
	if err := l.file.Unlock(); err != nil {
		return fmt.Errorf("unlocking %s: %w", l.file.Path(), err)
	}
	return nil
}
