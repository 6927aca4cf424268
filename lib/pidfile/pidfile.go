// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pidfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrInvalid is returned by [Read] when the PID file does not hold a
// positive decimal PID.
var ErrInvalid = errors.New("invalid PID file")

// Write atomically writes pid to path with mode 0600. The parent
// directory must exist.
func Write(path string, pid int) error {
	data := []byte(strconv.Itoa(pid) + "\n")
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating temporary PID file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary PID file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary PID file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary PID file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming PID file into place: %w", err)
	}

	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}

// Read parses the PID in path. A missing file returns an error
// wrapping fs.ErrNotExist.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %s contains %q", ErrInvalid, path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// Live reads path and reports whether the recorded process exists. A
// missing, empty, or corrupt PID file is reported as not alive with no
// error: all of those mean no daemon owns the file.
func Live(path string) (pid int, alive bool, err error) {
	pid, err = Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrInvalid) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return pid, Alive(pid), nil
}

// Remove deletes path if it still records pid. A missing file is not
// an error.
func Remove(path string, pid int) error {
	recorded, err := Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if errors.Is(err, ErrInvalid) {
		return removeIfExists(path)
	}
	if err != nil {
		return err
	}
	if recorded != pid {
		return nil
	}
	return removeIfExists(path)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Alive reports whether a process with pid exists. EPERM means the
// process exists but belongs to another user.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
