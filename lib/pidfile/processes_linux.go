// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pidfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FindProcesses returns the PIDs of every process, other than the
// caller, whose argument vector satisfies match. Processes that exit
// or become unreadable during the scan are skipped.
func FindProcesses(match func(argv []string) bool) ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("listing /proc: %w", err)
	}

	self := os.Getpid()
	var pids []int
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid == self {
			continue
		}
		cmdline, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "cmdline"))
		if err != nil || len(cmdline) == 0 {
			continue
		}
		if match(splitCmdline(cmdline)) {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// splitCmdline splits /proc/<pid>/cmdline on NUL separators.
func splitCmdline(cmdline []byte) []string {
	cmdline = bytes.TrimRight(cmdline, "\x00")
	fields := bytes.Split(cmdline, []byte{0})
	argv := make([]string, len(fields))
	for i, field := range fields {
		argv[i] = string(field)
	}
	return argv
}
