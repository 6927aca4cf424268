// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package pidfile

// FindProcesses has no process table to scan on this platform. Single
// daemon enforcement falls back to the PID recorded in the PID file.
func FindProcesses(match func(argv []string) bool) ([]int, error) {
	return nil, nil
}
