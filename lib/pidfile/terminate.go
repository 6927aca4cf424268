// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pidfile

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/hookd/lib/clock"
)

// pollInterval is how often Terminate checks whether the process has
// exited.
const pollInterval = 50 * time.Millisecond

// Terminate sends SIGTERM to pid and waits up to grace for it to exit,
// then sends SIGKILL. A process that is already gone is not an error.
func Terminate(clk clock.Clock, pid int, grace time.Duration) error {
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("sending SIGTERM to %d: %w", pid, err)
	}

	deadline := clk.Now().Add(grace)
	for clk.Now().Before(deadline) {
		if !Alive(pid) {
			return nil
		}
		<-clk.After(pollInterval)
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("sending SIGKILL to %d: %w", pid, err)
	}
	return nil
}
