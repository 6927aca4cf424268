// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/bureau-foundation/hookd/lib/logging"
)

// Starter launches a daemon. Returning [lifecycle.ErrAlreadyRunning]
// counts as success.
type Starter interface {
	Start(ctx context.Context) error
}

// StarterFunc adapts a function to [Starter].
type StarterFunc func(ctx context.Context) error

func (f StarterFunc) Start(ctx context.Context) error { return f(ctx) }

// ExecStarter runs the daemon as a detached process in its own
// session, so it outlives the forwarder and is not killed with the
// agent's process group.
type ExecStarter struct {
	// Executable is the hookd binary. Empty means the running binary.
	Executable string

	// Args follow the executable, e.g. daemon run --project <root>.
	Args []string

	// Dir is the daemon's working directory.
	Dir string

	// LogPath receives the daemon's stderr, appended. Empty discards
	// it.
	LogPath string
}

// Start spawns the daemon and returns without waiting for it to
// listen.
func (s ExecStarter) Start(ctx context.Context) error {
	command, err := s.command()
	if err != nil {
		return err
	}

	if s.LogPath != "" {
		logFile, err := logging.OpenFile(s.LogPath)
		if err != nil {
			return err
		}
		// The child holds its own descriptor once started.
		defer logFile.Close()
		command.Stderr = logFile
	}

	if err := command.Start(); err != nil {
		return fmt.Errorf("spawning %s: %w", command.Path, err)
	}
	// Not waited for: the daemon outlives this process and is
	// reparented when it exits.
	return command.Process.Release()
}

func (s ExecStarter) command() (*exec.Cmd, error) {
	executable := s.Executable
	if executable == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating hookd executable: %w", err)
		}
		executable = self
	}

	// Not exec.CommandContext: the daemon must survive the forwarder's
	// context.
	command := exec.Command(executable, s.Args...)
	command.Dir = s.Dir
	command.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return command, nil
}
