// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle runs the hookd daemon process: it claims the
// single-instance lock, binds the Unix socket, writes the PID file,
// serves requests, and tears everything down again when the daemon
// has been idle for the configured timeout, when [Daemon.Stop] is
// called, or when the configuration file changes.
//
// A daemon moves through Stopped, Starting, Running, Stopping, and back
// to Stopped. Start fails with [ErrAlreadyRunning] when another daemon
// for the same identity holds the lock, owns the PID file, or has bound
// the socket; callers racing to start a daemon treat that as success
// and connect to the winner.
//
// The only state shared with the request path is the last-activity
// timestamp, stored atomically and refreshed on every accepted
// connection.
package lifecycle
