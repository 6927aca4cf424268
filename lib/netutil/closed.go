// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"io/fs"
	"net"

	"golang.org/x/sys/unix"
)

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, or connection
// reset. A hook client that gives up on a response (the agent's hook
// timeout) produces EPIPE or ECONNRESET on the server's write; neither
// is worth more than a debug line.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return errors.Is(err, unix.EPIPE) || errors.Is(err, unix.ECONNRESET)
}

// IsNoListener reports whether a dial error means nothing is serving
// the socket: the socket file is missing (ENOENT) or nobody is
// accepting on it (ECONNREFUSED). Both are what a client sees while a
// daemon is stopped or restarting.
func IsNoListener(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, unix.ECONNREFUSED) ||
		errors.Is(err, unix.ENOENT) ||
		errors.Is(err, fs.ErrNotExist)
}
