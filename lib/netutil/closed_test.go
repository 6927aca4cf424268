// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestIsExpectedCloseError(t *testing.T) {
	for _, test := range []struct {
		err  error
		want bool
	}{
		{nil, false},
		{io.EOF, true},
		{fmt.Errorf("reading: %w", io.EOF), true},
		{net.ErrClosed, true},
		{&net.OpError{Op: "write", Err: os.NewSyscallError("write", unix.EPIPE)}, true},
		{&net.OpError{Op: "read", Err: os.NewSyscallError("read", unix.ECONNRESET)}, true},
		{errors.New("something else"), false},
		{unix.ECONNREFUSED, false},
	} {
		if got := IsExpectedCloseError(test.err); got != test.want {
			t.Errorf("IsExpectedCloseError(%v) = %v, want %v", test.err, got, test.want)
		}
	}
}

func TestIsNoListener(t *testing.T) {
	directory := t.TempDir()

	// Missing socket file.
	_, err := net.Dial("unix", filepath.Join(directory, "missing.sock"))
	if !IsNoListener(err) {
		t.Errorf("dial of missing socket: IsNoListener(%v) = false", err)
	}

	// Socket file with no listener behind it.
	socketPath := filepath.Join(directory, "stale.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatal(err)
	}
	listener.(*net.UnixListener).SetUnlinkOnClose(false)
	listener.Close()
	_, err = net.Dial("unix", socketPath)
	if !IsNoListener(err) {
		t.Errorf("dial of stale socket: IsNoListener(%v) = false", err)
	}

	if IsNoListener(nil) || IsNoListener(unix.EACCES) {
		t.Error("IsNoListener accepted an unrelated error")
	}
}
