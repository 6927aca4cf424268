// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is an error that carries its own exit status. Commands
// return one when they have already written their output and only the
// status remains to be reported.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitCode maps err to a process exit status: 0 for nil, the carried
// code for an [ExitCoder], and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Report writes "error: err" to w unless err is nil or an
// [ExitCoder], and returns the exit status for err.
func Report(w io.Writer, err error) int {
	code := ExitCode(err)
	var coder ExitCoder
	if err != nil && !errors.As(err, &coder) {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return code
}

// Exit reports err to stderr and exits with its status.
func Exit(err error) {
	os.Exit(Report(os.Stderr, err))
}
