// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process maps a command's error to the hookd binary's exit
// status and reports it on stderr.
package process
