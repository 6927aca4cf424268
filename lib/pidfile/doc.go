// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pidfile manages the runtime files that make a hookd daemon a
// single instance: an advisory lock file, a PID file, and the ability
// to find and terminate competing daemon processes.
//
// The lock ([AcquireLock]) serializes startup. Only the holder may
// inspect the PID file, remove a stale socket, and bind. Lock files are
// never deleted: removing one while another process blocks on it would
// let a third process lock a fresh inode and both would proceed.
//
// The PID file is a single decimal line written atomically (temporary
// file, fsync, rename), so a reader sees either the old PID or the new
// one and never a partial write. [Remove] only deletes the file if it
// still names the caller's PID, so a daemon exiting late cannot delete
// its successor's file.
package pidfile
