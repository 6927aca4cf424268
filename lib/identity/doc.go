// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity computes where a hookd daemon lives.
//
// A daemon is scoped to a (project root, hostname) pair. Its runtime
// files sit together in one directory:
//
//	<project>/.hookd/run/daemon-<host>.sock
//	<project>/.hookd/run/daemon-<host>.pid
//	<project>/.hookd/run/daemon-<host>.lock
//	<project>/.hookd/run/daemon-<host>.log
//
// Including the hostname keeps two machines sharing a project
// directory (a network home, a synced checkout) from fighting over one
// socket.
//
// Unix socket paths are limited to 108 bytes including the trailing
// NUL. When the project root is deep enough that the socket path would
// exceed that, the runtime directory moves to a per-user location keyed
// by a BLAKE3 hash of the project root:
//
//	$XDG_RUNTIME_DIR/hookd/<hash>/   (or ~/.cache/hookd/<hash>/)
//
// [Resolve] is a pure function of its inputs. [FromEnvironment] gathers
// those inputs from the running process. The resulting [Identity] is
// built once in main and passed to every component that needs a path.
package identity
