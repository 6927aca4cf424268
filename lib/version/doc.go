// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the hookd binary.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] may be injected
// with -ldflags -X. When they are not, the commit and dirty flag come
// from the VCS stamp the Go toolchain embeds in the binary, if any.
//
// [SelfHash] fingerprints the running executable, so a forwarder and
// the daemon it talks to can be told apart when the binary was
// replaced underneath a running daemon.
package version
