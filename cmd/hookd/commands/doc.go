// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the hookd command tree.
//
// Every command resolves the same environment: the project root (the
// --project flag, else $CLAUDE_PROJECT_DIR, else the nearest ancestor
// of the working directory holding .hookd or .git), its configuration,
// and the daemon identity derived from both. The forwarder and the
// daemon it lazily starts therefore always agree on the socket path.
package commands
