// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hook defines the data model shared by every part of hookd:
// the closed set of lifecycle [EventType] values the coding agent can
// send, the immutable [Event] built once per request, the [Handler]
// capability set, and the decisions handlers and chains produce.
//
// A handler is any value implementing [Handler]. Built-in handlers
// embed [Base] for the identity fields that come from configuration
// (ID, priority, terminal flag, tags) and implement Matches and Handle
// themselves. Matches must be a pure predicate. Handle may log but must
// return quickly: it runs synchronously inside a request the agent is
// blocked on, so it must not perform network I/O or wait on unbounded
// subprocesses.
//
// [PartialResult] is what one handler returns; [Result] is what a
// whole chain returns. The dispatch package owns the rules that fold
// the former into the latter.
//
// This package depends on no other hookd packages.
package hook
