// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package handlers provides hookd's built-in handlers and the factory
// registry that turns configuration into handler chains.
//
// Each built-in is described by a [Factory]: a stable ID, the event
// types it may be attached to, its default priority and tags, whether
// it is terminal, and a constructor that decodes the handler's typed
// options. [Builtin] returns the registry of every built-in;
// [Registry.Build] reads the handlers section of a configuration and
// produces one handler list per event type, and [BuildEngine] wraps
// the result in a dispatch.Engine.
//
// Building is all-or-nothing. An unknown handler ID, a handler attached
// to an event it does not support, an unknown option key, or an invalid
// option value fails the whole build, so a daemon never starts with a
// partial policy.
//
// Built-in handlers:
//
//	destructive-git   PreToolUse        terminal  10  safety, git
//	dangerous-rm      PreToolUse        terminal  20  safety
//	tdd-enforcement   PreToolUse        terminal  30  tdd, workflow
//	test-reminder     PostToolUse                 50  tdd, advisory
//	session-context   SessionStart                50  context
//	prompt-guard      UserPromptSubmit  terminal  10  safety
//	notification-log  Notification               100  logging
//	stop-guard        Stop, SubagentStop terminal 10  workflow
package handlers
