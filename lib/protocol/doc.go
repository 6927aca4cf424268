// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the hookd wire format.
//
// Each connection carries exactly one exchange: the client writes one
// JSON object followed by a newline, the daemon writes one JSON object
// followed by a newline, and the daemon closes the connection.
//
// Requests have the shape:
//
//	{"event": "PreToolUse", "hook_input": {...}}
//
// Responses depend on the event. Stop and SubagentStop use the flat
// shape the agent expects for those events:
//
//	{"decision": "block", "reason": "..."}
//
// with both keys omitted when the stop is allowed. Every other event
// uses hookSpecificOutput:
//
//	{"hookSpecificOutput": {"hookEventName": "PreToolUse",
//	    "permissionDecision": "deny", "additionalContext": "..."}}
//
// where permissionDecision is present only on denial and
// additionalContext only when there is text to show.
//
// The same shapes carry failures. [TransportError] answers requests
// that could not be read or parsed; [InternalError] answers requests
// whose handler chain aborted in strict mode.
package protocol
