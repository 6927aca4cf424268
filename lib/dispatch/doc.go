// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch implements the per-event handler chain.
//
// A [Controller] owns the handlers for one event type, sorted once at
// construction by ascending priority (ties keep configuration order).
// [Controller.Dispatch] walks the chain: handlers whose Matches returns
// false are skipped, every matching handler's context is accumulated,
// and the first matching terminal handler ends the chain with its own
// decision and reason. Non-terminal handlers can annotate but never
// block.
//
// Handler failures (an error from Handle, or a panic in Matches or
// Handle) are recovered. By default they are logged and the handler is
// treated as a non-match so the agent is not blocked by a policy bug.
// In strict mode the chain stops and Dispatch returns a
// [*HandlerError]; callers turn that into an internal-error response.
//
// An [Engine] holds one Controller per [hook.EventType]. It is built
// eagerly at daemon start, so every configuration problem surfaces
// before the daemon accepts connections. Controllers are immutable
// after construction and safe for concurrent Dispatch calls.
package dispatch
