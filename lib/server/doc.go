// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server serves the hookd wire protocol on a Unix socket.
//
// Each connection carries one exchange. The server reads one
// newline-terminated JSON request (a final unterminated document
// followed by EOF is accepted too), dispatches it, writes one
// newline-terminated response, and closes the connection. Every
// connection runs in its own goroutine; the dispatcher is immutable,
// so no locking is needed on the request path.
//
// Nothing escapes the connection boundary. Malformed requests, oversize
// requests, dispatch failures, encoding failures, and panics all become
// a best-effort response in the shape the agent expects for the event
// (see the protocol package), and the connection is closed.
//
// The server does not own its listener. The lifecycle package binds the
// socket, hands the listener to [Server.Serve], and is told about every
// accepted connection through [Options.OnActivity] so it can reset the
// idle clock.
package server
