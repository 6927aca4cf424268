// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client forwards hook events to the hookd daemon, starting
// the daemon on demand.
//
// Each [Client.Send] is one connection and one exchange. When nothing
// is listening on the socket (the file is missing or the connection is
// refused), the client asks its [Starter] to launch a daemon and
// retries with exponential backoff until the start timeout. Several
// forwarders racing to start a daemon is expected: one wins the
// daemon's lock and the others' daemons exit, while every forwarder
// keeps retrying until the winner answers.
package client
