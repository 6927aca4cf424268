// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies Unix socket errors for the hookd server
// and forwarder.
package netutil
