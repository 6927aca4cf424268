// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for hookd packages.
//
// [SocketDir] and [ProjectDir] create short directories under /tmp.
// Unix domain socket paths are limited to 108 bytes, and t.TempDir()
// nests deeply enough under some runners to exceed that, so any test
// that binds a socket takes its directory from here.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so that tests never block forever on a channel. They are the
// only place test code uses a real wall-clock timeout; everything else
// drives time through clock.Fake.
//
// All helpers call t.Fatalf on failure rather than returning errors.
//
// This package has no hookd-internal dependencies.
package testutil
