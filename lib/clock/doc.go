// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the few time operations hookd performs so
// that the idle monitor, the client's start-and-retry loop, and the
// single-daemon enforcement grace period can be tested without
// sleeping.
//
// Production code takes a [Clock] and is handed [Real]. Tests hand it
// a [FakeClock] from [Fake] and drive time explicitly:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	manager := lifecycle.New(..., lifecycle.WithClock(fake))
//	go manager.Serve(ctx)
//	fake.WaitForTimers(1)          // idle ticker registered
//	fake.Advance(601 * time.Second) // ticker fires, daemon goes idle
//
// WaitForTimers closes the race between a goroutine registering a
// ticker or sleep and the test advancing past it.
package clock
