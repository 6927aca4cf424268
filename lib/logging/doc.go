// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging constructs the structured loggers used by hookd.
//
// Output to a terminal uses slog's text handler; anything else (the
// daemon log file, a pipe to the agent) uses the JSON handler so logs
// stay machine-parseable. Loggers are passed explicitly; only main calls
// slog.SetDefault.
package logging
