// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command hookd is a per-project hook daemon for coding agents. See
// "hookd --help".
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/hookd/cmd/hookd/commands"
	"github.com/bureau-foundation/hookd/lib/logging"
	"github.com/bureau-foundation/hookd/lib/process"
)

func main() {
	process.Exit(run())
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := commands.NewApp(ctx, logging.NewCommandLogger())
	return commands.Root(app).Execute(os.Args[1:])
}
