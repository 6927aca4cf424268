// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/hookd/cmd/hookd/cli"
	"github.com/bureau-foundation/hookd/lib/protocol"
	"github.com/bureau-foundation/hookd/lib/server"
)

func forwardCommand(app *App) *cli.Command {
	var project string
	return &cli.Command{
		Name:    "forward",
		Summary: "Send one hook event to the daemon and print its response",
		Description: `Read the hook input from stdin, send it to the project's daemon
(starting the daemon if it is not running), and print the response
JSON on stdout.

When the daemon cannot be reached the command still prints a response
in the event's shape: Stop and SubagentStop are blocked, every other
event is allowed with a warning in additionalContext.`,
		Usage:   "hookd forward <Event> [flags] < hook-input.json",
		Flags:   func() *pflag.FlagSet { return projectFlags("forward", &project) },
		Examples: []cli.Example{
			{Command: `echo '{"tool_name":"Bash","tool_input":{"command":"ls"}}' | hookd forward PreToolUse`},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("forward takes exactly one event name, got %d arguments", len(args))
			}
			return app.forward(args[0], project)
		},
	}
}

func (a *App) forward(event, project string) error {
	input, err := io.ReadAll(io.LimitReader(a.Stdin, server.DefaultMaxRequestSize))
	if err != nil {
		return a.writeResponse(protocol.TransportError(event, fmt.Errorf("reading hook input: %w", err)))
	}

	env, err := a.resolve(project)
	if err != nil {
		a.Logger.Warn("resolving hookd environment", "event", event, "error", err)
		return a.writeResponse(protocol.TransportError(event, err))
	}
	if err := env.Identity.EnsureRuntimeDir(); err != nil {
		return a.writeResponse(protocol.TransportError(event, err))
	}

	response, err := a.client(env).Send(a.Context, event, input)
	if err != nil {
		a.Logger.Warn("forwarding hook event", "event", event, "socket", env.Identity.SocketPath, "error", err)
		return a.writeResponse(protocol.TransportError(event, err))
	}
	return a.writeResponse(response)
}

func (a *App) writeResponse(response []byte) error {
	framed := append(append([]byte{}, response...), '\n')
	_, err := a.Stdout.Write(framed)
	return err
}
