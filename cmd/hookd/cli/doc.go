// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command-line framework for the hookd binary.
//
// A [Command] is a named node with optional [Command.Subcommands], a
// [pflag.FlagSet] factory, and a Run function. [Command.Execute]
// parses flags, routes to subcommands, and prints help. Unknown
// commands and flags get a suggestion when one is within edit
// distance 3.
package cli
