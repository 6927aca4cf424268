// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/hookd/cmd/hookd/cli"
	"github.com/bureau-foundation/hookd/lib/client"
	"github.com/bureau-foundation/hookd/lib/clock"
	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/identity"
	"github.com/bureau-foundation/hookd/lib/pidfile"
	"github.com/bureau-foundation/hookd/lib/version"
)

// ProjectEnvVar is set by the agent for hook commands and names the
// project directory.
const ProjectEnvVar = "CLAUDE_PROJECT_DIR"

// stopGrace is how long daemon stop waits after SIGTERM.
const stopGrace = 5 * time.Second

// App holds the process-level dependencies of the command tree.
type App struct {
	Context context.Context
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer

	// Logger is for the short-lived commands. The daemon builds its
	// own from the configured level.
	Logger *slog.Logger

	// NewStarter returns the daemon starter for env. Nil spawns this
	// executable with "daemon run".
	NewStarter func(env *Environment) client.Starter

	// Terminate stops the daemon process pid. Nil sends SIGTERM, then
	// SIGKILL after a grace period.
	Terminate func(pid int) error

	// Hostname returns the hostname for the daemon identity. Nil uses
	// identity.Hostname.
	Hostname func() string
}

// NewApp returns an App wired to the process's standard streams.
func NewApp(ctx context.Context, logger *slog.Logger) *App {
	return &App{Context: ctx, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Logger: logger}
}

// Environment is what every command resolves before acting.
type Environment struct {
	ProjectRoot string
	Config      *config.Config
	Identity    identity.Identity
}

// resolve finds the project root, loads its configuration, and derives
// the daemon identity.
func (a *App) resolve(project string) (*Environment, error) {
	return a.resolveAs(project, "")
}

// resolveAs is resolve with the identity hostname fixed by the caller.
// An empty hostname is looked up.
func (a *App) resolveAs(project, hostname string) (*Environment, error) {
	root, err := projectRoot(project)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	id, err := identity.FromEnvironmentAs(root, cfg.Daemon.RuntimeDir, a.hostname(hostname))
	if err != nil {
		return nil, err
	}
	return &Environment{ProjectRoot: root, Config: cfg, Identity: id}, nil
}

func (a *App) hostname(fixed string) string {
	switch {
	case fixed != "":
		return fixed
	case a.Hostname != nil:
		return a.Hostname()
	default:
		return identity.Hostname()
	}
}

func projectRoot(project string) (string, error) {
	if project == "" {
		project = os.Getenv(ProjectEnvVar)
	}
	if project != "" {
		return identity.FindProjectRoot(project)
	}
	working, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return identity.FindProjectRoot(working)
}

func (a *App) client(env *Environment) *client.Client {
	return client.New(client.Options{
		SocketPath: env.Identity.SocketPath,
		Starter:    a.starter(env),
		Logger:     a.Logger,
	})
}

func (a *App) starter(env *Environment) client.Starter {
	if a.NewStarter != nil {
		return a.NewStarter(env)
	}
	return client.ExecStarter{
		Args:    daemonArgs(env),
		Dir:     env.ProjectRoot,
		LogPath: env.Identity.LogPath,
	}
}

// daemonArgs is the command line that runs the daemon for env. The
// resolved hostname is passed along: when it was synthesized, the
// daemon could not derive the same one itself.
func daemonArgs(env *Environment) []string {
	return []string{"daemon", "run", "--project", env.ProjectRoot, "--hostname", env.Identity.Hostname}
}

func (a *App) terminate(pid int) error {
	if a.Terminate != nil {
		return a.Terminate(pid)
	}
	return pidfile.Terminate(clock.Real(), pid, stopGrace)
}

// projectFlags returns a flag set carrying --project.
func projectFlags(name string, project *string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVarP(project, "project", "p", "", "project root (default: $"+ProjectEnvVar+" or the nearest directory with .hookd or .git)")
	return flagSet
}

// Root builds the hookd command tree.
func Root(app *App) *cli.Command {
	return &cli.Command{
		Name: "hookd",
		Description: `hookd: a per-project hook daemon for coding agents.

Agent hooks run "hookd forward <Event>", which hands the hook input to
the project's daemon over a Unix socket and prints its decision. The
daemon starts on the first event and exits after an idle period.`,
		HelpOutput: app.Stderr,
		Examples: []cli.Example{
			{Description: "Forward a PreToolUse hook (agent hook command)", Command: "hookd forward PreToolUse"},
			{Description: "Show the handler chains the current configuration builds", Command: "hookd config check"},
		},
		Subcommands: []*cli.Command{
			forwardCommand(app),
			daemonCommand(app),
			configCommand(app),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func([]string) error {
					fmt.Fprintf(app.Stdout, "hookd %s\n", version.Full())
					if hash, err := version.SelfHash(); err == nil {
						fmt.Fprintf(app.Stdout, "  Binary: blake3:%s\n", hash)
					}
					return nil
				},
			},
		},
	}
}
