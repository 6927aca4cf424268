// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/hookd/cmd/hookd/cli"
	"github.com/bureau-foundation/hookd/lib/client"
	"github.com/bureau-foundation/hookd/lib/handlers"
	"github.com/bureau-foundation/hookd/lib/lifecycle"
	"github.com/bureau-foundation/hookd/lib/logging"
	"github.com/bureau-foundation/hookd/lib/pidfile"
	"github.com/bureau-foundation/hookd/lib/strategy"
	"github.com/bureau-foundation/hookd/lib/version"
)

// Exit codes for daemon commands. 3 follows the LSB convention for
// "program is not running".
const (
	exitAlreadyRunning = 2
	exitNotRunning     = 3
)

func daemonCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:    "daemon",
		Summary: "Run and control the project's daemon",
		Subcommands: []*cli.Command{
			daemonRunCommand(app),
			daemonStartCommand(app),
			daemonStopCommand(app),
			daemonStatusCommand(app),
			daemonRestartCommand(app),
		},
	}
}

func daemonRunCommand(app *App) *cli.Command {
	var project, hostname string
	return &cli.Command{
		Name:    "run",
		Summary: "Run the daemon in the foreground",
		Description: `Run the daemon in the foreground until it has been idle for
daemon.idle_timeout_seconds, it receives SIGTERM or SIGINT, or its
configuration file changes. Exits with status 2 when another daemon
already serves the project.`,
		Flags: func() *pflag.FlagSet {
			flagSet := projectFlags("run", &project)
			flagSet.StringVar(&hostname, "hostname", "", "identity hostname chosen by the process that started the daemon")
			_ = flagSet.MarkHidden("hostname")
			return flagSet
		},
		Run: func([]string) error {
			return app.daemonRun(project, hostname)
		},
	}
}

func (a *App) daemonRun(project, hostname string) error {
	env, err := a.resolveAs(project, hostname)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Output: a.Stderr, Level: env.Config.Daemon.LogLevel})
	if err != nil {
		return err
	}
	logger = logger.With("project", env.ProjectRoot, "host", env.Identity.Hostname)

	engine, err := handlers.BuildEngine(env.Config, handlers.Builtin(), handlers.BuildContext{
		Identity:   env.Identity,
		Strategies: strategy.Default(),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("building handlers: %w", err)
	}

	daemon, err := lifecycle.New(lifecycle.Options{
		Identity:   env.Identity,
		Config:     env.Config,
		Dispatcher: engine,
		Logger:     logger,
		IsDaemon:   daemonMatcher(env.ProjectRoot),
	})
	if err != nil {
		return err
	}

	logger.Info("hookd daemon starting",
		"version", version.Short(),
		"binary", binaryFingerprint(logger, version.SelfHash),
		"config", env.Config.Source,
	)

	err = daemon.Run(a.Context)
	if errors.Is(err, lifecycle.ErrAlreadyRunning) {
		logger.Info("another daemon serves this project", "reason", err)
		return &cli.ExitError{Code: exitAlreadyRunning}
	}
	return err
}

// binaryFingerprint returns the running binary's hash for the startup
// log, or "unknown" with the reason logged at debug.
func binaryFingerprint(logger *slog.Logger, hash func() (string, error)) string {
	fingerprint, err := hash()
	if err != nil {
		logger.Debug("fingerprinting daemon binary", "error", err)
		return "unknown"
	}
	return fingerprint
}

// daemonMatcher recognizes the command line of a daemon for
// projectRoot: this executable, "daemon run", and the same --project.
func daemonMatcher(projectRoot string) func(argv []string) bool {
	self := filepath.Base(os.Args[0])
	return func(argv []string) bool {
		if len(argv) < 3 || filepath.Base(argv[0]) != self || argv[1] != "daemon" || argv[2] != "run" {
			return false
		}
		return flagValue(argv[3:], "project", "p") == projectRoot
	}
}

// flagValue extracts a string flag's value from raw arguments.
func flagValue(args []string, long, short string) string {
	for i, arg := range args {
		for _, name := range []string{"--" + long, "-" + short} {
			if arg == name && i+1 < len(args) {
				return args[i+1]
			}
			if value, found := strings.CutPrefix(arg, name+"="); found {
				return value
			}
		}
	}
	return ""
}

func daemonStartCommand(app *App) *cli.Command {
	var project string
	return &cli.Command{
		Name:    "start",
		Summary: "Start the daemon in the background if it is not running",
		Flags:   func() *pflag.FlagSet { return projectFlags("start", &project) },
		Run: func([]string) error {
			env, err := app.resolve(project)
			if err != nil {
				return err
			}
			return app.daemonStart(env)
		},
	}
}

func (a *App) daemonStart(env *Environment) error {
	if err := env.Identity.EnsureRuntimeDir(); err != nil {
		return err
	}
	if err := a.client(env).EnsureRunning(a.Context); err != nil {
		return err
	}
	pid, _, _ := pidfile.Live(env.Identity.PIDPath)
	fmt.Fprintf(a.Stdout, "hookd daemon running (pid %d)\nsocket: %s\n", pid, env.Identity.SocketPath)
	return nil
}

func daemonStopCommand(app *App) *cli.Command {
	var project string
	return &cli.Command{
		Name:    "stop",
		Summary: "Stop the running daemon",
		Flags:   func() *pflag.FlagSet { return projectFlags("stop", &project) },
		Run: func([]string) error {
			env, err := app.resolve(project)
			if err != nil {
				return err
			}
			return app.daemonStop(env)
		},
	}
}

func (a *App) daemonStop(env *Environment) error {
	pid, alive, err := pidfile.Live(env.Identity.PIDPath)
	if err != nil {
		return err
	}
	if !alive {
		fmt.Fprintln(a.Stdout, "hookd daemon not running")
		return nil
	}

	if err := a.terminate(pid); err != nil {
		return fmt.Errorf("stopping daemon (pid %d): %w", pid, err)
	}

	// A daemon that exited cleanly has removed its socket.
	deadline := time.Now().Add(stopGrace)
	for {
		_, err := os.Stat(env.Identity.SocketPath)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if time.Now().After(deadline) {
			a.Logger.Warn("daemon socket still present after stop", "socket", env.Identity.SocketPath)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	fmt.Fprintf(a.Stdout, "hookd daemon stopped (pid %d)\n", pid)
	return nil
}

func daemonStatusCommand(app *App) *cli.Command {
	var project string
	return &cli.Command{
		Name:    "status",
		Summary: "Report whether the daemon is running",
		Description: `Report the daemon's PID, socket, and log file. Exits 0 when the
daemon is running and accepting connections, 1 when its process is
alive but the socket does not answer, and 3 when it is not running.
A status check counts as activity and postpones idle shutdown.`,
		Flags: func() *pflag.FlagSet { return projectFlags("status", &project) },
		Run: func([]string) error {
			env, err := app.resolve(project)
			if err != nil {
				return err
			}
			return app.daemonStatus(env)
		},
	}
}

func (a *App) daemonStatus(env *Environment) error {
	pid, alive, err := pidfile.Live(env.Identity.PIDPath)
	if err != nil {
		return err
	}
	probe := client.New(client.Options{SocketPath: env.Identity.SocketPath}).Probe(a.Context)

	switch {
	case alive && probe == nil:
		fmt.Fprintf(a.Stdout, "hookd daemon running (pid %d)\nsocket: %s\nlog: %s\n",
			pid, env.Identity.SocketPath, env.Identity.LogPath)
		return nil
	case alive:
		fmt.Fprintf(a.Stdout, "hookd daemon process %d is alive but not answering: %v\n", pid, probe)
		return &cli.ExitError{Code: 1}
	default:
		fmt.Fprintln(a.Stdout, "hookd daemon not running")
		return &cli.ExitError{Code: exitNotRunning}
	}
}

func daemonRestartCommand(app *App) *cli.Command {
	var project string
	return &cli.Command{
		Name:    "restart",
		Summary: "Stop the daemon and start a new one",
		Flags:   func() *pflag.FlagSet { return projectFlags("restart", &project) },
		Run: func([]string) error {
			env, err := app.resolve(project)
			if err != nil {
				return err
			}
			if err := app.daemonStop(env); err != nil {
				return err
			}
			// Reload: the new daemon may resolve a different identity
			// if runtime_dir changed.
			env, err = app.resolve(project)
			if err != nil {
				return err
			}
			return app.daemonStart(env)
		},
	}
}
