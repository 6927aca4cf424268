// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/hookd/cmd/hookd/cli"
	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/handlers"
	"github.com/bureau-foundation/hookd/lib/hook"
	"github.com/bureau-foundation/hookd/lib/identity"
	"github.com/bureau-foundation/hookd/lib/strategy"
)

func configCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:        "config",
		Summary:     "Inspect configuration",
		Subcommands: []*cli.Command{configCheckCommand(app)},
	}
}

func configCheckCommand(app *App) *cli.Command {
	var project, file string
	return &cli.Command{
		Name:    "check",
		Summary: "Validate configuration and print each event's handler chain",
		Description: `Load and validate the configuration, build every handler exactly as
the daemon would, and print each event's chain in execution order.
Handlers removed by the tag filter are not listed.`,
		Flags: func() *pflag.FlagSet {
			flagSet := projectFlags("check", &project)
			flagSet.StringVarP(&file, "file", "f", "", "check this file instead of the project's configuration")
			return flagSet
		},
		Run: func([]string) error {
			return app.configCheck(project, file)
		},
	}
}

func (a *App) configCheck(project, file string) error {
	env, err := a.checkEnvironment(project, file)
	if err != nil {
		return err
	}

	engine, err := handlers.BuildEngine(env.Config, handlers.Builtin(), handlers.BuildContext{
		Identity:   env.Identity,
		Strategies: strategy.Default(),
		Logger:     a.Logger,
	})
	if err != nil {
		return err
	}

	source := env.Config.Source
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(a.Stdout, "configuration: %s\n", source)

	tw := tabwriter.NewWriter(a.Stdout, 2, 0, 2, ' ', 0)
	for _, event := range hook.EventTypes {
		chain := engine.Controller(event).Handlers()
		if len(chain) == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\n", event)
		for _, handler := range chain {
			kind := "advisory"
			if handler.Terminal() {
				kind = "terminal"
			}
			fmt.Fprintf(tw, "  %s\tpriority %d\t%s\t%s\n",
				handler.ID(), handler.Priority(), kind, strings.Join(handler.Tags(), ","))
		}
	}
	return tw.Flush()
}

// checkEnvironment resolves the environment for config check. With
// file set, the project's own configuration is never loaded: it may be
// the broken one being replaced.
func (a *App) checkEnvironment(project, file string) (*Environment, error) {
	if file == "" {
		return a.resolve(project)
	}
	root, err := projectRoot(project)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFile(file)
	if err != nil {
		return nil, err
	}
	id, err := identity.FromEnvironmentAs(root, cfg.Daemon.RuntimeDir, a.hostname(""))
	if err != nil {
		return nil, err
	}
	return &Environment{ProjectRoot: root, Config: cfg, Identity: id}, nil
}
