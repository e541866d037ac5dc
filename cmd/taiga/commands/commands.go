// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the taiga command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/taiga/cmd/taiga/cli"
	"github.com/bureau-foundation/taiga/lib/version"
)

// Streams are where commands write. Out carries results; Err carries
// progress messages, prompts and logs.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

// globalParams are accepted by every command that touches the Taiga
// instance or the local state.
type globalParams struct {
	ConfigPath string `flag:"config" desc:"configuration file (default $TAIGA_CONFIG or ~/.config/taiga/config.yaml)"`
	Profile    string `flag:"profile" desc:"configuration profile to use (default $TAIGA_PROFILE)"`
	Verbose    bool   `flag:"verbose,v" desc:"log requests and state changes"`
}

type app struct {
	streams Streams
}

// Root builds the command tree.
func Root(streams Streams) *cli.Command {
	a := &app{streams: streams}
	return &cli.Command{
		Name: "taiga",
		Description: `taiga: browse and update a Taiga project-management instance.

Log in once, pick a project with "taiga use", then list its epics,
sprints and user stories, search them, open them in the browser, or
explore everything interactively with "taiga browse".`,
		HelpOutput: streams.Err,
		Subcommands: []*cli.Command{
			a.loginCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.refreshCommand(),
			a.projectsCommand(),
			a.useCommand(),
			a.epicsCommand(),
			a.sprintsCommand(),
			a.storiesCommand(),
			a.tasksCommand(),
			a.searchCommand(),
			a.openCommand(),
			a.browseCommand(),
			a.taskCommand(),
			a.configCommand(),
			a.versionCommand(),
		},
	}
}

type versionParams struct {
	cli.JSONOutput
}

func (a *app) versionCommand() *cli.Command {
	var params versionParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if done, err := params.EmitJSON(a.streams.Out, version.Get()); done {
				return err
			}
			_, err := fmt.Fprintf(a.streams.Out, "taiga %s\n", version.Full())
			return err
		},
	}
}
