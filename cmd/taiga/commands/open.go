// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/taiga/cmd/taiga/cli"
	"github.com/bureau-foundation/taiga/lib/browser"
	"github.com/bureau-foundation/taiga/lib/controller"
	"github.com/bureau-foundation/taiga/lib/explorer"
	"github.com/bureau-foundation/taiga/lib/taigaui"
)

type openParams struct {
	globalParams
	Print bool `flag:"print,p" desc:"print the URL instead of opening a browser"`
}

func (a *app) openCommand() *cli.Command {
	var params openParams
	return &cli.Command{
		Name:    "open",
		Summary: "Open the selected project or a user story in the browser",
		Description: `Open the web page of the selected project, or of a user story of
that project when a reference is given. $BROWSER is honored.`,
		Usage: "taiga open [story-ref] [flags]",
		Examples: []cli.Example{
			{Description: "Open the project backlog", Command: "taiga open"},
			{Description: "Print the address of story #42", Command: "taiga open 42 --print"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			var opener controller.Opener = browser.System{Output: a.streams.Err}
			if params.Print {
				opener = browser.Printer{Output: a.streams.Out}
			}
			env, err := a.open(params.globalParams, opener)
			if err != nil {
				return err
			}
			defer env.Close()

			var item explorer.Item
			if len(args) == 1 {
				ref, err := parseRef(args[0])
				if err != nil {
					return err
				}
				story, err := env.controller.FindUserStory(ctx, ref)
				if err != nil {
					return classifyLookup(err)
				}
				item = explorer.UserStoryItem{Story: story}
			} else {
				project, ok := env.controller.SelectedProject()
				if !ok {
					return classify(controller.ErrNoProject)
				}
				item = explorer.ProjectItem{Project: project}
			}

			target, err := env.controller.OpenExternal(item)
			if err != nil {
				return cli.Internal("%w", err)
			}
			if !params.Print {
				fmt.Fprintf(a.streams.Err, "Opened %s\n", target)
			}
			return nil
		},
	}
}

type browseParams struct {
	globalParams
	View string `flag:"view" desc:"tab to start on: projects, epics, sprints, stories or search" default:"projects"`
}

func (a *app) browseCommand() *cli.Command {
	var params browseParams
	return &cli.Command{
		Name:    "browse",
		Summary: "Explore projects interactively",
		Description: `Explore projects, epics, sprints, user stories and tasks in a
full-screen terminal browser.

Keys: 1-5 or tab switch views, j/k move, l/h expand and collapse,
enter selects a project, / searches, o opens in the browser,
r refreshes, L logs out, q quits.

Log records are shown in the status line and, when log.file is set in
the configuration, also written to that file.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			view, err := explorer.ParseViewKind(params.View)
			if err != nil {
				return cli.Validation("--view: %w", err)
			}
			cfg, err := loadConfig(params.globalParams)
			if err != nil {
				return err
			}

			level, err := cli.ParseLevel(cfg.Log.Level)
			if err != nil || params.Verbose {
				level = slog.LevelDebug
			}
			var next slog.Handler
			if cfg.Log.File != "" {
				file, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
				if err != nil {
					return cli.Validation("log.file: %w", err)
				}
				defer file.Close()
				next = slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
			}
			// The status line shows warnings and errors only; lower levels
			// reach the log file.
			handler := taigaui.NewLogHandler(max(level, slog.LevelWarn), next)
			logger := slog.New(handler)

			env, err := openEnvironment(cfg, logger, browser.System{Output: io.Discard})
			if err != nil {
				return err
			}
			defer env.Close()

			return taigaui.Run(ctx, taigaui.Config{
				Controller:  env.controller,
				InitialView: view,
			}, handler)
		},
	}
}
