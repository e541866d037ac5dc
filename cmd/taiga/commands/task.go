// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/taiga/cmd/taiga/cli"
	"github.com/bureau-foundation/taiga/lib/explorer"
)

func (a *app) taskCommand() *cli.Command {
	return &cli.Command{
		Name:    "task",
		Summary: "Manage tasks",
		Subcommands: []*cli.Command{
			a.taskCreateCommand(),
		},
	}
}

type taskCreateParams struct {
	globalParams
	cli.JSONOutput
	Subject     string `flag:"subject,s" desc:"task subject (default: the remaining arguments)"`
	Description string `flag:"description,d" desc:"task description, in markdown"`
}

func (a *app) taskCreateCommand() *cli.Command {
	var params taskCreateParams
	return &cli.Command{
		Name:    "create",
		Summary: "Add a task to a user story",
		Usage:   "taiga task create <story-ref> [subject...] [flags]",
		Examples: []cli.Example{
			{Description: "Add a task to story #42", Command: `taiga task create 42 "Print membership cards"`},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("a user story reference is required\n\nUsage: taiga task create <story-ref> [subject...] [flags]")
			}
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			subject := strings.TrimSpace(params.Subject)
			if rest := strings.TrimSpace(strings.Join(args[1:], " ")); rest != "" {
				if subject != "" {
					return cli.Validation("give the subject either as arguments or with --subject, not both")
				}
				subject = rest
			}
			if subject == "" {
				return cli.Validation("a task subject is required")
			}

			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			task, err := env.controller.CreateTask(ctx, ref, subject, params.Description)
			if err != nil {
				return classifyLookup(err)
			}
			if done, err := params.EmitJSON(a.streams.Out, task); done {
				return err
			}
			fmt.Fprintf(a.streams.Out, "Created task #%d %s\n", task.Ref, task.Subject)
			if url, err := env.controller.WebURL(explorer.TaskItem{Task: *task}); err == nil {
				fmt.Fprintln(a.streams.Out, url)
			}
			return nil
		},
	}
}
