// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bureau-foundation/taiga/cmd/taiga/cli"
	"github.com/bureau-foundation/taiga/lib/controller"
	"github.com/bureau-foundation/taiga/lib/explorer"
)

// listParams are shared by the listing commands.
type listParams struct {
	globalParams
	cli.JSONOutput
	Expand bool `flag:"expand,e" desc:"also list the children of every item (stories of sprints, tasks of stories)"`
}

// nodeOutput is the JSON form of a listed node.
type nodeOutput struct {
	Kind        string       `json:"kind"`
	Label       string       `json:"label"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Item        any          `json:"item"`
	Children    []nodeOutput `json:"children,omitempty"`
}

// listing is a materialized view ready for output.
type listing struct {
	env   *environment
	tree  *explorer.Tree
	nodes []explorer.Node
}

// loadView materializes view. A root consisting of a single placeholder
// becomes an error unless it only says the listing is empty, in which
// case the returned listing has no nodes and message holds the text.
func loadView(ctx context.Context, env *environment, view explorer.ViewKind) (list listing, message string, err error) {
	tree := env.controller.NewTree(view)
	nodes := tree.Refresh(ctx)
	if len(nodes) == 1 {
		if placeholder, ok := nodes[0].Item.(explorer.Placeholder); ok {
			if err := placeholderError(placeholder); err != nil {
				return listing{}, "", err
			}
			return listing{env: env, tree: tree}, placeholder.Message, nil
		}
	}
	return listing{env: env, tree: tree, nodes: nodes}, "", nil
}

// write prints the listing as an indented tree or as JSON. With expand
// every expandable node is opened, recursively.
func (list listing) write(ctx context.Context, out io.Writer, params listParams, message string) error {
	outputs := list.outputs(ctx, list.nodes, params.Expand, 0, out, !params.OutputJSON)
	if done, err := params.EmitJSON(out, outputs); done {
		return err
	}
	if message != "" {
		fmt.Fprintln(out, message)
	}
	return nil
}

// outputs converts nodes for JSON and, when text is set, prints them as
// it goes.
func (list listing) outputs(ctx context.Context, nodes []explorer.Node, expand bool, depth int, out io.Writer, text bool) []nodeOutput {
	var result []nodeOutput
	for _, node := range nodes {
		if text {
			line := strings.Repeat("  ", depth) + node.Label
			if node.Description != "" {
				line += "  " + node.Description
			}
			fmt.Fprintln(out, line)
		}
		if _, isPlaceholder := node.Item.(explorer.Placeholder); isPlaceholder {
			continue
		}

		kind, _, _ := strings.Cut(node.Key(), "/")
		output := nodeOutput{
			Kind:        kind,
			Label:       node.Label,
			Description: node.Description,
			Item:        itemData(node.Item),
		}
		output.URL, _ = list.env.controller.WebURL(node.Item)
		if expand && node.Collapsible {
			children := list.tree.Expand(ctx, node.Item)
			output.Children = list.outputs(ctx, children, expand, depth+1, out, text)
		}
		result = append(result, output)
	}
	return result
}

// itemData is the Taiga record behind item.
func itemData(item explorer.Item) any {
	switch item := item.(type) {
	case explorer.ProjectItem:
		return item.Project
	case explorer.SprintItem:
		return item.Milestone
	case explorer.UserStoryItem:
		return item.Story
	case explorer.TaskItem:
		return item.Task
	case explorer.EpicItem:
		return item.Epic
	default:
		return nil
	}
}

// listCommand builds a command printing one view.
func (a *app) listCommand(name, summary, description string, view explorer.ViewKind) *cli.Command {
	var params listParams
	return &cli.Command{
		Name:        name,
		Summary:     summary,
		Description: description,
		Params:      func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			list, message, err := loadView(ctx, env, view)
			if err != nil {
				return err
			}
			return list.write(ctx, a.streams.Out, params, message)
		},
	}
}

func (a *app) projectsCommand() *cli.Command {
	return a.listCommand("projects", "List your projects",
		`List the projects of the logged-in user.

The list is the one cached at login or by the last 'taiga refresh'.`,
		explorer.ViewProjects)
}

func (a *app) epicsCommand() *cli.Command {
	return a.listCommand("epics", "List the epics of the selected project", "", explorer.ViewEpics)
}

func (a *app) sprintsCommand() *cli.Command {
	return a.listCommand("sprints", "List the sprints of the selected project",
		`List the sprints (milestones) of the selected project.

With --expand, the user stories of every sprint and their tasks are
listed below it.`,
		explorer.ViewSprints)
}

func (a *app) storiesCommand() *cli.Command {
	return a.listCommand("stories", "List the user stories of the selected project", "", explorer.ViewUserStories)
}

func (a *app) searchCommand() *cli.Command {
	var params listParams
	return &cli.Command{
		Name:    "search",
		Summary: "Find user stories by reference or subject",
		Description: `List the user stories of the selected project whose "#ref subject"
contains the query, ignoring case.`,
		Usage: "taiga search <query> [flags]",
		Examples: []cli.Example{
			{Description: "Stories mentioning registration", Command: "taiga search registration"},
			{Description: "Story #42 and any other ref containing 42", Command: "taiga search 42"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return cli.Validation("a search query is required\n\nUsage: taiga search <query> [flags]")
			}
			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			env.controller.Search(query)
			list, message, err := loadView(ctx, env, explorer.ViewSearch)
			if err != nil {
				return err
			}
			return list.write(ctx, a.streams.Out, params, message)
		},
	}
}

func (a *app) tasksCommand() *cli.Command {
	var params listParams
	return &cli.Command{
		Name:    "tasks",
		Summary: "List the tasks of a user story",
		Usage:   "taiga tasks <story-ref> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("exactly one user story reference is required\n\nUsage: taiga tasks <story-ref> [flags]")
			}
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			story, err := env.controller.FindUserStory(ctx, ref)
			if err != nil {
				return classifyLookup(err)
			}
			tree := env.controller.NewTree(explorer.ViewUserStories)
			list := listing{env: env, tree: tree, nodes: tree.Expand(ctx, explorer.UserStoryItem{Story: story})}
			return list.write(ctx, a.streams.Out, params, "")
		},
	}
}

func (a *app) refreshCommand() *cli.Command {
	var params listParams
	return &cli.Command{
		Name:    "refresh",
		Summary: "Reload the project list from the server",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			projects, err := env.controller.Refresh(ctx)
			if err != nil {
				return classify(err)
			}
			if params.OutputJSON {
				list, message, err := loadView(ctx, env, explorer.ViewProjects)
				if err != nil {
					return err
				}
				return list.write(ctx, a.streams.Out, params, message)
			}
			fmt.Fprintf(a.streams.Out, "Loaded %d projects\n", len(projects))
			return nil
		},
	}
}

type useParams struct {
	globalParams
	cli.JSONOutput
}

func (a *app) useCommand() *cli.Command {
	var params useParams
	return &cli.Command{
		Name:    "use",
		Summary: "Select the project the other commands work on",
		Description: `Select the project that epics, sprints, stories, search and task
commands work on. The project is given by id, slug or name. Without an
argument the current selection is shown.`,
		Usage:  "taiga use [project] [flags]",
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			if len(args) == 0 {
				project, ok := env.controller.SelectedProject()
				if !ok {
					return classify(controller.ErrNoProject)
				}
				if done, err := params.EmitJSON(a.streams.Out, project); done {
					return err
				}
				fmt.Fprintf(a.streams.Out, "%s (%s, id %d)\n", project.Name, project.Slug, project.ID)
				return nil
			}

			project, err := env.controller.FindProject(args[0])
			if err != nil {
				return classifyLookup(err)
			}
			if _, err := env.controller.SelectProject(project.ID); err != nil {
				return cli.Internal("%w", err)
			}
			if done, err := params.EmitJSON(a.streams.Out, project); done {
				return err
			}
			fmt.Fprintf(a.streams.Out, "Using project %s\n", project.Name)
			return nil
		},
	}
}

// classifyLookup is classify for failed lookups by reference, where an
// otherwise unclassified error means nothing matched.
func classifyLookup(err error) error {
	classified := classify(err)
	if cli.CategoryOf(classified) == cli.CategoryInternal {
		return cli.NotFound("%w", err)
	}
	return classified
}

func parseRef(raw string) (int64, error) {
	ref, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil || ref <= 0 {
		return 0, cli.Validation("%q is not a reference number", raw)
	}
	return ref, nil
}
