// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taigaui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/taiga/lib/explorer"
)

// detailFields extracts the untruncated title and markdown body of an
// item.
func detailFields(item explorer.Item) (title, body string) {
	switch item := item.(type) {
	case explorer.ProjectItem:
		return item.Project.Name, item.Project.Description
	case explorer.SprintItem:
		return item.Milestone.Name, ""
	case explorer.UserStoryItem:
		return "#" + strconv.FormatInt(item.Story.Ref, 10) + " " + item.Story.Subject, item.Story.Description
	case explorer.TaskItem:
		return "#" + strconv.FormatInt(item.Task.Ref, 10) + " " + item.Task.Subject, item.Task.Description
	case explorer.EpicItem:
		return "#" + strconv.FormatInt(item.Epic.Ref, 10) + " " + item.Epic.Subject, item.Epic.Description
	case explorer.Placeholder:
		return item.Message, ""
	default:
		return "", ""
	}
}

// renderDetail builds the detail pane content for node. webURL is shown
// when non-empty.
func (model *Model) renderDetail(node explorer.Node, webURL string, width int) string {
	theme := model.theme
	title, body := detailFields(node.Item)

	var sections []string
	heading := model.style().Bold(true).Foreground(theme.HeaderForeground).Render(title)
	sections = append(sections, ansi.Wordwrap(heading, width, ""))

	if node.Tooltip != "" {
		var lines []string
		for _, line := range strings.Split(node.Tooltip, "\n") {
			if line == title {
				continue
			}
			lines = append(lines, ansi.Wordwrap(model.style().Foreground(theme.FaintText).Render(line), width, ""))
		}
		if len(lines) > 0 {
			sections = append(sections, strings.Join(lines, "\n"))
		}
	}
	if webURL != "" {
		sections = append(sections, model.style().Foreground(theme.LinkForeground).Render(ansi.Truncate(webURL, width, "…")))
	}
	if rendered := renderMarkdown(body, theme, width); rendered != "" {
		sections = append(sections, model.style().Foreground(theme.BorderColor).Render(strings.Repeat("─", width)), rendered)
	}
	return strings.Join(sections, "\n\n")
}
