// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"fmt"

	"github.com/bureau-foundation/taiga/lib/taiga"
)

// Item is one entry of a tree: a Taiga resource or a placeholder. The
// set of variants is closed; see Render.
type Item interface {
	// Key identifies the item within its view. Keys are stable across
	// refreshes so that expansion state can follow the resource.
	Key() string

	isItem()
}

// ProjectItem wraps a project.
type ProjectItem struct{ Project taiga.Project }

// SprintItem wraps a sprint.
type SprintItem struct{ Milestone taiga.Milestone }

// UserStoryItem wraps a user story.
type UserStoryItem struct{ Story taiga.UserStory }

// TaskItem wraps a task.
type TaskItem struct{ Task taiga.Task }

// EpicItem wraps an epic.
type EpicItem struct{ Epic taiga.Epic }

// PlaceholderReason says why a placeholder stands in for real items.
type PlaceholderReason int

const (
	// NeedLogin: no session token.
	NeedLogin PlaceholderReason = iota

	// NeedProject: a scope-dependent view with no selected project.
	NeedProject

	// NeedQuery: the search view with no query.
	NeedQuery

	// Empty: the listing succeeded and nothing matched.
	Empty

	// LoadFailed: the listing failed.
	LoadFailed
)

func (reason PlaceholderReason) String() string {
	switch reason {
	case NeedLogin:
		return "need-login"
	case NeedProject:
		return "need-project"
	case NeedQuery:
		return "need-query"
	case Empty:
		return "empty"
	case LoadFailed:
		return "load-failed"
	default:
		return fmt.Sprintf("PlaceholderReason(%d)", int(reason))
	}
}

// Placeholder is an informational, non-expandable item.
type Placeholder struct {
	Reason  PlaceholderReason
	Message string

	// Err is the listing error for LoadFailed placeholders.
	Err error
}

func (item ProjectItem) Key() string   { return fmt.Sprintf("project/%d", item.Project.ID) }
func (item SprintItem) Key() string    { return fmt.Sprintf("sprint/%d", item.Milestone.ID) }
func (item UserStoryItem) Key() string { return fmt.Sprintf("story/%d", item.Story.ID) }
func (item TaskItem) Key() string      { return fmt.Sprintf("task/%d", item.Task.ID) }
func (item EpicItem) Key() string      { return fmt.Sprintf("epic/%d", item.Epic.ID) }
func (item Placeholder) Key() string   { return "placeholder/" + item.Reason.String() }

func (ProjectItem) isItem()   {}
func (SprintItem) isItem()    {}
func (UserStoryItem) isItem() {}
func (TaskItem) isItem()      {}
func (EpicItem) isItem()      {}
func (Placeholder) isItem()   {}

// Node is the display form of an Item.
type Node struct {
	Item Item

	// Label is the primary text, already truncated.
	Label string

	// Description is the secondary text shown beside the label.
	Description string

	// Tooltip is the multi-line hover text.
	Tooltip string

	// Icon names a symbolic icon; UIs map it to a glyph.
	Icon string

	// Collapsible is true for nodes that expand into children.
	Collapsible bool
}

// Key returns the key of the node's item.
func (node Node) Key() string { return node.Item.Key() }

// Symbolic icon names.
const (
	IconProject = "project"
	IconSprint  = "clock"
	IconClosed  = "check"
	IconStory   = "book"
	IconTask    = "circle-outline"
	IconEpic    = "milestone"
	IconInfo    = "info"
	IconError   = "error"
)

// Status glyphs prefixed to titles.
const (
	glyphClosed     = "✅"
	glyphStoryOpen  = "🔄"
	glyphTaskOpen   = "🔲"
	glyphSprintOpen = "🏃"
	glyphEpicOpen   = "🟣"
)

// Display bounds rendering.
type Display struct {
	// TitleWidth is the maximum label length in characters.
	TitleWidth int

	// AssigneeWidth is the longest assignee name shown untruncated.
	AssigneeWidth int
}

// DefaultDisplay is used when a Display field is zero.
var DefaultDisplay = Display{TitleWidth: 60, AssigneeWidth: 15}

func (display Display) withDefaults() Display {
	if display.TitleWidth <= 0 {
		display.TitleWidth = DefaultDisplay.TitleWidth
	}
	if display.AssigneeWidth <= 0 {
		display.AssigneeWidth = DefaultDisplay.AssigneeWidth
	}
	return display
}

// Render maps an item to its display form. collapsible is decided by the
// caller because whether a sprint or story expands depends on the view.
func Render(item Item, collapsible bool, display Display) Node {
	display = display.withDefaults()
	node := Node{Item: item}

	switch item := item.(type) {
	case ProjectItem:
		project := item.Project
		node.Label = TruncateTitle(project.Name, display.TitleWidth)
		node.Icon = IconProject
		description := project.Description
		if description == "" {
			description = "No description"
		}
		node.Tooltip = project.Name + "\n" + description
		if project.IsPrivate {
			node.Description = "private"
		}

	case SprintItem:
		sprint := item.Milestone
		glyph := glyphSprintOpen
		node.Icon = IconSprint
		if sprint.Closed {
			glyph = glyphClosed
			node.Icon = IconClosed
		}
		node.Label = TruncateTitle(glyph+" "+sprint.Name, display.TitleWidth)
		node.Description = sprintRange(sprint)
		node.Tooltip = sprintTooltip(sprint)
		node.Collapsible = collapsible

	case UserStoryItem:
		story := item.Story
		glyph := glyphStoryOpen
		if story.IsClosed {
			glyph = glyphClosed
		}
		node.Label = TruncateTitle(referenceTitle(glyph, story.Ref, story.Subject), display.TitleWidth)
		node.Description = statusLine(story.Status, story.AssignedTo, display.AssigneeWidth)
		node.Tooltip = workTooltip(story.Ref, story.Subject, story.Status, story.AssignedTo)
		node.Icon = IconStory
		node.Collapsible = collapsible

	case TaskItem:
		task := item.Task
		glyph := glyphTaskOpen
		node.Icon = IconTask
		if task.IsClosed {
			glyph = glyphClosed
			node.Icon = IconClosed
		}
		node.Label = TruncateTitle(referenceTitle(glyph, task.Ref, task.Subject), display.TitleWidth)
		node.Description = statusLine(task.Status, task.AssignedTo, display.AssigneeWidth)
		node.Tooltip = workTooltip(task.Ref, task.Subject, task.Status, task.AssignedTo)

	case EpicItem:
		epic := item.Epic
		glyph := glyphEpicOpen
		if epic.IsClosed {
			glyph = glyphClosed
		}
		node.Label = TruncateTitle(referenceTitle(glyph, epic.Ref, epic.Subject), display.TitleWidth)
		node.Description = statusLine(epic.Status, epic.AssignedTo, display.AssigneeWidth)
		node.Tooltip = workTooltip(epic.Ref, epic.Subject, epic.Status, epic.AssignedTo)
		node.Icon = IconEpic

	case Placeholder:
		node.Label = item.Message
		node.Icon = IconInfo
		if item.Reason == LoadFailed {
			node.Icon = IconError
			if item.Err != nil {
				node.Tooltip = item.Err.Error()
			}
		}

	default:
		panic(fmt.Sprintf("explorer: unhandled item type %T", item))
	}
	return node
}
