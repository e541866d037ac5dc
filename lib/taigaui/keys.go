// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taigaui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the browser.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Collapse key.Binding // Collapse the node, or move to its parent.
	Expand   key.Binding // Expand the node, or move to its first child.
	Home     key.Binding
	End      key.Binding

	// Detail pane scrolling.
	DetailUp   key.Binding
	DetailDown key.Binding

	// Activate selects a project, or toggles an expandable node.
	Activate key.Binding

	NextTab     key.Binding
	PreviousTab key.Binding
	Tabs        [5]key.Binding

	Search      key.Binding
	SearchClear key.Binding

	OpenExternal key.Binding
	Refresh      key.Binding
	Logout       key.Binding

	Quit key.Binding
}

// DefaultKeyMap uses vim-style movement alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "collapse"),
	),
	Expand: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "expand"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	DetailUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "scroll detail up"),
	),
	DetailDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "scroll detail down"),
	),
	Activate: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next view"),
	),
	PreviousTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-Tab", "previous view"),
	),
	Tabs: [5]key.Binding{
		key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "projects")),
		key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "epics")),
		key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "sprints")),
		key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "stories")),
		key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "search")),
	},
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	SearchClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "clear search"),
	),
	OpenExternal: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open in browser"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Logout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "log out"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
