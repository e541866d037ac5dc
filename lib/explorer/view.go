// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"fmt"
	"strings"
)

// ViewKind selects which tree is rendered.
type ViewKind int

const (
	ViewProjects ViewKind = iota
	ViewEpics
	ViewSprints
	ViewUserStories
	ViewSearch
)

// AllViews lists the view kinds in display order.
var AllViews = []ViewKind{ViewProjects, ViewEpics, ViewSprints, ViewUserStories, ViewSearch}

func (view ViewKind) String() string {
	switch view {
	case ViewProjects:
		return "projects"
	case ViewEpics:
		return "epics"
	case ViewSprints:
		return "sprints"
	case ViewUserStories:
		return "stories"
	case ViewSearch:
		return "search"
	default:
		return fmt.Sprintf("ViewKind(%d)", int(view))
	}
}

// Title is the human-readable view name.
func (view ViewKind) Title() string {
	switch view {
	case ViewProjects:
		return "Projects"
	case ViewEpics:
		return "Epics"
	case ViewSprints:
		return "Sprints"
	case ViewUserStories:
		return "User Stories"
	case ViewSearch:
		return "Search"
	default:
		return view.String()
	}
}

// ParseViewKind parses the String form of a view kind.
func ParseViewKind(name string) (ViewKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, view := range AllViews {
		if view.String() == name {
			return view, nil
		}
	}
	if name == "userstories" || name == "user-stories" {
		return ViewUserStories, nil
	}
	return 0, fmt.Errorf("unknown view %q", name)
}

// ScopeDependent reports whether the view needs a selected project.
func (view ViewKind) ScopeDependent() bool {
	return view != ViewProjects
}

// Scope is the selection the scope-dependent views render against.
type Scope struct {
	// ProjectID is the selected project, zero when none.
	ProjectID int64

	// Query is the search predicate, empty when none.
	Query string
}

// ScopeSource supplies the current scope on every request.
type ScopeSource interface {
	Scope() Scope
}

// StaticScope is a ScopeSource with a fixed value.
type StaticScope Scope

// Scope implements ScopeSource.
func (scope StaticScope) Scope() Scope { return Scope(scope) }
