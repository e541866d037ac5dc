// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/taiga/lib/taiga"
)

// API is the subset of the Taiga client the materializer fetches from.
// *taiga.Client implements it.
type API interface {
	ListMilestones(ctx context.Context, projectID int64) taiga.Listing[taiga.Milestone]
	ListUserStories(ctx context.Context, projectID, milestoneID int64) taiga.Listing[taiga.UserStory]
	ListTasks(ctx context.Context, userStoryID int64) taiga.Listing[taiga.Task]
	ListEpics(ctx context.Context, projectID int64) taiga.Listing[taiga.Epic]
}

// SessionState is the session information rendering depends on.
// *session.Session implements it.
type SessionState interface {
	LoggedIn() bool
	CachedProjects() []taiga.Project
}

// Config holds configuration for creating a Materializer.
type Config struct {
	API     API
	Session SessionState
	Scope   ScopeSource
	Display Display

	// OnUnauthorized is called when a listing fails with HTTP 401, which
	// means the stored token has expired server-side. Optional.
	OnUnauthorized func(error)

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Placeholder messages.
const (
	MessageNeedLogin = "Log in to see your projects"
	MessageNoProject = "No projects found"
	MessageNoTasks   = "No tasks"
	MessageNoQuery   = "Type a search query to find user stories"
)

// Materializer produces tree nodes for view requests. It is safe for
// concurrent use.
type Materializer struct {
	api            API
	session        SessionState
	scope          ScopeSource
	display        Display
	onUnauthorized func(error)
	logger         *slog.Logger

	mu          sync.Mutex
	epochs      map[ViewKind]uint64
	generations map[nodeKey]uint64
}

// nodeKey identifies a tree position: a view root (empty parent) or an
// expanded item.
type nodeKey struct {
	view   ViewKind
	parent string
}

// Request is one stamped render request. Obtain it from Begin.
type Request struct {
	View ViewKind

	// Parent is the item being expanded, nil for the view root.
	Parent Item

	// Scope is the scope captured when the request began. The whole
	// request renders against it even if the scope changes meanwhile.
	Scope Scope

	epoch      uint64
	generation uint64
}

// Result is the outcome of a request.
type Result struct {
	Request Request
	Nodes   []Node

	// Stale is set when a newer request for the same node was issued,
	// or the view was invalidated, while this one was loading. Callers
	// discard stale results.
	Stale bool
}

// New creates a Materializer. API, Session and Scope are required.
func New(config Config) (*Materializer, error) {
	if config.API == nil {
		return nil, fmt.Errorf("explorer: API is required")
	}
	if config.Session == nil {
		return nil, fmt.Errorf("explorer: Session is required")
	}
	if config.Scope == nil {
		return nil, fmt.Errorf("explorer: Scope is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		api:            config.API,
		session:        config.Session,
		scope:          config.Scope,
		display:        config.Display.withDefaults(),
		onUnauthorized: config.OnUnauthorized,
		logger:         logger,
		epochs:         make(map[ViewKind]uint64),
		generations:    make(map[nodeKey]uint64),
	}, nil
}

func keyOf(view ViewKind, parent Item) nodeKey {
	if parent == nil {
		return nodeKey{view: view}
	}
	return nodeKey{view: view, parent: parent.Key()}
}

// Begin stamps a new request for the children of parent (nil for the
// view root) and makes every earlier request for the same node stale.
func (m *Materializer) Begin(view ViewKind, parent Item) Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := keyOf(view, parent)
	m.generations[key]++
	return Request{
		View:       view,
		Parent:     parent,
		Scope:      m.scope.Scope(),
		epoch:      m.epochs[view],
		generation: m.generations[key],
	}
}

// Current reports whether req is still the latest request for its node.
func (m *Materializer) Current(req Request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return req.epoch == m.epochs[req.View] &&
		req.generation == m.generations[keyOf(req.View, req.Parent)]
}

// Invalidate makes every outstanding request of view stale.
func (m *Materializer) Invalidate(view ViewKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epochs[view]++
}

// InvalidateAll invalidates every view.
func (m *Materializer) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, view := range AllViews {
		m.epochs[view]++
	}
}

// Load renders req. It may block on the network; run it off the UI
// thread.
func (m *Materializer) Load(ctx context.Context, req Request) Result {
	nodes := m.render(ctx, req)
	return Result{Request: req, Nodes: nodes, Stale: !m.Current(req)}
}

// Children renders the children of parent (nil for the root) in view
// synchronously. Staleness is ignored.
func (m *Materializer) Children(ctx context.Context, view ViewKind, parent Item) []Node {
	return m.Load(ctx, m.Begin(view, parent)).Nodes
}

func (m *Materializer) render(ctx context.Context, req Request) []Node {
	if !m.session.LoggedIn() {
		return m.placeholder(NeedLogin, MessageNeedLogin, nil)
	}
	if req.Parent != nil {
		return m.expand(ctx, req)
	}

	scope := req.Scope
	if req.View == ViewProjects {
		return m.projects()
	}
	if scope.ProjectID == 0 {
		return m.placeholder(NeedProject, needProjectMessage(req.View), nil)
	}

	switch req.View {
	case ViewEpics:
		listing := m.api.ListEpics(ctx, scope.ProjectID)
		if listing.Failed() {
			return m.failed("epics", listing.Err)
		}
		epics := filterItems(listing.Items, scope.Query, func(e taiga.Epic) (int64, string) { return e.Ref, e.Subject })
		return renderAll(m, epics, "No epics found", func(e taiga.Epic) (Item, bool) { return EpicItem{Epic: e}, false })

	case ViewSprints:
		listing := m.api.ListMilestones(ctx, scope.ProjectID)
		if listing.Failed() {
			return m.failed("sprints", listing.Err)
		}
		return renderAll(m, listing.Items, "No sprints found", func(s taiga.Milestone) (Item, bool) { return SprintItem{Milestone: s}, true })

	case ViewUserStories:
		return m.stories(ctx, scope.ProjectID, 0, scope.Query, "No user stories found")

	case ViewSearch:
		if scope.Query == "" {
			return m.placeholder(NeedQuery, MessageNoQuery, nil)
		}
		return m.stories(ctx, scope.ProjectID, 0, scope.Query, fmt.Sprintf("No user stories match %q", scope.Query))

	default:
		panic(fmt.Sprintf("explorer: unhandled view %v", req.View))
	}
}

// expand renders the children of an expandable item. Items that do not
// expand have no children.
func (m *Materializer) expand(ctx context.Context, req Request) []Node {
	switch parent := req.Parent.(type) {
	case SprintItem:
		sprint := parent.Milestone
		return m.stories(ctx, sprint.Project, sprint.ID, req.Scope.Query, "No user stories in this sprint")
	case UserStoryItem:
		listing := m.api.ListTasks(ctx, parent.Story.ID)
		if listing.Failed() {
			return m.failed("tasks", listing.Err)
		}
		return renderAll(m, listing.Items, MessageNoTasks, func(t taiga.Task) (Item, bool) { return TaskItem{Task: t}, false })
	default:
		return []Node{}
	}
}

func (m *Materializer) projects() []Node {
	return renderAll(m, m.session.CachedProjects(), MessageNoProject, func(p taiga.Project) (Item, bool) { return ProjectItem{Project: p}, false })
}

func (m *Materializer) stories(ctx context.Context, projectID, milestoneID int64, query, emptyMessage string) []Node {
	listing := m.api.ListUserStories(ctx, projectID, milestoneID)
	if listing.Failed() {
		return m.failed("user stories", listing.Err)
	}
	stories := filterItems(listing.Items, query, func(s taiga.UserStory) (int64, string) { return s.Ref, s.Subject })
	return renderAll(m, stories, emptyMessage, func(s taiga.UserStory) (Item, bool) { return UserStoryItem{Story: s}, true })
}

func renderAll[T any](m *Materializer, records []T, emptyMessage string, wrap func(T) (Item, bool)) []Node {
	if len(records) == 0 {
		return m.placeholder(Empty, emptyMessage, nil)
	}
	nodes := make([]Node, 0, len(records))
	for _, record := range records {
		item, collapsible := wrap(record)
		nodes = append(nodes, Render(item, collapsible, m.display))
	}
	return nodes
}

func (m *Materializer) failed(resource string, err error) []Node {
	if taiga.IsUnauthorized(err) && m.onUnauthorized != nil {
		m.onUnauthorized(err)
	}
	m.logger.Debug("rendering load failure placeholder", "resource", resource, "error", err)
	return m.placeholder(LoadFailed, "Could not load "+resource, err)
}

func (m *Materializer) placeholder(reason PlaceholderReason, message string, err error) []Node {
	return []Node{Render(Placeholder{Reason: reason, Message: message, Err: err}, false, m.display)}
}

// needProjectMessage guides the user when view needs a selected
// project.
func needProjectMessage(view ViewKind) string {
	switch view {
	case ViewUserStories:
		return "Select a project to see its user stories"
	case ViewEpics:
		return "Select a project to see its epics"
	case ViewSprints:
		return "Select a project to see its sprints"
	case ViewSearch:
		return "Select a project to search its user stories"
	default:
		return "Select a project to see its " + view.String()
	}
}
