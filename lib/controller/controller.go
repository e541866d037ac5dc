// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/bureau-foundation/taiga/lib/explorer"
	"github.com/bureau-foundation/taiga/lib/kvstore"
	"github.com/bureau-foundation/taiga/lib/secret"
	"github.com/bureau-foundation/taiga/lib/session"
	"github.com/bureau-foundation/taiga/lib/taiga"
)

// KeyScope is the store key of the persisted project selection.
const KeyScope = "taiga_scope"

var (
	// ErrNotLoggedIn is returned by operations that need a session.
	ErrNotLoggedIn = errors.New("please log in first")

	// ErrNoProject is returned by operations that need a selected
	// project.
	ErrNoProject = errors.New("no project selected; run 'taiga use <project>' first")

	// ErrNoCredentials is returned by Relogin when nothing is
	// remembered.
	ErrNoCredentials = errors.New("no remembered credentials; log in with --remember first")
)

// API is the Taiga client surface the controller uses. *taiga.Client
// implements it.
type API interface {
	explorer.API
	Login(ctx context.Context, username string, password *secret.Buffer) (*taiga.AuthResult, error)
	ListProjects(ctx context.Context) taiga.Listing[taiga.Project]
	CreateTask(ctx context.Context, draft taiga.TaskDraft) (*taiga.Task, error)
	BaseURL() string
}

// Opener hands a URL to the platform (typically a web browser).
type Opener interface {
	Open(url string) error
}

// Config holds configuration for creating a Controller.
type Config struct {
	// API is the Taiga client. Required.
	API API

	// Session is the authentication state. Required.
	Session *session.Session

	// Store persists the project selection. Required; usually the same
	// store that backs Session.
	Store kvstore.Store

	// Opener opens URLs for OpenExternal. Optional; without it
	// OpenExternal fails.
	Opener Opener

	// RememberUsername is called with the username after a successful
	// login. Optional. Failures are logged and do not fail the login.
	RememberUsername func(username string) error

	// Display bounds node rendering.
	Display explorer.Display

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// EventKind identifies an Event.
type EventKind int

const (
	// SessionChanged: login, logout, expiry, or a new project list.
	SessionChanged EventKind = iota

	// ScopeChanged: the selected project or the search query changed.
	ScopeChanged

	// ViewsInvalidated: the listed views must be reloaded.
	ViewsInvalidated
)

func (kind EventKind) String() string {
	switch kind {
	case SessionChanged:
		return "session-changed"
	case ScopeChanged:
		return "scope-changed"
	case ViewsInvalidated:
		return "views-invalidated"
	default:
		return fmt.Sprintf("EventKind(%d)", int(kind))
	}
}

// Event is delivered to subscribers after a state change.
type Event struct {
	Kind EventKind

	// Change is the session change for SessionChanged events.
	Change session.ChangeKind

	// Scope is the scope after the change.
	Scope explorer.Scope

	// Views lists the invalidated views for ViewsInvalidated events.
	Views []explorer.ViewKind
}

// persistedScope is the stored form of the selection. The query is not
// persisted.
type persistedScope struct {
	ProjectID int64 `json:"project_id"`
}

// Controller executes user commands. It is safe for concurrent use.
type Controller struct {
	api              API
	session          *session.Session
	store            kvstore.Store
	opener           Opener
	rememberUsername func(string) error
	logger           *slog.Logger
	materializer     *explorer.Materializer
	unsubscribe      func()

	mu          sync.Mutex
	scope       explorer.Scope
	trees       []*explorer.Tree
	subscribers map[int]func(Event)
	nextID      int
}

// New creates a Controller and restores the persisted project
// selection.
func New(config Config) (*Controller, error) {
	if config.API == nil {
		return nil, fmt.Errorf("controller: API is required")
	}
	if config.Session == nil {
		return nil, fmt.Errorf("controller: Session is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("controller: Store is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		api:              config.API,
		session:          config.Session,
		store:            config.Store,
		opener:           config.Opener,
		rememberUsername: config.RememberUsername,
		logger:           logger,
		subscribers:      make(map[int]func(Event)),
	}

	var stored persistedScope
	if _, err := c.store.Get(KeyScope, &stored); err != nil {
		return nil, fmt.Errorf("controller: loading scope: %w", err)
	}
	c.scope.ProjectID = stored.ProjectID

	materializer, err := explorer.New(explorer.Config{
		API:            config.API,
		Session:        config.Session,
		Scope:          c,
		Display:        config.Display,
		OnUnauthorized: c.expire,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	c.materializer = materializer
	c.unsubscribe = config.Session.Subscribe(c.sessionChanged)
	return c, nil
}

// Close detaches the controller from the session.
func (c *Controller) Close() {
	c.unsubscribe()
}

// Scope implements explorer.ScopeSource.
func (c *Controller) Scope() explorer.Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// Materializer returns the materializer rendering against this
// controller's scope.
func (c *Controller) Materializer() *explorer.Materializer {
	return c.materializer
}

// Session returns the session the controller drives.
func (c *Controller) Session() *session.Session {
	return c.session
}

// NewTree creates a tree for view and registers it.
func (c *Controller) NewTree(view explorer.ViewKind) *explorer.Tree {
	tree := c.materializer.NewTree(view)
	c.RegisterView(tree)
	return tree
}

// RegisterView makes tree follow invalidations.
func (c *Controller) RegisterView(tree *explorer.Tree) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees = append(c.trees, tree)
}

// Subscribe registers fn for events. The returned function unregisters
// it. fn runs on the goroutine that caused the change, without the
// controller lock held.
func (c *Controller) Subscribe(fn func(Event)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

func (c *Controller) emit(event Event) {
	c.mu.Lock()
	event.Scope = c.scope
	ids := make([]int, 0, len(c.subscribers))
	for id := range c.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subscribers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subscribers = append(subscribers, c.subscribers[id])
	}
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(event)
	}
}

// invalidate marks views for reloading.
func (c *Controller) invalidate(views ...explorer.ViewKind) {
	c.mu.Lock()
	trees := slices.Clone(c.trees)
	c.mu.Unlock()

	for _, view := range views {
		c.materializer.Invalidate(view)
	}
	for _, tree := range trees {
		if slices.Contains(views, tree.View()) {
			tree.Invalidate()
		}
	}
	c.emit(Event{Kind: ViewsInvalidated, Views: views})
}

var scopeViews = []explorer.ViewKind{
	explorer.ViewEpics,
	explorer.ViewSprints,
	explorer.ViewUserStories,
	explorer.ViewSearch,
}

func (c *Controller) sessionChanged(change session.Change) {
	c.emit(Event{Kind: SessionChanged, Change: change.Kind})
	if change.Kind == session.ProjectsChanged {
		c.invalidate(explorer.ViewProjects)
		return
	}
	c.invalidate(explorer.AllViews...)
}

// expire handles a 401 from a listing.
func (c *Controller) expire(err error) {
	c.logger.Warn("taiga rejected the session token", "error", err)
	if expireErr := c.session.Expire(); expireErr != nil {
		c.logger.Error("dropping expired token", "error", expireErr)
	}
}

// Login authenticates and establishes the session, then refreshes the
// project list. On failure the previous session is left untouched. A
// failed refresh is logged and does not fail the login. Logging in as a
// different user than the previous one also drops the project selection.
func (c *Controller) Login(ctx context.Context, username string, password *secret.Buffer) (*taiga.User, error) {
	result, err := c.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	previous := c.session.User()
	if err := c.session.Establish(result.AuthToken, result.User); err != nil {
		return nil, err
	}
	c.logger.Info("logged in", "username", result.Username)
	if previous != nil && previous.ID != result.User.ID {
		c.logger.Info("switched users; project selection cleared", "previous", previous.Username)
		c.resetScope()
	}

	if c.rememberUsername != nil {
		if err := c.rememberUsername(result.Username); err != nil {
			c.logger.Warn("saving username to configuration", "error", err)
		}
	}
	if _, err := c.Refresh(ctx); err != nil {
		c.logger.Warn("loading projects after login", "error", err)
	}
	user := result.User
	return &user, nil
}

// Relogin logs in with credentials stored by RememberCredentials.
func (c *Controller) Relogin(ctx context.Context) (*taiga.User, error) {
	username, password, ok, err := c.session.Credentials()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCredentials
	}
	defer password.Close()
	return c.Login(ctx, username, password)
}

// Refresh re-fetches the project list into the session cache and
// invalidates every view. A failed fetch keeps the previous cache.
func (c *Controller) Refresh(ctx context.Context) ([]taiga.Project, error) {
	if !c.session.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	listing := c.api.ListProjects(ctx)
	if listing.Failed() {
		if taiga.IsUnauthorized(listing.Err) {
			c.expire(listing.Err)
		}
		return nil, listing.Err
	}
	if err := c.session.SetCachedProjects(listing.Items); err != nil {
		return nil, err
	}
	c.invalidate(explorer.AllViews...)
	return listing.Items, nil
}

// Logout clears the session and the project selection. Every view then
// renders the login placeholder.
func (c *Controller) Logout() error {
	if err := c.session.Clear(); err != nil {
		return err
	}
	c.resetScope()
	return nil
}

// resetScope forgets the selected project and the search query, here
// and in the store, and invalidates every view.
func (c *Controller) resetScope() {
	c.mu.Lock()
	c.scope = explorer.Scope{}
	c.mu.Unlock()
	if err := kvstore.Update(c.store, KeyScope, nil); err != nil {
		c.logger.Warn("clearing stored project selection", "error", err)
	}
	c.emit(Event{Kind: ScopeChanged})
	c.invalidate(explorer.AllViews...)
}

// SelectProject makes projectID the scope of the project-dependent
// views. The project must be in the cached project list.
func (c *Controller) SelectProject(projectID int64) (taiga.Project, error) {
	project, ok := c.session.CachedProject(projectID)
	if !ok {
		return taiga.Project{}, fmt.Errorf("project %d is not in the project list; run 'taiga refresh' if it is new", projectID)
	}
	if err := kvstore.Update(c.store, KeyScope, persistedScope{ProjectID: projectID}); err != nil {
		return taiga.Project{}, fmt.Errorf("saving project selection: %w", err)
	}
	c.mu.Lock()
	c.scope.ProjectID = projectID
	c.mu.Unlock()
	c.logger.Debug("project selected", "project", project.Slug)

	c.emit(Event{Kind: ScopeChanged})
	c.invalidate(scopeViews...)
	return project, nil
}

// SelectedProject returns the selected project. ok is false when none is
// selected or it is no longer in the cache.
func (c *Controller) SelectedProject() (taiga.Project, bool) {
	projectID := c.Scope().ProjectID
	if projectID == 0 {
		return taiga.Project{}, false
	}
	return c.session.CachedProject(projectID)
}

// FindProject resolves a project by id, slug, or case-insensitive name
// in the cached list.
func (c *Controller) FindProject(reference string) (taiga.Project, error) {
	reference = strings.TrimSpace(reference)
	projects := c.session.CachedProjects()
	for _, project := range projects {
		if fmt.Sprint(project.ID) == reference || project.Slug == reference {
			return project, nil
		}
	}
	for _, project := range projects {
		if strings.EqualFold(project.Name, reference) {
			return project, nil
		}
	}
	if !c.session.LoggedIn() {
		return taiga.Project{}, ErrNotLoggedIn
	}
	return taiga.Project{}, fmt.Errorf("no project matches %q", reference)
}

// Search sets the search predicate. An empty query clears it.
func (c *Controller) Search(query string) {
	query = strings.TrimSpace(query)
	c.mu.Lock()
	changed := c.scope.Query != query
	c.scope.Query = query
	c.mu.Unlock()
	if !changed {
		return
	}
	c.emit(Event{Kind: ScopeChanged})
	c.invalidate(scopeViews...)
}

// WebURL returns the web address of item.
func (c *Controller) WebURL(item explorer.Item) (string, error) {
	return explorer.WebURL(c.api.BaseURL(), item, c.session.CachedProjects())
}

// OpenExternal opens item in the web interface and returns the URL. No
// Taiga request is made.
func (c *Controller) OpenExternal(item explorer.Item) (string, error) {
	target, err := c.WebURL(item)
	if err != nil {
		return "", err
	}
	if c.opener == nil {
		return target, fmt.Errorf("no URL opener configured")
	}
	if err := c.opener.Open(target); err != nil {
		return target, fmt.Errorf("opening %s: %w", target, err)
	}
	return target, nil
}

// FindUserStory looks up a user story of the selected project by ref.
func (c *Controller) FindUserStory(ctx context.Context, ref int64) (taiga.UserStory, error) {
	if !c.session.LoggedIn() {
		return taiga.UserStory{}, ErrNotLoggedIn
	}
	projectID := c.Scope().ProjectID
	if projectID == 0 {
		return taiga.UserStory{}, ErrNoProject
	}
	listing := c.api.ListUserStories(ctx, projectID, 0)
	if listing.Failed() {
		return taiga.UserStory{}, listing.Err
	}
	for _, story := range listing.Items {
		if story.Ref == ref {
			return story, nil
		}
	}
	return taiga.UserStory{}, fmt.Errorf("user story #%d not found in the selected project", ref)
}

// CreateTask adds a task to the user story with the given ref in the
// selected project.
func (c *Controller) CreateTask(ctx context.Context, storyRef int64, subject, description string) (*taiga.Task, error) {
	story, err := c.FindUserStory(ctx, storyRef)
	if err != nil {
		return nil, err
	}
	task, err := c.api.CreateTask(ctx, taiga.TaskDraft{
		Project:     story.Project,
		UserStory:   story.ID,
		Milestone:   story.Milestone,
		Subject:     subject,
		Description: description,
	})
	if err != nil {
		if taiga.IsUnauthorized(err) {
			c.expire(err)
		}
		return nil, err
	}
	c.invalidate(scopeViews...)
	return task, nil
}
