// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/taiga/lib/taiga"
)

// fakeAPI serves listings from memory. An entry in errs makes the named
// listing fail.
type fakeAPI struct {
	mu         sync.Mutex
	milestones []taiga.Milestone
	stories    []taiga.UserStory
	tasks      []taiga.Task
	epics      []taiga.Epic
	errs       map[string]error
	calls      []string
}

func (api *fakeAPI) record(call string) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.calls = append(api.calls, call)
	for prefix, err := range api.errs {
		if strings.HasPrefix(call, prefix) {
			return err
		}
	}
	return nil
}

func (api *fakeAPI) Calls() []string {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]string(nil), api.calls...)
}

func (api *fakeAPI) ListMilestones(_ context.Context, projectID int64) taiga.Listing[taiga.Milestone] {
	if err := api.record(fmt.Sprintf("milestones project=%d", projectID)); err != nil {
		return taiga.Listing[taiga.Milestone]{Items: []taiga.Milestone{}, Err: err}
	}
	items := []taiga.Milestone{}
	for _, milestone := range api.milestones {
		if milestone.Project == projectID {
			items = append(items, milestone)
		}
	}
	return taiga.Listing[taiga.Milestone]{Items: items}
}

func (api *fakeAPI) ListUserStories(_ context.Context, projectID, milestoneID int64) taiga.Listing[taiga.UserStory] {
	if err := api.record(fmt.Sprintf("userstories project=%d milestone=%d", projectID, milestoneID)); err != nil {
		return taiga.Listing[taiga.UserStory]{Items: []taiga.UserStory{}, Err: err}
	}
	items := []taiga.UserStory{}
	for _, story := range api.stories {
		if story.Project == projectID && (milestoneID == 0 || story.Milestone == milestoneID) {
			items = append(items, story)
		}
	}
	return taiga.Listing[taiga.UserStory]{Items: items}
}

func (api *fakeAPI) ListTasks(_ context.Context, userStoryID int64) taiga.Listing[taiga.Task] {
	if err := api.record(fmt.Sprintf("tasks user_story=%d", userStoryID)); err != nil {
		return taiga.Listing[taiga.Task]{Items: []taiga.Task{}, Err: err}
	}
	items := []taiga.Task{}
	for _, task := range api.tasks {
		if task.UserStory == userStoryID {
			items = append(items, task)
		}
	}
	return taiga.Listing[taiga.Task]{Items: items}
}

func (api *fakeAPI) ListEpics(_ context.Context, projectID int64) taiga.Listing[taiga.Epic] {
	if err := api.record(fmt.Sprintf("epics project=%d", projectID)); err != nil {
		return taiga.Listing[taiga.Epic]{Items: []taiga.Epic{}, Err: err}
	}
	items := []taiga.Epic{}
	for _, epic := range api.epics {
		if epic.Project == projectID {
			items = append(items, epic)
		}
	}
	return taiga.Listing[taiga.Epic]{Items: items}
}

type fakeSession struct {
	loggedIn bool
	projects []taiga.Project
}

func (s *fakeSession) LoggedIn() bool                  { return s.loggedIn }
func (s *fakeSession) CachedProjects() []taiga.Project { return s.projects }

// mutableScope is a ScopeSource tests can change between requests.
type mutableScope struct {
	mu    sync.Mutex
	scope Scope
}

func (s *mutableScope) Scope() Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

func (s *mutableScope) Set(scope Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = scope
}

type fixture struct {
	api          *fakeAPI
	session      *fakeSession
	scope        *mutableScope
	materializer *Materializer
	unauthorized []error
}

const projectID = 7

var sampleProject = taiga.Project{ID: projectID, Name: "Handisport", Slug: "handisport", Description: "Club tools"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api: &fakeAPI{
			milestones: []taiga.Milestone{
				{ID: 1, Name: "Sprint 1", Slug: "sprint-1", Project: projectID, EstimatedStart: "2026-03-02", EstimatedFinish: "2026-03-16", Closed: true},
				{ID: 2, Name: "Sprint 2", Slug: "sprint-2", Project: projectID, EstimatedStart: "2026-03-16"},
			},
			stories: []taiga.UserStory{
				{ID: 11, Ref: 42, Subject: "Member registration", Project: projectID, Milestone: 1, IsClosed: true,
					Status: &taiga.StatusExtraInfo{Name: "Done", IsClosed: true}},
				{ID: 12, Ref: 43, Subject: "Licence renewal", Project: projectID, Milestone: 2,
					Status:     &taiga.StatusExtraInfo{Name: "In progress"},
					AssignedTo: &taiga.AssigneeExtraInfo{Username: "mcurie", FullNameDisplay: "Marie Curie"}},
				{ID: 13, Ref: 7, Subject: "Ticket 142 import", Project: projectID},
			},
			tasks: []taiga.Task{
				{ID: 21, Ref: 50, Subject: "Form layout", Project: projectID, UserStory: 12},
				{ID: 22, Ref: 51, Subject: "Payment hook", Project: projectID, UserStory: 12, IsClosed: true},
			},
			epics: []taiga.Epic{
				{ID: 31, Ref: 1, Subject: "Membership", Project: projectID},
				{ID: 32, Ref: 2, Subject: "Competitions", Project: projectID, IsClosed: true},
			},
		},
		session: &fakeSession{loggedIn: true, projects: []taiga.Project{sampleProject}},
		scope:   &mutableScope{scope: Scope{ProjectID: projectID}},
	}
	materializer, err := New(Config{
		API:            f.api,
		Session:        f.session,
		Scope:          f.scope,
		OnUnauthorized: func(err error) { f.unauthorized = append(f.unauthorized, err) },
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.materializer = materializer
	return f
}

func labels(nodes []Node) []string {
	result := make([]string, len(nodes))
	for i, node := range nodes {
		result[i] = node.Label
	}
	return result
}

// onlyPlaceholder fails the test unless nodes is a single placeholder
// with the given reason, and returns it.
func onlyPlaceholder(t *testing.T, nodes []Node, reason PlaceholderReason) Placeholder {
	t.Helper()
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes %v, want a single placeholder", len(nodes), labels(nodes))
	}
	placeholder, ok := nodes[0].Item.(Placeholder)
	if !ok {
		t.Fatalf("node is %T, want Placeholder", nodes[0].Item)
	}
	if placeholder.Reason != reason {
		t.Fatalf("placeholder reason = %v (%q), want %v", placeholder.Reason, placeholder.Message, reason)
	}
	if nodes[0].Collapsible {
		t.Error("placeholder is collapsible")
	}
	return placeholder
}
