// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package taigatest provides an in-process fake of the Taiga REST API
// for tests of packages that sit above lib/taiga.
//
// The fake serves /api/v1/auth, /users/me, and the list endpoints for
// projects, milestones, user stories, tasks and epics, filtering by the
// same query parameters the real server accepts. It also accepts task
// creation. Individual paths can be made to fail with a given status,
// and every request is recorded for assertions.
package taigatest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/taiga/lib/taiga"
)

// Token is the bearer token the fake issues on login and accepts on
// authenticated calls unless changed with SetToken.
const Token = "test-auth-token"

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
}

// Server is a fake Taiga instance.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	token      string
	accounts   map[string]account
	projects   []taiga.Project
	milestones []taiga.Milestone
	stories    []taiga.UserStory
	tasks      []taiga.Task
	epics      []taiga.Epic
	failures   map[string]int
	requests   []Request
	nextID     int64
}

type account struct {
	password string
	user     taiga.User
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	server := &Server{
		token:    Token,
		accounts: make(map[string]account),
		failures: make(map[string]int),
		nextID:   10000,
	}
	server.Server = httptest.NewServer(http.HandlerFunc(server.serve))
	t.Cleanup(server.Close)
	return server
}

// AddUser registers login credentials.
func (s *Server) AddUser(password string, user taiga.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[user.Username] = account{password: password, user: user}
}

// SetToken changes the token issued on login and accepted afterwards.
// Changing it invalidates tokens already handed out.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetProjects replaces the project collection.
func (s *Server) SetProjects(projects ...taiga.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = projects
}

// SetMilestones replaces the milestone collection.
func (s *Server) SetMilestones(milestones ...taiga.Milestone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones = milestones
}

// SetUserStories replaces the user story collection.
func (s *Server) SetUserStories(stories ...taiga.UserStory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stories = stories
}

// SetTasks replaces the task collection.
func (s *Server) SetTasks(tasks ...taiga.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
}

// SetEpics replaces the epic collection.
func (s *Server) SetEpics(epics ...taiga.Epic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epics = epics
}

// Fail makes every request to path (relative to /api/v1, for example
// "/milestones") answer with status. A zero status clears the failure.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// Requests returns the recorded calls, optionally restricted to one
// path relative to /api/v1.
func (s *Server) Requests(path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []Request
	for _, request := range s.requests {
		if path == "" || request.Path == path {
			matched = append(matched, request)
		}
	}
	return matched
}

// ResetRequests forgets recorded calls.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Tasks returns the current task collection, including created tasks.
func (s *Server) Tasks() []taiga.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]taiga.Task(nil), s.tasks...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	path, ok := strings.CutPrefix(r.URL.Path, "/api/v1")
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: path, Query: r.URL.Query()})

	if status, failing := s.failures[path]; failing {
		writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
		return
	}

	if path == "/auth" && r.Method == http.MethodPost {
		s.login(w, r)
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+s.token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
		return
	}

	query := r.URL.Query()
	switch {
	case path == "/users/me" && r.Method == http.MethodGet:
		for _, account := range s.accounts {
			writeJSON(w, http.StatusOK, account.user)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No user"})
	case path == "/projects":
		writeJSON(w, http.StatusOK, nonNil(s.projects))
	case path == "/milestones":
		writeJSON(w, http.StatusOK, filter(s.milestones, func(m taiga.Milestone) bool {
			return matches(query, "project", m.Project)
		}))
	case path == "/userstories":
		writeJSON(w, http.StatusOK, filter(s.stories, func(story taiga.UserStory) bool {
			return matches(query, "project", story.Project) && matches(query, "milestone", story.Milestone)
		}))
	case path == "/epics":
		writeJSON(w, http.StatusOK, filter(s.epics, func(epic taiga.Epic) bool {
			return matches(query, "project", epic.Project)
		}))
	case path == "/tasks" && r.Method == http.MethodPost:
		s.createTask(w, r)
	case path == "/tasks":
		writeJSON(w, http.StatusOK, filter(s.tasks, func(task taiga.Task) bool {
			return matches(query, "user_story", task.UserStory)
		}))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type     string `json:"type"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Type != "normal" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"_error_message": "Invalid login type"})
		return
	}
	account, ok := s.accounts[body.Username]
	if !ok || account.password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"_error_message": "Username or password does not matches user.",
		})
		return
	}
	writeJSON(w, http.StatusOK, taiga.AuthResult{
		User:         account.user,
		AuthToken:    s.token,
		RefreshToken: "refresh-" + s.token,
	})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var draft taiga.TaskDraft
	if err := json.Unmarshal(data, &draft); err != nil || draft.Subject == "" || draft.Project == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"_error_message": "Invalid task"})
		return
	}
	s.nextID++
	var highestRef int64
	for _, task := range s.tasks {
		if task.Project == draft.Project {
			highestRef = max(highestRef, task.Ref)
		}
	}
	for _, story := range s.stories {
		if story.Project == draft.Project {
			highestRef = max(highestRef, story.Ref)
		}
	}
	task := taiga.Task{
		ID:          s.nextID,
		Ref:         highestRef + 1,
		Subject:     draft.Subject,
		Description: draft.Description,
		Project:     draft.Project,
		Milestone:   draft.Milestone,
		UserStory:   draft.UserStory,
		Status:      &taiga.StatusExtraInfo{Name: "New"},
	}
	s.tasks = append(s.tasks, task)
	writeJSON(w, http.StatusCreated, task)
}

// matches reports whether an optional id filter accepts value.
func matches(query url.Values, name string, value int64) bool {
	raw := query.Get(name)
	if raw == "" {
		return true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return err == nil && id == value
}

func filter[T any](items []T, keep func(T) bool) []T {
	result := []T{}
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}
