// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/taiga/lib/secret"
)

// newTestClient creates a Client against server with a fixed token.
func newTestClient(t *testing.T, server *httptest.Server, token string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    server.URL + "/",
		HTTPClient: server.Client(),
		Tokens:     StaticToken(token),
		UserAgent:  "taiga-test",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func newPassword(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	password, err := secret.NewFromString(value)
	if err != nil {
		t.Fatalf("secret.NewFromString: %v", err)
	}
	t.Cleanup(func() { password.Close() })
	return password
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"https://taiga.handisport.org", "https://taiga.handisport.org", false},
		{"https://tree.taiga.io///", "https://tree.taiga.io", false},
		{"  http://localhost:9000/ ", "http://localhost:9000", false},
		{"", "", true},
		{"ftp://taiga.example", "", true},
		{"taiga.example", "", true},
		{"https://", "", true},
	}
	for _, test := range tests {
		got, err := NormalizeBaseURL(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("NormalizeBaseURL(%q) err = %v, wantErr %v", test.input, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/auth" {
			t.Errorf("request = %s %s, want POST /api/v1/auth", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("login sent Authorization header %q", got)
		}
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding login body: %v", err)
		}
		want := loginRequest{Type: "normal", Username: "marie", Password: "s3cret"}
		if body != want {
			t.Errorf("login body = %+v, want %+v", body, want)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"auth_token":"tok-123","refresh":"ref-456","id":5,"username":"marie","email":"marie@example.org","full_name":"Marie Curie"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, "")
	result, err := client.Login(context.Background(), " marie ", newPassword(t, "s3cret"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	want := &AuthResult{
		User:         User{ID: 5, Username: "marie", Email: "marie@example.org", FullName: "Marie Curie"},
		AuthToken:    "tok-123",
		RefreshToken: "ref-456",
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("AuthResult mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"Account disabled"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, "")
	_, err := client.Login(context.Background(), "marie", newPassword(t, "wrong"))

	var authError *AuthenticationError
	if !errors.As(err, &authError) {
		t.Fatalf("err = %v (%T), want *AuthenticationError", err, err)
	}
	if authError.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", authError.StatusCode)
	}
	if authError.Detail != "Account disabled" {
		t.Errorf("Detail = %q, want %q", authError.Detail, "Account disabled")
	}
}

func TestLoginErrorMessageField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"_error_message":"Username or password does not matches user.","_error_type":"taiga.base.exceptions.WrongArguments"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, "").Login(context.Background(), "marie", newPassword(t, "x"))
	var authError *AuthenticationError
	if !errors.As(err, &authError) {
		t.Fatalf("err = %v, want *AuthenticationError", err)
	}
	if authError.Detail != "Username or password does not matches user." {
		t.Errorf("Detail = %q", authError.Detail)
	}
}

func TestLoginMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":5,"username":"marie"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, "").Login(context.Background(), "marie", newPassword(t, "x"))
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want *MalformedResponseError", err)
	}
}

func TestLoginUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := newTestClient(t, server, "")
	server.Close()

	_, err := client.Login(context.Background(), "marie", newPassword(t, "x"))
	if !IsNetwork(err) {
		t.Fatalf("err = %v (%T), want *NetworkError", err, err)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://taiga.example"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Login(context.Background(), "  ", newPassword(t, "x")); err == nil {
		t.Error("Login accepted an empty username")
	}
	if _, err := client.Login(context.Background(), "marie", nil); err == nil {
		t.Error("Login accepted a nil password")
	}
}

func TestListProjects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects" {
			t.Errorf("path = %q, want /api/v1/projects", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok-123")
		}
		if got := r.Header.Get("x-disable-pagination"); got != "True" {
			t.Errorf("x-disable-pagination = %q, want True", got)
		}
		if got := r.Header.Get("User-Agent"); got != "taiga-test" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Write([]byte(`[{"id":2,"name":"Beta","slug":"beta"},{"id":1,"name":"Alpha","slug":"alpha","is_private":true}]`))
	}))
	defer server.Close()

	listing := newTestClient(t, server, "tok-123").ListProjects(context.Background())
	if listing.Failed() {
		t.Fatalf("listing failed: %v", listing.Err)
	}
	want := []Project{
		{ID: 2, Name: "Beta", Slug: "beta"},
		{ID: 1, Name: "Alpha", Slug: "alpha", IsPrivate: true},
	}
	if diff := cmp.Diff(want, listing.Items); diff != "" {
		t.Errorf("projects mismatch (-want +got):\n%s", diff)
	}
}

func TestListQueries(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer server.Close()
	client := newTestClient(t, server, "tok")
	ctx := context.Background()

	tests := []struct {
		name string
		call func()
		want string
	}{
		{"milestones", func() { client.ListMilestones(ctx, 7) }, "/api/v1/milestones?project=7"},
		{"stories of project", func() { client.ListUserStories(ctx, 7, 0) }, "/api/v1/userstories?project=7"},
		{"stories of sprint", func() { client.ListUserStories(ctx, 7, 31) }, "/api/v1/userstories?milestone=31&project=7"},
		{"tasks", func() { client.ListTasks(ctx, 88) }, "/api/v1/tasks?user_story=88"},
		{"epics", func() { client.ListEpics(ctx, 9) }, "/api/v1/epics?project=9"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.call()
			if gotQuery != test.want {
				t.Errorf("request = %q, want %q", gotQuery, test.want)
			}
		})
	}
}

func TestListUserStoriesDecodesExtraInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"id": 101, "ref": 42, "subject": "Login page", "is_closed": false,
			"project": 7, "milestone": null,
			"status_extra_info": {"name": "In progress", "color": "#ff0", "is_closed": false},
			"assigned_to_extra_info": null,
			"project_extra_info": {"id": 7, "name": "Handisport", "slug": "handisport"}
		}]`))
	}))
	defer server.Close()

	listing := newTestClient(t, server, "tok").ListUserStories(context.Background(), 7, 0)
	if listing.Failed() {
		t.Fatalf("listing failed: %v", listing.Err)
	}
	want := []UserStory{{
		ID: 101, Ref: 42, Subject: "Login page", Project: 7,
		Status:      &StatusExtraInfo{Name: "In progress", Color: "#ff0"},
		ProjectInfo: &ProjectExtraInfo{ID: 7, Name: "Handisport", Slug: "handisport"},
	}}
	if diff := cmp.Diff(want, listing.Items); diff != "" {
		t.Errorf("stories mismatch (-want +got):\n%s", diff)
	}
}

func TestListServerErrorYieldsEmptyListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>Internal Server Error</html>"))
	}))
	defer server.Close()

	listing := newTestClient(t, server, "tok").ListMilestones(context.Background(), 7)
	if listing.Items == nil || len(listing.Items) != 0 {
		t.Fatalf("Items = %#v, want empty non-nil slice", listing.Items)
	}
	if !listing.Failed() {
		t.Fatal("listing not marked failed")
	}
	if StatusCode(listing.Err) != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", StatusCode(listing.Err))
	}
}

func TestListUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid token"}`))
	}))
	defer server.Close()

	listing := newTestClient(t, server, "expired").ListEpics(context.Background(), 7)
	if !IsUnauthorized(listing.Err) {
		t.Fatalf("Err = %v, want unauthorized", listing.Err)
	}
	var fetchError *FetchError
	if !errors.As(listing.Err, &fetchError) || fetchError.Detail != "Invalid token" {
		t.Errorf("Err = %#v, want FetchError with detail", listing.Err)
	}
}

func TestListWithoutTokenSendsNothing(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	listing := newTestClient(t, server, "").ListProjects(context.Background())
	if !errors.Is(listing.Err, ErrNotAuthenticated) {
		t.Errorf("Err = %v, want ErrNotAuthenticated", listing.Err)
	}
	if requests != 0 {
		t.Errorf("server saw %d requests, want 0", requests)
	}
}

func TestListMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	listing := newTestClient(t, server, "tok").ListTasks(context.Background(), 1)
	var malformed *MalformedResponseError
	if !errors.As(listing.Err, &malformed) {
		t.Fatalf("Err = %v, want *MalformedResponseError", listing.Err)
	}
	if len(listing.Items) != 0 {
		t.Errorf("Items = %v, want empty", listing.Items)
	}
}

func TestMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/me" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-disable-pagination") != "" {
			t.Error("Me sent the pagination header")
		}
		w.Write([]byte(`{"id":5,"username":"marie","full_name":""}`))
	}))
	defer server.Close()

	user, err := newTestClient(t, server, "tok").Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.DisplayName() != "marie" {
		t.Errorf("DisplayName() = %q, want username fallback", user.DisplayName())
	}
}

func TestCreateTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/tasks" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var draft TaskDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Fatalf("decoding draft: %v", err)
		}
		want := TaskDraft{Project: 7, UserStory: 101, Subject: "Write tests"}
		if draft != want {
			t.Errorf("draft = %+v, want %+v", draft, want)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":900,"ref":57,"subject":"Write tests","project":7,"user_story":101}`))
	}))
	defer server.Close()

	task, err := newTestClient(t, server, "tok").CreateTask(context.Background(),
		TaskDraft{Project: 7, UserStory: 101, Subject: "  Write tests "})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Ref != 57 || task.UserStory != 101 {
		t.Errorf("task = %+v", task)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://taiga.example", Tokens: StaticToken("tok")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.CreateTask(context.Background(), TaskDraft{Subject: "x"}); err == nil {
		t.Error("CreateTask accepted a draft without project")
	}
	if _, err := client.CreateTask(context.Background(), TaskDraft{Project: 1, Subject: " "}); err == nil {
		t.Error("CreateTask accepted an empty subject")
	}
}
