// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/taiga/cmd/taiga/cli"
	"github.com/bureau-foundation/taiga/lib/explorer"
	"github.com/bureau-foundation/taiga/lib/taiga"
	"github.com/bureau-foundation/taiga/lib/taiga/taigatest"
)

// testEnv is an isolated home directory with a configuration pointing
// at a fake Taiga server. Every run builds a fresh command tree, so
// state carries over between runs only through the files, as it does
// between real invocations.
type testEnv struct {
	t            *testing.T
	server       *taigatest.Server
	dir          string
	configPath   string
	passwordFile string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("TAIGA_PROFILE", "")
	t.Setenv("BROWSER", "")

	server := taigatest.New(t)
	server.AddUser("polonium", taiga.User{ID: 5, Username: "marie", FullName: "Marie Curie"})
	server.SetProjects(
		taiga.Project{ID: 7, Name: "Club", Slug: "club"},
		taiga.Project{ID: 9, Name: "League", Slug: "league"},
	)
	server.SetMilestones(taiga.Milestone{ID: 3, Name: "Sprint 1", Project: 7})
	server.SetUserStories(
		taiga.UserStory{ID: 11, Ref: 42, Subject: "Member registration", Project: 7, Milestone: 3},
		taiga.UserStory{ID: 12, Ref: 43, Subject: "Fixture list", Project: 7},
	)
	server.SetTasks(taiga.Task{ID: 21, Ref: 50, Subject: "Design the form", Project: 7, Milestone: 3, UserStory: 11})

	e := &testEnv{
		t:            t,
		server:       server,
		dir:          dir,
		configPath:   filepath.Join(dir, "taiga.yaml"),
		passwordFile: filepath.Join(dir, "password"),
	}
	e.write(e.configPath, fmt.Sprintf(`base_url: %s
state:
  path: ${HOME}/state/taiga
  identity: ${HOME}/state/identity.txt
  compression: lz4
log:
  level: error
`, server.URL))
	e.write(e.passwordFile, "polonium\n")
	t.Setenv("TAIGA_CONFIG", e.configPath)
	return e
}

func (e *testEnv) write(path, content string) {
	e.t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		e.t.Fatal(err)
	}
}

func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	var out, diagnostics bytes.Buffer
	root := Root(Streams{Out: &out, Err: &diagnostics})
	err := root.Execute(context.Background(), args, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("taiga %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (e *testEnv) login() {
	e.t.Helper()
	e.mustRun("login", "marie", "--password-file", e.passwordFile)
}

func (e *testEnv) wantError(category cli.ErrorCategory, fragment string, args ...string) {
	e.t.Helper()
	_, err := e.run(args...)
	if err == nil {
		e.t.Fatalf("taiga %s succeeded, want %s error", strings.Join(args, " "), category)
	}
	if got := cli.CategoryOf(err); got != category {
		e.t.Errorf("taiga %s: category = %s, want %s (%v)", strings.Join(args, " "), got, category, err)
	}
	if !strings.Contains(err.Error(), fragment) {
		e.t.Errorf("taiga %s: error %q does not contain %q", strings.Join(args, " "), err, fragment)
	}
}

func TestLoginAndListProjects(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun("login", "marie", "--password-file", e.passwordFile)
	if !strings.Contains(out, "Successfully logged in as Marie Curie") {
		t.Errorf("login output = %q", out)
	}

	data, err := os.ReadFile(e.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "username: marie") {
		t.Errorf("username not remembered in the configuration:\n%s", data)
	}

	if diff := cmp.Diff("Club\nLeague\n", e.mustRun("projects")); diff != "" {
		t.Errorf("projects mismatch (-want +got):\n%s", diff)
	}

	var listed []struct {
		Kind  string `json:"kind"`
		Label string `json:"label"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal([]byte(e.mustRun("projects", "--json")), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 || listed[0].Kind != "project" || listed[0].URL != e.server.URL+"/project/club" {
		t.Errorf("projects --json = %+v", listed)
	}
}

func TestLoginRejected(t *testing.T) {
	e := newTestEnv(t)
	wrong := filepath.Join(e.dir, "wrong")
	e.write(wrong, "radium")
	e.wantError(cli.CategoryForbidden, "Error 401: Username or password does not matches user.",
		"login", "marie", "--password-file", wrong)
	e.wantError(cli.CategoryForbidden, "log in", "whoami")
}

func TestListingsRequireLogin(t *testing.T) {
	e := newTestEnv(t)
	for _, command := range []string{"projects", "epics", "sprints", "stories"} {
		e.wantError(cli.CategoryForbidden, explorer.MessageNeedLogin, command)
	}
}

func TestListingsRequireProject(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.wantError(cli.CategoryValidation, "Select a project to see its epics", "epics")
	e.wantError(cli.CategoryValidation, "no project selected", "tasks", "42")
}

func TestUseAndListSprints(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	if out := e.mustRun("use", "club"); out != "Using project Club\n" {
		t.Errorf("use output = %q", out)
	}
	if out := e.mustRun("use"); out != "Club (club, id 7)\n" {
		t.Errorf("use without argument = %q", out)
	}
	e.wantError(cli.CategoryNotFound, `no project matches "curling"`, "use", "curling")

	if out := e.mustRun("sprints"); out != "🏃 Sprint 1\n" {
		t.Errorf("sprints = %q", out)
	}
	out := e.mustRun("sprints", "--expand")
	for _, want := range []string{"🏃 Sprint 1\n", "\n  🔄 #42 Member registration", "\n    🔲 #50 Design the form"} {
		if !strings.Contains(out, want) {
			t.Errorf("sprints --expand lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "#43") {
		t.Errorf("unplanned story listed under the sprint:\n%s", out)
	}

	if requests := e.server.Requests("/milestones"); requests[len(requests)-1].Query.Get("project") != "7" {
		t.Errorf("milestones queried with %v", requests[len(requests)-1].Query)
	}
}

func TestEpicsEmpty(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.mustRun("use", "club")
	if out := e.mustRun("epics"); out != "No epics found\n" {
		t.Errorf("epics = %q", out)
	}
	if out := strings.TrimSpace(e.mustRun("epics", "--json")); out != "[]" {
		t.Errorf("epics --json = %q, want []", out)
	}
}

func TestSearch(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.mustRun("use", "7")

	out := e.mustRun("search", "REGIS")
	if !strings.Contains(out, "#42 Member registration") || strings.Contains(out, "#43") {
		t.Errorf("search REGIS = %q", out)
	}
	if out := e.mustRun("search", "curling"); out != "No user stories match \"curling\"\n" {
		t.Errorf("search curling = %q", out)
	}
	e.wantError(cli.CategoryValidation, "query is required", "search")
}

func TestTasks(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.mustRun("use", "club")

	if out := e.mustRun("tasks", "#42"); !strings.HasPrefix(out, "🔲 #50 Design the form") {
		t.Errorf("tasks 42 = %q", out)
	}
	if out := e.mustRun("tasks", "43"); out != explorer.MessageNoTasks+"\n" {
		t.Errorf("tasks 43 = %q", out)
	}
	e.wantError(cli.CategoryNotFound, "#99 not found", "tasks", "99")
	e.wantError(cli.CategoryValidation, "not a reference number", "tasks", "abc")
}

func TestTaskCreate(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.mustRun("use", "club")

	out := e.mustRun("task", "create", "42", "Print", "membership", "cards", "--description", "For the *new* season")
	want := fmt.Sprintf("Created task #51 Print membership cards\n%s/project/club/task/51\n", e.server.URL)
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("task create output mismatch (-want +got):\n%s", diff)
	}

	tasks := e.server.Tasks()
	created := tasks[len(tasks)-1]
	if created.UserStory != 11 || created.Milestone != 3 || created.Description != "For the *new* season" {
		t.Errorf("created task = %+v", created)
	}

	e.wantError(cli.CategoryValidation, "not both", "task", "create", "42", "x", "--subject", "y")
	e.wantError(cli.CategoryValidation, "subject is required", "task", "create", "42")
}

func TestOpenPrint(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.wantError(cli.CategoryValidation, "no project selected", "open", "--print")

	e.mustRun("use", "club")
	if out := e.mustRun("open", "--print"); out != e.server.URL+"/project/club\n" {
		t.Errorf("open --print = %q", out)
	}
	if out := e.mustRun("open", "42", "-p"); out != e.server.URL+"/project/club/us/42\n" {
		t.Errorf("open 42 -p = %q", out)
	}
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.mustRun("use", "club")

	if out := e.mustRun("logout"); out != "Logged out\n" {
		t.Errorf("logout = %q", out)
	}
	e.wantError(cli.CategoryForbidden, "log in", "whoami")
	e.wantError(cli.CategoryForbidden, explorer.MessageNeedLogin, "projects")
	e.wantError(cli.CategoryValidation, "no project selected", "use")
}

func TestWhoami(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	out := e.mustRun("whoami")
	if !strings.HasPrefix(out, "Marie Curie (marie) on "+e.server.URL+"\n") {
		t.Errorf("whoami = %q", out)
	}

	var result struct {
		Username string `json:"username"`
		BaseURL  string `json:"base_url"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal([]byte(e.mustRun("whoami", "--verify", "--json")), &result); err != nil {
		t.Fatal(err)
	}
	if result.Username != "marie" || result.BaseURL != e.server.URL || !result.Verified {
		t.Errorf("whoami --verify --json = %+v", result)
	}
}

func TestExpiredSession(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.server.SetToken("rotated")

	e.wantError(cli.CategoryForbidden, "session has expired", "whoami", "--verify")
	e.wantError(cli.CategoryForbidden, "log in", "whoami")
}

func TestRelogin(t *testing.T) {
	e := newTestEnv(t)
	e.wantError(cli.CategoryValidation, "no remembered credentials", "login", "--relogin")

	e.mustRun("login", "marie", "--password-file", e.passwordFile, "--remember")
	e.mustRun("logout")
	if out := e.mustRun("login", "--relogin"); !strings.Contains(out, "Marie Curie") {
		t.Errorf("login --relogin = %q", out)
	}

	e.mustRun("logout", "--forget")
	e.wantError(cli.CategoryValidation, "no remembered credentials", "login", "--relogin")
}

func TestRefresh(t *testing.T) {
	e := newTestEnv(t)
	e.wantError(cli.CategoryForbidden, "log in", "refresh")

	e.login()
	e.server.SetProjects(taiga.Project{ID: 9, Name: "League", Slug: "league"})
	if out := e.mustRun("refresh"); out != "Loaded 1 projects\n" {
		t.Errorf("refresh = %q", out)
	}
	if out := e.mustRun("projects"); out != "League\n" {
		t.Errorf("projects after refresh = %q", out)
	}

	e.server.Fail("/projects", 502)
	e.wantError(cli.CategoryTransient, "502", "refresh")
	if out := e.mustRun("projects"); out != "League\n" {
		t.Errorf("a failed refresh changed the cache: %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	e := newTestEnv(t)
	if out := e.mustRun("config", "path"); out != e.configPath+"\n" {
		t.Errorf("config path = %q", out)
	}
	if out := e.mustRun("config", "show"); !strings.Contains(out, "base_url: "+e.server.URL) {
		t.Errorf("config show lacks base_url:\n%s", out)
	}
}

func TestImportVSCode(t *testing.T) {
	e := newTestEnv(t)
	e.write(e.configPath, "state:\n  path: ${HOME}/state/taiga\n  identity: ${HOME}/state/identity.txt\nlog:\n  level: error\n")
	settings := filepath.Join(e.dir, "settings.json")
	e.write(settings, fmt.Sprintf(`{
	// Taiga extension
	"editor.fontSize": 13,
	"taiga.baseUrl": %q,
	"taiga.username": "marie",
	"taiga.password": "polonium",
}`, e.server.URL))

	out := e.mustRun("config", "import-vscode", "--file", settings)
	if !strings.Contains(out, "Password sealed") {
		t.Errorf("import output = %q", out)
	}
	if out := e.mustRun("login", "--relogin"); !strings.Contains(out, "Marie Curie") {
		t.Errorf("login --relogin after import = %q", out)
	}

	empty := filepath.Join(e.dir, "empty.json")
	e.write(empty, `{"editor.fontSize": 13}`)
	e.wantError(cli.CategoryNotFound, "no taiga settings", "config", "import-vscode", "--file", empty)
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)
	var details map[string]any
	if err := json.Unmarshal([]byte(e.mustRun("version", "--json")), &details); err != nil {
		t.Fatal(err)
	}
	if details["version"] == "" || details["version"] == nil {
		t.Errorf("version --json = %v", details)
	}
	if out := e.mustRun("version"); !strings.HasPrefix(out, "taiga ") {
		t.Errorf("version = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	e := newTestEnv(t)
	e.wantError(cli.CategoryValidation, `did you mean "sprints"`, "sprint")
}
