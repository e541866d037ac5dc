// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points every location the package consults at a temporary
// directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("TAIGA_CONFIG", "")
	t.Setenv("TAIGA_PROFILE", "")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	if cfg.BaseURL != "https://taiga.handisport.org" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Display.TitleWidth != 60 || cfg.Display.AssigneeWidth != 15 {
		t.Errorf("Display = %+v, want 60/15", cfg.Display)
	}
	if want := filepath.Join(dir, "state", "taiga", "state"); cfg.State.Path != want {
		t.Errorf("State.Path = %q, want %q", cfg.State.Path, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate(Default()) = %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if want := filepath.Join(dir, "config", "taiga", "config.yaml"); cfg.Path() != want {
		t.Errorf("Path() = %q, want %q", cfg.Path(), want)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "absent.yaml"), "")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
base_url: https://tree.taiga.io
username: marie
state:
  path: ${HOME}/taiga-state
  compression: lz4
display:
  title_width: 40
http:
  timeout: 15s
log:
  level: debug
`)
	t.Setenv("TAIGA_CONFIG", path)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://tree.taiga.io" || cfg.Username != "marie" {
		t.Errorf("instance = %q/%q", cfg.BaseURL, cfg.Username)
	}
	if want := filepath.Join(dir, "taiga-state"); cfg.State.Path != want {
		t.Errorf("State.Path = %q, want %q", cfg.State.Path, want)
	}
	if cfg.State.Compression != "lz4" {
		t.Errorf("Compression = %q", cfg.State.Compression)
	}
	if cfg.Display.TitleWidth != 40 || cfg.Display.AssigneeWidth != 15 {
		t.Errorf("Display = %+v, want title 40 and default assignee 15", cfg.Display)
	}
	if cfg.HTTP.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.HTTP.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadProfile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
base_url: https://taiga.handisport.org
profile: work
profiles:
  work:
    base_url: https://taiga.work.example
    username: mcurie
  home:
    base_url: https://tree.taiga.io
    state_path: ${HOME}/home.state
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://taiga.work.example" || cfg.Username != "mcurie" {
		t.Errorf("work profile not applied: %q/%q", cfg.BaseURL, cfg.Username)
	}
	if !strings.HasSuffix(cfg.State.Path, "state-work") {
		t.Errorf("State.Path = %q, want per-profile file", cfg.State.Path)
	}

	cfg, err = Load(path, "home")
	if err != nil {
		t.Fatalf("Load(home): %v", err)
	}
	if cfg.BaseURL != "https://tree.taiga.io" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if want := filepath.Join(dir, "home.state"); cfg.State.Path != want {
		t.Errorf("State.Path = %q, want %q", cfg.State.Path, want)
	}

	if _, err := Load(path, "missing"); err == nil {
		t.Error("Load accepted an undefined profile")
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.BaseURL = "taiga.example"
	cfg.State.Compression = "gzip"
	cfg.Display.TitleWidth = 3
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, fragment := range []string{"base_url", "state.compression", "display.title_width", "log.level"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("Validate error %q does not mention %s", err, fragment)
		}
	}
}

func TestRememberUsername(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config", "taiga", "config.yaml")
	writeFile(t, path, "state:\n  path: ${HOME}/s\n")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.RememberUsername("marie"); err != nil {
		t.Fatalf("RememberUsername: %v", err)
	}
	if cfg.Username != "marie" {
		t.Errorf("Username = %q after remember", cfg.Username)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "${HOME}/s") {
		t.Errorf("Update expanded variables in the file:\n%s", data)
	}
	if strings.Contains(string(data), "title_width") {
		t.Errorf("Update wrote defaults into the file:\n%s", data)
	}

	reloaded, err := Load("", "")
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Username != "marie" {
		t.Errorf("reloaded Username = %q", reloaded.Username)
	}
}

func TestRememberUsernameUnderProfile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "profiles:\n  work:\n    base_url: https://taiga.work.example\n")

	cfg, err := Load(path, "work")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.RememberUsername("mcurie"); err != nil {
		t.Fatal(err)
	}
	reloaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Username != "" {
		t.Errorf("top-level Username = %q, want untouched", reloaded.Username)
	}
	if got := reloaded.Profiles["work"].Username; got != "mcurie" {
		t.Errorf("profile Username = %q, want mcurie", got)
	}
	if got := reloaded.Profiles["work"].BaseURL; got != "https://taiga.work.example" {
		t.Errorf("profile BaseURL = %q, want preserved", got)
	}
}
