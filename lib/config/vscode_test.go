// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"testing"
)

func TestReadVSCodeSettingsFlat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{
	// editor settings
	"editor.fontSize": 14,
	"taiga.baseUrl": "https://taiga.handisport.org",
	"taiga.username": "marie",
	/* stored by the extension */
	"taiga.password": "hunter2",
}`)

	settings, err := ReadVSCodeSettings(path)
	if err != nil {
		t.Fatalf("ReadVSCodeSettings: %v", err)
	}
	want := VSCodeSettings{BaseURL: "https://taiga.handisport.org", Username: "marie", Password: "hunter2"}
	if settings != want {
		t.Errorf("settings = %+v, want %+v", settings, want)
	}
}

func TestReadVSCodeSettingsNested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{"taiga": {"baseUrl": "https://tree.taiga.io", "username": "nested"}, "taiga.username": "flat"}`)

	settings, err := ReadVSCodeSettings(path)
	if err != nil {
		t.Fatalf("ReadVSCodeSettings: %v", err)
	}
	if settings.BaseURL != "https://tree.taiga.io" {
		t.Errorf("BaseURL = %q", settings.BaseURL)
	}
	if settings.Username != "flat" {
		t.Errorf("Username = %q, want flat key to win", settings.Username)
	}
}

func TestReadVSCodeSettingsWithoutTaiga(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{"editor.tabSize": 4}`)
	settings, err := ReadVSCodeSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if !settings.Empty() {
		t.Errorf("settings = %+v, want empty", settings)
	}
}

func TestReadVSCodeSettingsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, path, `{"taiga.username": 42}`)
	if _, err := ReadVSCodeSettings(path); err == nil {
		t.Error("accepted a non-string username")
	}
}
