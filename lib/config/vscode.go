// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// VSCodeSettings are the Taiga entries of a VS Code settings.json as
// written by the Taiga editor extension.
type VSCodeSettings struct {
	BaseURL  string
	Username string

	// Password is set when the extension stored one in plain text. The
	// caller should seal it and advise the user to remove it from the
	// settings file.
	Password string
}

// Empty reports whether no Taiga setting was found.
func (s VSCodeSettings) Empty() bool {
	return s.BaseURL == "" && s.Username == "" && s.Password == ""
}

// DefaultVSCodeSettingsPath returns the user settings file of a standard
// VS Code installation.
func DefaultVSCodeSettingsPath() string {
	configHome, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "Code", "User", "settings.json")
}

// ReadVSCodeSettings extracts the Taiga settings from a VS Code
// settings.json. The file is JSONC: comments and trailing commas are
// accepted. Both the flat form ("taiga.baseUrl": ...) and the nested
// form ("taiga": {"baseUrl": ...}) are recognized; flat keys win.
func ReadVSCodeSettings(path string) (VSCodeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VSCodeSettings{}, fmt.Errorf("reading VS Code settings: %w", err)
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return VSCodeSettings{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	var nested struct {
		BaseURL  string `json:"baseUrl"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if raw, ok := document["taiga"]; ok {
		if err := json.Unmarshal(raw, &nested); err != nil {
			return VSCodeSettings{}, fmt.Errorf("parsing taiga section of %s: %w", path, err)
		}
	}

	settings := VSCodeSettings{
		BaseURL:  nested.BaseURL,
		Username: nested.Username,
		Password: nested.Password,
	}
	for key, target := range map[string]*string{
		"taiga.baseUrl":  &settings.BaseURL,
		"taiga.username": &settings.Username,
		"taiga.password": &settings.Password,
	} {
		raw, ok := document[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return VSCodeSettings{}, fmt.Errorf("%s in %s: %w", key, path, err)
		}
	}
	return settings, nil
}
