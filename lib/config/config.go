// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/taiga/lib/kvstore"
	"github.com/bureau-foundation/taiga/lib/taiga"
)

// DefaultBaseURL is the Taiga instance used when none is configured.
const DefaultBaseURL = "https://taiga.handisport.org"

// Config is the client configuration.
type Config struct {
	// BaseURL is the web address of the Taiga instance.
	BaseURL string `yaml:"base_url,omitempty"`

	// Username pre-fills the login prompt. Updated after a successful
	// interactive login.
	Username string `yaml:"username,omitempty"`

	// Profile names the entry of Profiles to apply.
	Profile string `yaml:"profile,omitempty"`

	// Profiles holds per-instance overrides keyed by name.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`

	State   StateConfig   `yaml:"state,omitempty"`
	Display DisplayConfig `yaml:"display,omitempty"`
	HTTP    HTTPConfig    `yaml:"http,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`

	// path is the file this configuration was read from, empty for
	// pure defaults.
	path string
}

// Profile overrides instance-specific settings.
type Profile struct {
	BaseURL  string `yaml:"base_url,omitempty"`
	Username string `yaml:"username,omitempty"`

	// StatePath gives the profile its own session. Defaults to a file
	// named after the profile next to the default state file.
	StatePath string `yaml:"state_path,omitempty"`
}

// StateConfig locates the persistent session state.
type StateConfig struct {
	// Path is the state file.
	Path string `yaml:"path,omitempty"`

	// Identity is the age identity file used to seal credentials.
	Identity string `yaml:"identity,omitempty"`

	// Compression is "zstd", "lz4", or "none".
	Compression string `yaml:"compression,omitempty"`
}

// DisplayConfig controls how resources are rendered.
type DisplayConfig struct {
	// TitleWidth is the maximum rendered title length in characters.
	TitleWidth int `yaml:"title_width,omitempty"`

	// AssigneeWidth is the longest assignee name shown untruncated.
	AssigneeWidth int `yaml:"assignee_width,omitempty"`
}

// HTTPConfig configures the API transport.
type HTTPConfig struct {
	// Timeout bounds each request. Zero leaves requests unbounded
	// apart from the transport's own dial and TLS timeouts.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level,omitempty"`

	// File receives log records in addition to the terminal. Used by
	// the interactive browser, which cannot write to stderr while it
	// owns the screen.
	File string `yaml:"file,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	stateDir := filepath.Join(stateHome(), "taiga")
	return &Config{
		BaseURL: DefaultBaseURL,
		State: StateConfig{
			Path:        filepath.Join(stateDir, "state"),
			Identity:    filepath.Join(stateDir, "identity.txt"),
			Compression: "zstd",
		},
		Display: DisplayConfig{
			TitleWidth:    60,
			AssigneeWidth: 15,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/taiga/config.yaml (or the
// platform equivalent).
func DefaultPath() string {
	configHome, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "taiga", "config.yaml")
}

func stateHome() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state")
}

// Load resolves and loads the configuration. explicitPath is the value
// of a --config flag and takes precedence over TAIGA_CONFIG; profile
// (from a --profile flag) takes precedence over TAIGA_PROFILE and the
// file's own profile key.
func Load(explicitPath, profile string) (*Config, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv("TAIGA_CONFIG")
	}

	var cfg *Config
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		loaded, err := LoadFile(DefaultPath())
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
			cfg = Default()
			cfg.path = DefaultPath()
		default:
			return nil, err
		}
	}

	if profile == "" {
		profile = os.Getenv("TAIGA_PROFILE")
	}
	if profile != "" {
		cfg.Profile = profile
	}
	if err := cfg.applyProfile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a configuration file over the defaults and expands
// ${VAR} and ${VAR:-default} references in path settings. Profiles are
// not applied; see Load.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.path = path
	cfg.expandVariables()
	return cfg, nil
}

// Path returns the file the configuration was loaded from, or the
// default location when no file existed.
func (c *Config) Path() string { return c.path }

// applyProfile overlays the selected profile onto the top-level
// settings.
func (c *Config) applyProfile() error {
	if c.Profile == "" {
		return nil
	}
	profile, ok := c.Profiles[c.Profile]
	if !ok {
		return fmt.Errorf("profile %q is not defined in %s", c.Profile, c.path)
	}
	if profile.BaseURL != "" {
		c.BaseURL = profile.BaseURL
	}
	if profile.Username != "" {
		c.Username = profile.Username
	}
	if profile.StatePath != "" {
		c.State.Path = expandVars(profile.StatePath, c.vars())
	} else {
		c.State.Path = filepath.Join(filepath.Dir(c.State.Path), "state-"+c.Profile)
	}
	return nil
}

func (c *Config) vars() map[string]string {
	return map[string]string{
		"HOME":           os.Getenv("HOME"),
		"XDG_STATE_HOME": stateHome(),
	}
}

func (c *Config) expandVariables() {
	vars := c.vars()
	c.State.Path = expandVars(c.State.Path, vars)
	c.State.Identity = expandVars(c.State.Identity, vars)
	c.Log.File = expandVars(c.Log.File, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. Provided vars win over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, fallback := parts[1], parts[2]
		if value := vars[name]; value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// LogLevels lists the accepted log.level values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := taiga.NormalizeBaseURL(c.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("base_url: %w", err))
	}
	if c.State.Path == "" {
		errs = append(errs, fmt.Errorf("state.path is required"))
	}
	if c.State.Identity == "" {
		errs = append(errs, fmt.Errorf("state.identity is required"))
	}
	if _, err := kvstore.ParseCompression(c.State.Compression); err != nil {
		errs = append(errs, fmt.Errorf("state.compression: %w", err))
	}
	if c.Display.TitleWidth < 10 {
		errs = append(errs, fmt.Errorf("display.title_width must be at least 10, got %d", c.Display.TitleWidth))
	}
	if c.Display.AssigneeWidth < 4 {
		errs = append(errs, fmt.Errorf("display.assignee_width must be at least 4, got %d", c.Display.AssigneeWidth))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout must not be negative"))
	}
	if !slices.Contains(LogLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %v, got %q", LogLevels, c.Log.Level))
	}

	return errors.Join(errs...)
}

// Update applies change to the configuration file at path and writes
// it back atomically. The file is edited as written: variables are not
// expanded and profiles are not applied, so references like ${HOME}
// survive. A missing file starts empty rather than from the defaults so
// that only settings the user changed are persisted.
func Update(path string, change func(*Config)) error {
	if path == "" {
		return fmt.Errorf("config has no file path")
	}
	raw := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, raw); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("reading config: %w", err)
	}

	change(raw)

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(raw); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := atomic.WriteFile(path, &buffer); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// RememberUsername persists username for the active profile (or the
// top level when no profile is active) and updates c.
func (c *Config) RememberUsername(username string) error {
	profile := c.Profile
	err := Update(c.path, func(raw *Config) {
		if profile == "" {
			raw.Username = username
			return
		}
		if raw.Profiles == nil {
			raw.Profiles = make(map[string]Profile)
		}
		entry := raw.Profiles[profile]
		entry.Username = username
		raw.Profiles[profile] = entry
	})
	if err != nil {
		return err
	}
	c.Username = username
	return nil
}

// Marshal returns the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
