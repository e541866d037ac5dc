// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bureau-foundation/taiga/cmd/taiga/cli"
	"github.com/bureau-foundation/taiga/lib/config"
	"github.com/bureau-foundation/taiga/lib/controller"
	"github.com/bureau-foundation/taiga/lib/explorer"
	"github.com/bureau-foundation/taiga/lib/kvstore"
	"github.com/bureau-foundation/taiga/lib/sealed"
	"github.com/bureau-foundation/taiga/lib/session"
	"github.com/bureau-foundation/taiga/lib/taiga"
	"github.com/bureau-foundation/taiga/lib/version"
)

// environment is everything a command needs to talk to Taiga, built
// from the configuration and the local state file.
type environment struct {
	config     *config.Config
	session    *session.Session
	client     *taiga.Client
	controller *controller.Controller
	logger     *slog.Logger
}

// loadConfig loads and validates the configuration selected by the
// global flags.
func loadConfig(global globalParams) (*config.Config, error) {
	cfg, err := config.Load(global.ConfigPath, global.Profile)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration in %s:\n%w", cfg.Path(), err)
	}
	return cfg, nil
}

// logger returns the command logger at the configured level, or debug
// with --verbose.
func (a *app) logger(cfg *config.Config, global globalParams) *slog.Logger {
	level, err := cli.ParseLevel(cfg.Log.Level)
	if err != nil || global.Verbose {
		level = slog.LevelDebug
	}
	return cli.NewLogger(a.streams.Err, level)
}

// open loads the configuration and builds the environment. opener may
// be nil for commands that never open URLs.
func (a *app) open(global globalParams, opener controller.Opener) (*environment, error) {
	cfg, err := loadConfig(global)
	if err != nil {
		return nil, err
	}
	return openEnvironment(cfg, a.logger(cfg, global), opener)
}

func openEnvironment(cfg *config.Config, logger *slog.Logger, opener controller.Opener) (*environment, error) {
	compression, err := kvstore.ParseCompression(cfg.State.Compression)
	if err != nil {
		return nil, cli.Validation("state.compression: %w", err)
	}
	store, err := kvstore.OpenFile(cfg.State.Path, kvstore.FileOptions{
		Compression: compression,
		Logger:      logger,
	})
	if err != nil {
		if errors.Is(err, kvstore.ErrCorrupt) {
			return nil, cli.Internal("%w\n\nDelete the file to start over (you will need to log in again).", err)
		}
		return nil, cli.Internal("opening state: %w", err)
	}
	identity, err := sealed.LoadOrCreate(cfg.State.Identity)
	if err != nil {
		return nil, cli.Internal("loading sealing identity: %w", err)
	}
	sess, err := session.Open(session.Config{
		Store:  store,
		Sealer: identity,
		Logger: logger,
	})
	if err != nil {
		return nil, cli.Internal("%w", err)
	}

	userAgent := cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	client, err := taiga.NewClient(taiga.Config{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.HTTP.Timeout,
		Tokens:    sess,
		UserAgent: userAgent,
		Logger:    logger,
	})
	if err != nil {
		return nil, cli.Validation("%w", err)
	}

	ctrl, err := controller.New(controller.Config{
		API:              client,
		Session:          sess,
		Store:            store,
		Opener:           opener,
		RememberUsername: cfg.RememberUsername,
		Display: explorer.Display{
			TitleWidth:    cfg.Display.TitleWidth,
			AssigneeWidth: cfg.Display.AssigneeWidth,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, cli.Internal("%w", err)
	}

	return &environment{
		config:     cfg,
		session:    sess,
		client:     client,
		controller: ctrl,
		logger:     logger,
	}, nil
}

func (e *environment) Close() {
	e.controller.Close()
}

// classify assigns a category to an error from the lower layers.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var commandError *cli.CommandError
	switch {
	case errors.As(err, &commandError):
		return err
	case errors.Is(err, controller.ErrNotLoggedIn), errors.Is(err, taiga.ErrNotAuthenticated):
		return cli.Forbidden("%w; run 'taiga login'", err)
	case taiga.IsUnauthorized(err):
		return cli.Forbidden("the session has expired; run 'taiga login': %w", err)
	case taiga.StatusCode(err) == http.StatusForbidden:
		return cli.Forbidden("%w", err)
	case errors.Is(err, controller.ErrNoProject), errors.Is(err, controller.ErrNoCredentials):
		return cli.Validation("%w", err)
	case taiga.IsNetwork(err):
		return cli.Transient("%w", err)
	case taiga.IsNotFound(err):
		return cli.NotFound("%w", err)
	case taiga.StatusCode(err) >= 500:
		return cli.Transient("%w", err)
	default:
		return cli.Internal("%w", err)
	}
}

// placeholderError turns a placeholder standing in for a whole listing
// into an error. Empty listings are not errors and yield nil.
func placeholderError(placeholder explorer.Placeholder) error {
	switch placeholder.Reason {
	case explorer.NeedLogin:
		return cli.Forbidden("%s; run 'taiga login'", placeholder.Message)
	case explorer.NeedProject:
		return cli.Validation("%s; run 'taiga use <project>'", placeholder.Message)
	case explorer.NeedQuery:
		return cli.Validation("%s", placeholder.Message)
	case explorer.LoadFailed:
		if placeholder.Err == nil {
			return cli.Internal("%s", placeholder.Message)
		}
		return &cli.CommandError{
			Category: cli.CategoryOf(classify(placeholder.Err)),
			Err:      fmt.Errorf("%s: %w", placeholder.Message, placeholder.Err),
		}
	default:
		return nil
	}
}
