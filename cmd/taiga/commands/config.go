// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/taiga/cmd/taiga/cli"
	"github.com/bureau-foundation/taiga/lib/config"
	"github.com/bureau-foundation/taiga/lib/secret"
)

func (a *app) configCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Inspect and import configuration",
		Subcommands: []*cli.Command{
			a.configShowCommand(),
			a.configPathCommand(),
			a.configImportCommand(),
		},
	}
}

func (a *app) configShowCommand() *cli.Command {
	var params globalParams
	return &cli.Command{
		Name:    "show",
		Summary: "Print the effective configuration as YAML",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			cfg, err := config.Load(params.ConfigPath, params.Profile)
			if err != nil {
				return cli.Validation("%w", err)
			}
			data, err := cfg.Marshal()
			if err != nil {
				return cli.Internal("%w", err)
			}
			_, err = a.streams.Out.Write(data)
			return err
		},
	}
}

func (a *app) configPathCommand() *cli.Command {
	var params globalParams
	return &cli.Command{
		Name:    "path",
		Summary: "Print the configuration file location",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			cfg, err := config.Load(params.ConfigPath, params.Profile)
			if err != nil {
				return cli.Validation("%w", err)
			}
			_, err = fmt.Fprintln(a.streams.Out, cfg.Path())
			return err
		},
	}
}

type importParams struct {
	globalParams
	File string `flag:"file" desc:"VS Code settings.json to read (default: the user settings of VS Code)"`
}

func (a *app) configImportCommand() *cli.Command {
	var params importParams
	return &cli.Command{
		Name:    "import-vscode",
		Summary: "Import settings of the Taiga VS Code extension",
		Description: `Copy taiga.baseUrl and taiga.username from a VS Code settings.json
into the configuration file.

A plain-text taiga.password is sealed into the local state, as
'taiga login --remember' would, so 'taiga login --relogin' can use it.
Remove it from settings.json afterwards.`,
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			path := params.File
			if path == "" {
				path = config.DefaultVSCodeSettingsPath()
			}
			settings, err := config.ReadVSCodeSettings(path)
			if err != nil {
				return cli.Validation("%w", err)
			}
			if settings.Empty() {
				return cli.NotFound("no taiga settings in %s", path)
			}

			cfg, err := config.Load(params.ConfigPath, params.Profile)
			if err != nil {
				return cli.Validation("%w", err)
			}
			profile := cfg.Profile
			err = config.Update(cfg.Path(), func(raw *config.Config) {
				if profile != "" {
					if raw.Profiles == nil {
						raw.Profiles = make(map[string]config.Profile)
					}
					entry := raw.Profiles[profile]
					if settings.BaseURL != "" {
						entry.BaseURL = settings.BaseURL
					}
					if settings.Username != "" {
						entry.Username = settings.Username
					}
					raw.Profiles[profile] = entry
					return
				}
				if settings.BaseURL != "" {
					raw.BaseURL = settings.BaseURL
				}
				if settings.Username != "" {
					raw.Username = settings.Username
				}
			})
			if err != nil {
				return cli.Internal("%w", err)
			}
			fmt.Fprintf(a.streams.Out, "Imported settings from %s into %s\n", path, cfg.Path())

			if settings.Password == "" {
				return nil
			}
			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()
			if env.config.Username == "" {
				return cli.Validation("settings contain a password but no username; not storing it")
			}
			password, err := secret.NewFromString(settings.Password)
			if err != nil {
				return cli.Internal("%w", err)
			}
			defer password.Close()
			if err := env.session.RememberCredentials(env.config.Username, password); err != nil {
				return cli.Internal("%w", err)
			}
			fmt.Fprintf(a.streams.Out, "Password sealed; run 'taiga login --relogin', then remove taiga.password from %s\n", path)
			return nil
		},
	}
}
