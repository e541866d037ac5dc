// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/taiga/cmd/taiga/cli"
	"github.com/bureau-foundation/taiga/lib/controller"
	"github.com/bureau-foundation/taiga/lib/taiga"
)

type loginParams struct {
	globalParams
	PasswordFile string `flag:"password-file" desc:"read the password from this file, or - for the first line of stdin (default: prompt)"`
	Remember     bool   `flag:"remember" desc:"seal the credentials into the local state so 'taiga login --relogin' works unattended"`
	Relogin      bool   `flag:"relogin" desc:"log in again with the remembered credentials"`
}

func (a *app) loginCommand() *cli.Command {
	var params loginParams
	return &cli.Command{
		Name:    "login",
		Summary: "Log in to the Taiga instance",
		Description: `Log in to the Taiga instance and store the session locally.

The username defaults to the one in the configuration and is prompted
for on a terminal. The password is prompted for without echo unless
--password-file is given. The auth token is stored sealed with a local
age identity; the password is only stored when --remember is set.`,
		Usage: "taiga login [username] [flags]",
		Examples: []cli.Example{
			{Description: "Log in interactively", Command: "taiga login marie"},
			{Description: "Log in from a script", Command: "taiga login marie --password-file ~/.taiga-password --remember"},
			{Description: "Renew an expired session", Command: "taiga login --relogin"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			var user *taiga.User
			if params.Relogin {
				if len(args) > 0 || params.PasswordFile != "" {
					return cli.Validation("--relogin takes neither a username nor --password-file")
				}
				user, err = env.controller.Relogin(ctx)
			} else {
				user, err = a.login(ctx, env, args, params)
			}
			if err != nil {
				if errors.Is(err, controller.ErrNoCredentials) {
					return classify(err)
				}
				var commandError *cli.CommandError
				if errors.As(err, &commandError) {
					return err
				}
				return &cli.CommandError{
					Category: cli.CategoryOf(classify(err)),
					Err:      errors.New(controller.LoginMessage(err)),
				}
			}

			fmt.Fprintln(a.streams.Out, controller.WelcomeMessage(user))
			if count := len(env.session.CachedProjects()); count > 0 {
				fmt.Fprintf(a.streams.Err, "%d projects available; pick one with 'taiga use <project>'\n", count)
			}
			return nil
		},
	}
}

func (a *app) login(ctx context.Context, env *environment, args []string, params loginParams) (*taiga.User, error) {
	username := env.config.Username
	if len(args) > 0 {
		username = args[0]
	}
	if username == "" {
		prompted, err := cli.PromptLine("Username: ", "")
		if errors.Is(err, cli.ErrNoTerminal) {
			return nil, cli.Validation("username is required\n\nUsage: taiga login <username> [flags]")
		}
		if err != nil {
			return nil, err
		}
		username = prompted
	}
	if username == "" {
		return nil, cli.Validation("username is required")
	}

	password, err := cli.ReadPassword(params.PasswordFile)
	if err != nil {
		return nil, err
	}
	defer password.Close()

	user, err := env.controller.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if params.Remember {
		if err := env.session.RememberCredentials(username, password); err != nil {
			return nil, cli.Internal("remembering credentials: %w", err)
		}
	}
	return user, nil
}

type logoutParams struct {
	globalParams
	Forget bool `flag:"forget" desc:"also delete remembered credentials"`
}

func (a *app) logoutCommand() *cli.Command {
	var params logoutParams
	return &cli.Command{
		Name:    "logout",
		Summary: "Forget the session and the selected project",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.controller.Logout(); err != nil {
				return cli.Internal("%w", err)
			}
			if params.Forget {
				if err := env.session.ForgetCredentials(); err != nil {
					return cli.Internal("%w", err)
				}
			}
			fmt.Fprintln(a.streams.Out, "Logged out")
			return nil
		},
	}
}

type whoamiParams struct {
	globalParams
	cli.JSONOutput
	Verify bool `flag:"verify" desc:"confirm with the server that the session is still valid"`
}

type whoamiResult struct {
	taiga.User
	BaseURL    string    `json:"base_url"`
	LoggedInAt time.Time `json:"logged_in_at"`
	Verified   bool      `json:"verified"`
}

func (a *app) whoamiCommand() *cli.Command {
	var params whoamiParams
	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the logged-in user",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := a.open(params.globalParams, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			info := env.session.User()
			if !env.session.LoggedIn() || info == nil {
				return classify(controller.ErrNotLoggedIn)
			}
			result := whoamiResult{
				User:       info.User,
				BaseURL:    env.client.BaseURL(),
				LoggedInAt: info.LoggedInAt,
			}
			if params.Verify {
				current, err := env.client.Me(ctx)
				if err != nil {
					if taiga.IsUnauthorized(err) {
						if expireErr := env.session.Expire(); expireErr != nil {
							env.logger.Warn("dropping expired token", "error", expireErr)
						}
					}
					return classify(err)
				}
				result.User = *current
				result.Verified = true
			}

			if done, err := params.EmitJSON(a.streams.Out, result); done {
				return err
			}
			fmt.Fprintf(a.streams.Out, "%s (%s) on %s\n", result.DisplayName(), result.Username, result.BaseURL)
			if !result.LoggedInAt.IsZero() {
				fmt.Fprintf(a.streams.Out, "logged in %s\n", result.LoggedInAt.Local().Format(time.RFC1123))
			}
			if result.Verified {
				fmt.Fprintln(a.streams.Out, "session verified")
			}
			return nil
		},
	}
}
