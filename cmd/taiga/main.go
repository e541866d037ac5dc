// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command taiga is a terminal client for the Taiga project-management
// API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/taiga/cmd/taiga/cli"
	"github.com/bureau-foundation/taiga/cmd/taiga/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := commands.Root(commands.Streams{Out: os.Stdout, Err: os.Stderr})
	err := root.Execute(ctx, os.Args[1:], cli.NewLogger(os.Stderr, slog.LevelInfo))
	if err == nil {
		return 0
	}

	var exitError *cli.ExitError
	if errors.As(err, &exitError) {
		return exitError.Code
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return 130
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		return coder.ExitCode()
	}
	return 1
}
