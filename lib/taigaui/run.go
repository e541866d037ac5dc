// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taigaui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/taiga/lib/controller"
)

// Run shows the browser until the user quits or ctx is canceled.
// handler, when non-nil, starts routing log records to the status line.
func Run(ctx context.Context, config Config, handler *LogHandler) error {
	config.Context = ctx
	model, err := New(config)
	if err != nil {
		return err
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Controller events and log records are often produced inside
	// Update, where a synchronous Send would block on the busy event
	// loop.
	cancel := config.Controller.Subscribe(func(event controller.Event) {
		go program.Send(controllerEventMsg{event: event})
	})
	defer cancel()
	if handler != nil {
		handler.SetProgram(program)
		defer handler.SetProgram(nil)
	}

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
