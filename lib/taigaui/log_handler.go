// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taigaui

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// statusMsg shows a line in the status bar.
type statusMsg struct {
	Text  string
	Level slog.Level
}

// statusFadeMsg clears the status line if it still shows the message
// with the same sequence number.
type statusFadeMsg struct {
	sequence int
}

const statusFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that shows records at or above its level
// in the status bar of a running browser. Every record, whatever its
// level, is also passed to Next when set (typically a file handler).
//
// Records arriving before SetProgram are shown nowhere but still reach
// Next. Handlers derived with WithAttrs and WithGroup share the program.
type LogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	next    slog.Handler
	attrs   []slog.Attr
	groups  []string
}

// NewLogHandler creates a handler showing records at level and above.
// next may be nil.
func NewLogHandler(level slog.Level, next slog.Handler) *LogHandler {
	return &LogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
		next:    next,
	}
}

// SetProgram connects the handler to a running program.
func (handler *LogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

// Enabled implements slog.Handler.
func (handler *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= handler.level {
		return true
	}
	return handler.next != nil && handler.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (handler *LogHandler) Handle(ctx context.Context, record slog.Record) error {
	var nextErr error
	if handler.next != nil && handler.next.Enabled(ctx, record.Level) {
		nextErr = handler.next.Handle(ctx, record)
	}
	if record.Level < handler.level {
		return nextErr
	}
	// Records are often logged from inside Update, where a synchronous
	// Send would wait on the event loop that is running it.
	if program := handler.program.Load(); program != nil {
		go program.Send(statusMsg{Text: handler.summary(record), Level: record.Level})
	}
	return nextErr
}

// summary renders "message (key=value, ...)".
func (handler *LogHandler) summary(record slog.Record) string {
	prefix := strings.Join(handler.groups, ".")
	if prefix != "" {
		prefix += "."
	}
	var parts []string
	for _, attr := range handler.attrs {
		parts = append(parts, attr.Key+"="+attr.Value.String())
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, prefix+attr.Key+"="+attr.Value.String())
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

// WithAttrs implements slog.Handler.
func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := handler.derive()
	derived.attrs = append(derived.attrs, attrs...)
	if handler.next != nil {
		derived.next = handler.next.WithAttrs(attrs)
	}
	return derived
}

// WithGroup implements slog.Handler.
func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := handler.derive()
	derived.groups = append(derived.groups, name)
	if handler.next != nil {
		derived.next = handler.next.WithGroup(name)
	}
	return derived
}

func (handler *LogHandler) derive() *LogHandler {
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		next:    handler.next,
		attrs:   slices.Clone(handler.attrs),
		groups:  slices.Clone(handler.groups),
	}
}
