// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package taigaui is the interactive terminal browser for Taiga.
//
// The screen is a tab bar with one tab per [explorer.ViewKind], a tree
// pane on the left and a detail pane on the right, and a status line at
// the bottom. The tree pane renders an [explorer.Tree] registered with
// the [controller.Controller], so every controller operation (login,
// logout, project selection, search) invalidates the affected tabs and
// they reload the next time they are shown.
//
// Loads run as bubbletea commands off the UI goroutine. A load result
// is applied through [explorer.Tree.Apply], which discards results made
// stale by a newer load or an invalidation while the request was in
// flight.
//
// Log records reach the status line through [LogHandler]; install it
// as the slog handler before calling [Run].
package taigaui
