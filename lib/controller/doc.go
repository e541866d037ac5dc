// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package controller is the command surface of the Taiga client: the
// operations a user triggers (login, refresh, logout, project
// selection, search, opening an item in the browser, creating a task)
// and the bookkeeping that keeps open views consistent with them.
//
// The Controller owns the current [explorer.Scope] and is the
// materializer's ScopeSource. Every state change invalidates the views
// that depend on it, through the [explorer.Tree] values registered with
// RegisterView, and is announced to subscribers as an [Event]. Both the
// CLI and the interactive browser drive the same Controller.
package controller
