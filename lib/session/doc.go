// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the client's authentication state: the Taiga
// auth token, the logged-in user's profile, and the cached project
// list, persisted in a kvstore.Store under fixed keys.
//
// A [Session] is an explicit object created once per process and passed
// to whatever needs it (the API client as its token source, the
// resource explorer, the command layer). Every mutation is persisted
// before it becomes visible, and subscribers are notified after each
// change so dependent views can redraw.
//
// The token is sealed with the local age identity before it is stored;
// the state file never holds it in plaintext. If the identity cannot
// open a stored token (identity file replaced, state copied from
// another machine) the session treats the user as logged out.
//
// The store keys are:
//
//	taiga_auth_token   sealed auth token
//	taiga_user_info    user profile returned by login
//	taiga_projects     cached project list
//	taiga_credentials  sealed username and password, only when the
//	                   user asked to be remembered
package session
