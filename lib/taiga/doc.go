// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package taiga is a typed client for the Taiga project-management REST
// API (v1): password login, the read-only listings that back the
// resource browser (projects, milestones, user stories, tasks, epics),
// the current-user endpoint, and task creation.
//
// # Authentication
//
// Login posts credentials to /auth and returns the bearer token. The
// client does not store it: every authenticated call asks the
// configured [TokenSource] for the current token, so logging out (or a
// session expiring) takes effect on the next request without rebuilding
// the client.
//
// # Listings
//
// List operations return a [Listing] rather than (slice, error). A
// failed listing still carries an empty, non-nil slice so renderers can
// iterate it unconditionally, while Err says why it is empty. Failures
// are logged at warn level. Pagination is disabled on every list call
// (x-disable-pagination), so a listing is the complete collection.
//
// # Errors
//
// Failures are classified as [NetworkError] (server unreachable),
// [AuthenticationError] (login rejected), [FetchError] (any other
// non-2xx), or [MalformedResponseError] (undecodable body). Use
// [IsUnauthorized] to detect an expired token on any of them.
package taiga
