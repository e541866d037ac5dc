// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package explorer turns Taiga resources into display trees.
//
// A tree is requested per [ViewKind] (projects, epics, sprints, user
// stories, search) and expands lazily: sprints expand into their user
// stories and user stories into their tasks. Every expansion fetches
// fresh data; nothing is cached between expansions.
//
// For each request the [Materializer] checks preconditions (logged in,
// a project selected, a search query present for the search view),
// fetches the listing, applies the search predicate, and maps every
// record through [Render] into a [Node]. Unmet preconditions, empty
// listings and failed listings each produce a single [Placeholder] node
// whose reason tells the UI which of the three happened.
//
// Requests carry a generation. Issuing a newer request for the same
// node, or invalidating the view, makes older requests stale; a UI
// applying results through [Tree.Apply] drops stale ones, so a slow
// response can never overwrite a newer one.
package explorer
