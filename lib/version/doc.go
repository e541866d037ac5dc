// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the taiga binary.
//
// Release builds inject [Version], [GitCommit], [GitDirty] and
// [BuildTime] with -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/taiga/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/taiga
//
// Without injection the commit, dirty flag and time come from the VCS
// stamp in the binary's build info, and otherwise read "unknown".
package version
