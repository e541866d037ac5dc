// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall clock.
//
// Components that stamp records (session login time, request latency in
// log lines, status message expiry in the browser) take a Clock instead
// of calling time.Now directly. Production code passes Real(); tests pass
// Fake() and move time with Advance or Set.
package clock
