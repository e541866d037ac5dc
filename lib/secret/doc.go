// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds short-lived credential material (the Taiga
// password between prompt and login request, decrypted auth tokens)
// in memory that the Go runtime never manages.
//
// A [Buffer] is an anonymous mmap region locked with mlock and marked
// MADV_DONTDUMP. Close zeroes, unlocks and unmaps it. Reading after
// Close panics.
package secret
