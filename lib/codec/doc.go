// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single place the client configures CBOR.
//
// The local state file stores each entry as CBOR. Types shared with the
// Taiga JSON API (projects, user profiles) are encoded directly: the
// fxamacker/cbor library falls back to json struct tags when a field has
// no cbor tag, so the same field names appear in both encodings.
//
// Encoding is Core Deterministic (RFC 8949 §4.2) so identical state
// produces identical bytes and the state file checksum is stable.
// Timestamps are encoded as RFC 3339 text with nanoseconds.
package codec
