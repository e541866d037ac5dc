// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package kvstore is the client's persistent key-value storage: the
// small set of named entries (auth token, user profile, cached project
// list, selected project) that survive between invocations.
//
// [Store] is the interface the session layer consumes. [Memory] backs
// tests. [File] backs the command-line client with a single state file:
//
//	offset  size  field
//	0       4     magic "TGST"
//	4       1     format version (1)
//	5       1     compression tag (0 none, 1 lz4, 2 zstd)
//	6       4     uncompressed payload length, big-endian
//	10      32    BLAKE3 keyed checksum of the uncompressed payload
//	42      ...   payload: CBOR map of key to encoded value
//
// Writes replace the whole file atomically (temp file plus rename), so a
// crash mid-write leaves the previous state intact. A file whose
// checksum does not match is reported as [ErrCorrupt] rather than
// partially decoded.
package kvstore
