// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts the credentials the client keeps between
// invocations (the Taiga auth token and, when the user opts in, the
// login password) so that the state file never holds them in
// plaintext.
//
// An [Identity] is a local age X25519 keypair. The state store seals
// values to the identity's own recipient and opens them with its
// private half. The identity file lives next to the configuration with
// mode 0600; losing it makes previously sealed values unreadable, which
// the session layer treats the same as being logged out.
package sealed
