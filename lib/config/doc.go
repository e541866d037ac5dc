// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the client's YAML configuration.
//
// The file is located, in order, by the --config flag, the TAIGA_CONFIG
// environment variable, or $XDG_CONFIG_HOME/taiga/config.yaml. An
// explicitly named file must exist; the default location may be absent,
// in which case built-in defaults apply (the Handisport Taiga instance,
// zstd-compressed state under $XDG_STATE_HOME/taiga).
//
// A file can define named profiles for several Taiga instances. The
// active profile (the "profile" key, or TAIGA_PROFILE) overrides the base
// URL and username of the top-level settings.
//
// Passwords are never part of the configuration. A password imported
// from VS Code settings is handed to the caller, which seals it into the
// state store.
package config
