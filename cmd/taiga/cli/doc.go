// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the taiga binary: a tree of
// [Command] values dispatched by name, flags bound from tagged parameter
// structs with spf13/pflag, typo suggestions for unknown commands and
// flags, categorized errors, and --json output.
//
// A command declares its flags as a struct:
//
//	type listParams struct {
//	    cli.JSONOutput
//	    Expand bool `flag:"expand,e" desc:"show children of each item"`
//	}
//
// and returns a pointer to it from [Command.Params]. The fields are
// populated before Run is called.
package cli
