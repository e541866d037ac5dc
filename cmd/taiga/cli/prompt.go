// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/bureau-foundation/taiga/lib/secret"
)

// ErrNoTerminal is returned by prompts when stdin is not a terminal.
var ErrNoTerminal = errors.New("no terminal available for an interactive prompt")

// Interactive reports whether stdin and stderr are terminals.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// PromptLine asks for a line of text with line editing. fallback is
// offered as the pre-filled answer.
func PromptLine(prompt, fallback string) (string, error) {
	if !Interactive() {
		return "", ErrNoTerminal
	}
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)

	answer, err := state.PromptWithSuggestion(prompt, fallback, -1)
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return "", Validation("prompt aborted")
	}
	if err != nil {
		return "", Internal("reading input: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// PromptPassword reads a password from the terminal without echo.
func PromptPassword(prompt string) (*secret.Buffer, error) {
	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return nil, ErrNoTerminal
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(descriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, Internal("reading password: %w", err)
	}
	buffer, err := secret.NewFromBytes(password)
	secret.Zero(password)
	if err != nil {
		return nil, Internal("protecting password: %w", err)
	}
	return buffer, nil
}

// ReadPassword reads a password from path ("-" reads the first line of
// stdin), or prompts for it when path is empty.
func ReadPassword(path string) (*secret.Buffer, error) {
	if path != "" {
		buffer, err := secret.ReadFromPath(path)
		if err != nil {
			return nil, Validation("password file: %w", err)
		}
		return buffer, nil
	}
	buffer, err := PromptPassword("Password: ")
	if errors.Is(err, ErrNoTerminal) {
		return nil, Validation("%w (use --password-file)", err)
	}
	return buffer, err
}
