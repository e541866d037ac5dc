// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies command failures so scripts can react to the
// exit code without parsing messages.
type ErrorCategory string

const (
	// CategoryValidation: bad arguments or configuration.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: a referenced project, story or task does not
	// exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden: not logged in, or the server refused the
	// credentials.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryTransient: the server could not be reached or failed.
	// Retrying may help.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else.
	CategoryInternal ErrorCategory = "internal"
)

// exitCodes maps categories to process exit codes.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   3,
	CategoryForbidden:  4,
	CategoryTransient:  5,
	CategoryInternal:   1,
}

// CommandError is a categorized command failure. It wraps the cause so
// errors.Is and errors.As see through it.
type CommandError struct {
	Category ErrorCategory
	Err      error
}

func (e *CommandError) Error() string { return e.Err.Error() }

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode returns the process exit code for the category.
func (e *CommandError) ExitCode() int {
	if code, ok := exitCodes[e.Category]; ok {
		return code
	}
	return 1
}

func newError(category ErrorCategory, format string, args ...any) *CommandError {
	return &CommandError{Category: category, Err: fmt.Errorf(format, args...)}
}

// Validation reports bad input.
func Validation(format string, args ...any) *CommandError {
	return newError(CategoryValidation, format, args...)
}

// NotFound reports a missing resource.
func NotFound(format string, args ...any) *CommandError {
	return newError(CategoryNotFound, format, args...)
}

// Forbidden reports a missing or rejected login.
func Forbidden(format string, args ...any) *CommandError {
	return newError(CategoryForbidden, format, args...)
}

// Transient reports a failure that may succeed on retry.
func Transient(format string, args ...any) *CommandError {
	return newError(CategoryTransient, format, args...)
}

// Internal reports an unexpected failure.
func Internal(format string, args ...any) *CommandError {
	return newError(CategoryInternal, format, args...)
}

// CategoryOf returns the category of err, or CategoryInternal when it
// carries none.
func CategoryOf(err error) ErrorCategory {
	var commandError *CommandError
	if errors.As(err, &commandError) {
		return commandError.Category
	}
	return CategoryInternal
}

// ExitError ends the process with Code without printing anything more.
// Commands return it after writing their own diagnostics.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns Code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
