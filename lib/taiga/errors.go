// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotAuthenticated is returned by authenticated operations when the
// TokenSource has no token. No request is sent.
var ErrNotAuthenticated = errors.New("taiga: not logged in")

// NetworkError means the server could not be reached: DNS failure,
// refused connection, TLS failure, or timeout.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (err *NetworkError) Error() string {
	return fmt.Sprintf("taiga: cannot reach server (%s %s): %v", err.Method, err.URL, err.Err)
}

func (err *NetworkError) Unwrap() error { return err.Err }

// AuthenticationError means the server rejected a login attempt.
type AuthenticationError struct {
	StatusCode int

	// Detail is the server's explanation, when it sent one.
	Detail string
}

func (err *AuthenticationError) Error() string {
	if err.Detail == "" {
		return fmt.Sprintf("taiga: login rejected: HTTP %d", err.StatusCode)
	}
	return fmt.Sprintf("taiga: login rejected: HTTP %d: %s", err.StatusCode, err.Detail)
}

// FetchError is a non-2xx response from any endpoint other than login.
type FetchError struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (err *FetchError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "taiga: %s %s: HTTP %d", err.Method, err.Path, err.StatusCode)
	if err.Detail != "" {
		fmt.Fprintf(&builder, ": %s", err.Detail)
	}
	return builder.String()
}

// MalformedResponseError means a 2xx response body could not be decoded
// into the expected shape.
type MalformedResponseError struct {
	Path string
	Err  error
}

func (err *MalformedResponseError) Error() string {
	return fmt.Sprintf("taiga: malformed response from %s: %v", err.Path, err.Err)
}

func (err *MalformedResponseError) Unwrap() error { return err.Err }

// StatusCode returns the HTTP status carried by err, or 0 when err did
// not come from an HTTP response.
func StatusCode(err error) int {
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		return fetchError.StatusCode
	}
	var authError *AuthenticationError
	if errors.As(err, &authError) {
		return authError.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err means the token is missing,
// expired, or revoked.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) || StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var networkError *NetworkError
	return errors.As(err, &networkError)
}

// errorDetail extracts the human-readable message from a Taiga error
// body. Taiga uses "detail" for framework errors and "_error_message"
// for domain errors; anything else falls back to the raw body.
func errorDetail(body []byte) string {
	var wire struct {
		Detail       any    `json:"detail"`
		ErrorMessage string `json:"_error_message"`
	}
	if json.Unmarshal(body, &wire) == nil {
		if detail, ok := wire.Detail.(string); ok && detail != "" {
			return detail
		}
		if wire.ErrorMessage != "" {
			return wire.ErrorMessage
		}
	}
	return strings.TrimSpace(string(body))
}
