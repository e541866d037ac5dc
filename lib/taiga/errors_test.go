// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"fmt"
	"testing"
)

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"Not found."}`, "Not found."},
		{`{"_error_message":"Wrong credentials"}`, "Wrong credentials"},
		{`{"detail":{"field":"bad"},"_error_message":"Fallback"}`, "Fallback"},
		{"  plain text body\n", "plain text body"},
		{"", ""},
	}
	for _, test := range tests {
		if got := errorDetail([]byte(test.body)); got != test.want {
			t.Errorf("errorDetail(%q) = %q, want %q", test.body, got, test.want)
		}
	}
}

func TestPredicates(t *testing.T) {
	unauthorized := fmt.Errorf("listing: %w", &FetchError{StatusCode: 401, Method: "GET", Path: "/projects"})
	if !IsUnauthorized(unauthorized) {
		t.Error("IsUnauthorized(wrapped 401) = false")
	}
	if !IsUnauthorized(ErrNotAuthenticated) {
		t.Error("IsUnauthorized(ErrNotAuthenticated) = false")
	}
	if IsUnauthorized(&FetchError{StatusCode: 403}) {
		t.Error("IsUnauthorized(403) = true")
	}
	if !IsNotFound(&FetchError{StatusCode: 404}) {
		t.Error("IsNotFound(404) = false")
	}
	if StatusCode(&AuthenticationError{StatusCode: 400}) != 400 {
		t.Error("StatusCode(AuthenticationError) did not report 400")
	}
	if StatusCode(fmt.Errorf("plain")) != 0 {
		t.Error("StatusCode(plain error) != 0")
	}
}

func TestErrorStrings(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&AuthenticationError{StatusCode: 401}, "taiga: login rejected: HTTP 401"},
		{&AuthenticationError{StatusCode: 403, Detail: "disabled"}, "taiga: login rejected: HTTP 403: disabled"},
		{&FetchError{StatusCode: 500, Method: "GET", Path: "/epics"}, "taiga: GET /epics: HTTP 500"},
		{&FetchError{StatusCode: 404, Method: "GET", Path: "/tasks", Detail: "No task"}, "taiga: GET /tasks: HTTP 404: No task"},
	}
	for _, test := range tests {
		if got := test.err.Error(); got != test.want {
			t.Errorf("Error() = %q, want %q", got, test.want)
		}
	}
}
