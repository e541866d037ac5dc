// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/taiga/lib/taiga"
)

// LoginMessage is the user-facing explanation of a failed login.
func LoginMessage(err error) string {
	var authError *taiga.AuthenticationError
	switch {
	case errors.As(err, &authError):
		detail := authError.Detail
		if detail == "" {
			detail = "Incorrect credentials"
		}
		return fmt.Sprintf("Error %d: %s", authError.StatusCode, detail)
	case taiga.IsNetwork(err):
		return "Unable to reach the Taiga server"
	default:
		return "Login failed: " + err.Error()
	}
}

// WelcomeMessage confirms a successful login.
func WelcomeMessage(user *taiga.User) string {
	return "Successfully logged in as " + user.DisplayName()
}
