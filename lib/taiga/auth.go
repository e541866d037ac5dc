// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bureau-foundation/taiga/lib/secret"
)

// loginRequest is the body of POST /auth for password authentication.
type loginRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates with a username and password. The password buffer
// is borrowed, not closed. The returned token is not retained by the
// client; store it in the TokenSource.
//
// A rejected login returns *AuthenticationError carrying the HTTP status
// and the server's explanation.
func (client *Client) Login(ctx context.Context, username string, password *secret.Buffer) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("taiga: username is required")
	}
	if password == nil || password.Len() == 0 {
		return nil, fmt.Errorf("taiga: password is required")
	}

	body, err := client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth",
		body: loginRequest{
			Type:     "normal",
			Username: username,
			Password: password.String(),
		},
	})
	if err != nil {
		var fetchError *FetchError
		if errors.As(err, &fetchError) {
			return nil, &AuthenticationError{StatusCode: fetchError.StatusCode, Detail: fetchError.Detail}
		}
		return nil, err
	}

	var result AuthResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &MalformedResponseError{Path: "/auth", Err: err}
	}
	if result.AuthToken == "" {
		return nil, &MalformedResponseError{Path: "/auth", Err: errors.New("response has no auth_token")}
	}
	client.logger.Info("logged in to taiga", "username", result.Username, "user_id", result.ID)
	return &result, nil
}
