// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/bureau-foundation/taiga/lib/clock"
	"github.com/bureau-foundation/taiga/lib/netutil"
)

// apiPath is appended to the web base URL to form the API root.
const apiPath = "/api/v1"

// TokenSource supplies the bearer token for authenticated requests.
// The second result is false when no user is logged in.
type TokenSource interface {
	Token() (string, bool)
}

// StaticToken is a TokenSource that always returns the same token. An
// empty StaticToken reports no token.
type StaticToken string

// Token implements TokenSource.
func (token StaticToken) Token() (string, bool) {
	return string(token), token != ""
}

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the web address of the Taiga instance, for example
	// "https://tree.taiga.io". The API root is BaseURL + "/api/v1".
	// Required; must be http or https.
	BaseURL string

	// HTTPClient is used for all requests. Defaults to a client whose
	// transport negotiates compressed responses, with Timeout applied.
	HTTPClient *http.Client

	// Timeout bounds each request when HTTPClient is nil. Zero means no
	// client-side timeout beyond the transport defaults.
	Timeout time.Duration

	// Tokens supplies the bearer token. Defaults to no token, which
	// makes every authenticated call fail with ErrNotAuthenticated.
	Tokens TokenSource

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// Clock provides time for request latency measurement. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a Taiga REST API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiURL     string
	httpClient *http.Client
	tokens     TokenSource
	userAgent  string
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient creates a Client. Returns an error if BaseURL is missing or
// not an absolute http(s) URL.
func NewClient(config Config) (*Client, error) {
	baseURL, err := NormalizeBaseURL(config.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: gzhttp.Transport(http.DefaultTransport),
			Timeout:   config.Timeout,
		}
	}

	tokens := config.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		apiURL:     baseURL + apiPath,
		httpClient: httpClient,
		tokens:     tokens,
		userAgent:  config.UserAgent,
		clock:      clk,
		logger:     logger,
	}, nil
}

// NormalizeBaseURL validates a Taiga web address and strips trailing
// slashes.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("taiga: base URL is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("taiga: invalid base URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("taiga: base URL %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("taiga: base URL %q has no host", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// BaseURL returns the normalized web address of the Taiga instance.
func (client *Client) BaseURL() string {
	return client.baseURL
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// authenticated requests carry the bearer token and fail fast with
	// ErrNotAuthenticated when there is none.
	authenticated bool

	// list requests ask the server for the complete collection.
	list bool
}

// do executes an API request and returns the body of a 2xx response.
// Non-2xx responses return a *FetchError; transport failures return a
// *NetworkError.
func (client *Client) do(ctx context.Context, req request) ([]byte, error) {
	response, err := client.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &FetchError{
			StatusCode: response.StatusCode,
			Method:     req.method,
			Path:       req.path,
			Detail:     errorDetail([]byte(netutil.ErrorBody(response.Body))),
		}
	}

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.method, URL: client.apiURL + req.path, Err: err}
	}
	return body, nil
}

// send builds and executes the HTTP request. The caller closes the
// response body.
func (client *Client) send(ctx context.Context, req request) (*http.Response, error) {
	var token string
	if req.authenticated {
		var ok bool
		token, ok = client.tokens.Token()
		if !ok {
			return nil, ErrNotAuthenticated
		}
	}

	target := client.apiURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("taiga: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, req.method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("taiga: creating request: %w", err)
	}
	httpRequest.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	if req.authenticated {
		httpRequest.Header.Set("Authorization", "Bearer "+token)
	}
	if req.list {
		httpRequest.Header.Set("x-disable-pagination", "True")
	}
	if client.userAgent != "" {
		httpRequest.Header.Set("User-Agent", client.userAgent)
	}

	start := client.clock.Now()
	response, err := client.httpClient.Do(httpRequest)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if netutil.IsUnreachable(err) {
			return nil, &NetworkError{Method: req.method, URL: target, Err: err}
		}
		return nil, fmt.Errorf("taiga: %s %s: %w", req.method, req.path, err)
	}
	client.logger.Debug("taiga request",
		"method", req.method,
		"path", req.path,
		"status", response.StatusCode,
		"duration", client.clock.Since(start),
	)
	return response, nil
}

// getJSON issues an authenticated GET and decodes the body into result.
func (client *Client) getJSON(ctx context.Context, path string, query url.Values, list bool, result any) error {
	body, err := client.do(ctx, request{
		method:        http.MethodGet,
		path:          path,
		query:         query,
		authenticated: true,
		list:          list,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &MalformedResponseError{Path: path, Err: err}
	}
	return nil
}

// Me returns the profile of the user owning the current token.
func (client *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := client.getJSON(ctx, "/users/me", nil, false, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
