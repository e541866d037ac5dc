// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP response reading and transport
// error classification for the Taiga client.
//
// Every JSON body read from the Taiga server goes through ReadResponse so
// a misbehaving server cannot make the client allocate without bound.
// Taiga list endpoints are fetched with pagination disabled, so the bound
// is sized for a large project's full backlog rather than a single page.
package netutil

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
)

// MaxResponseSize bounds JSON response body reads at 64 MB.
const MaxResponseSize int64 = 64 << 20

// ErrResponseTooLarge is returned by ReadResponse when the body exceeds
// MaxResponseSize.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// ReadResponse reads a response body up to MaxResponseSize bytes. A body
// that is exactly at the limit is accepted; one byte more returns
// ErrResponseTooLarge.
func ReadResponse(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}

// ErrorBody reads an error response body as a trimmed string for use in
// diagnostics. Read failures yield whatever was read before the failure.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	return strings.TrimSpace(string(data))
}

// IsUnreachable reports whether err describes a failure to reach the
// server at all (DNS, connection refused, TLS, timeout) as opposed to a
// server that answered badly. Context cancellation by the caller is not
// considered unreachable.
func IsUnreachable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var urlError *url.Error
	if errors.As(err, &urlError) {
		return true
	}
	var netError net.Error
	return errors.As(err, &netError)
}
