// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package auth validates bearer tokens against the external authentication
// service and guards HTTP routes with the result.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.chromium.org/luci/common/logging"
)

const (
	// DefaultAuthURL is the authentication service used when none is set.
	DefaultAuthURL = "https://auth.polodev.com"

	validatePath   = "/api/auth/validateToken"
	defaultTimeout = 10 * time.Second
)

// User is the user object returned by the authentication service.
type User map[string]any

// ID returns the user's id field, if any.
func (u User) ID() string {
	return u.stringField("id")
}

// Email returns the user's email field, if any.
func (u User) Email() string {
	return u.stringField("email")
}

func (u User) stringField(k string) string {
	if v, ok := u[k]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

// Error is a validation failure with the HTTP status it maps to.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

func newError(status int, format string, args ...any) *Error {
	return &Error{Status: status, Detail: fmt.Sprintf(format, args...)}
}

// Validator calls the authentication service to check tokens.
type Validator struct {
	// BaseURL defaults to DefaultAuthURL.
	BaseURL string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

// NewValidator returns a Validator for the given service URL.
func NewValidator(baseURL string) *Validator {
	return &Validator{BaseURL: baseURL}
}

type validateResponse struct {
	Valid bool `json:"valid"`
	User  User `json:"user"`
}

// ValidateToken checks an Authorization header value and returns the user it
// belongs to. All failures are *Error.
func (v *Validator) ValidateToken(ctx context.Context, authorization string) (User, error) {
	base := v.BaseURL
	if base == "" {
		base = DefaultAuthURL
	}
	client := v.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+validatePath, nil)
	if err != nil {
		return nil, newError(http.StatusInternalServerError, "Internal server error: %s", err)
	}
	req.Header.Set("Authorization", authorization)

	rsp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			logging.Warningf(ctx, "ValidateToken: auth service timed out: %s", err)
			return nil, newError(http.StatusServiceUnavailable, "Authentication service timeout")
		}
		logging.Warningf(ctx, "ValidateToken: auth service unreachable: %s", err)
		return nil, newError(http.StatusServiceUnavailable, "Authentication service error: %s", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		logging.Debugf(ctx, "ValidateToken: auth service returned %d", rsp.StatusCode)
		return nil, newError(http.StatusUnauthorized, "Invalid or expired token")
	}

	var body validateResponse
	if err := json.NewDecoder(rsp.Body).Decode(&body); err != nil {
		logging.Errorf(ctx, "ValidateToken: undecodable auth response: %s", err)
		return nil, newError(http.StatusInternalServerError, "Internal server error: %s", err)
	}
	if !body.Valid {
		return nil, newError(http.StatusUnauthorized, "Token validation failed")
	}
	// A valid token may come without a user; CurrentUser reports that as
	// unauthenticated.
	return body.User, nil
}

// isTimeout reports whether err came from a deadline, either the client
// timeout or the request context.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
