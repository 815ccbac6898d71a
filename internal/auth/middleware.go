// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/server/router"

	"github.com/tim-polodev/stock-api/internal/metrics"
)

// APIKeyHeader carries an admin API key for service-to-service calls.
const APIKeyHeader = "x-api-key"

// publicPaths are served without any credentials.
var publicPaths = map[string]bool{
	"/docs":         true,
	"/openapi.json": true,
	"/redoc":        true,
	"/health":       true,
}

// ServiceUser is the identity of callers authenticated by an admin API key.
var ServiceUser = User{"id": "service", "service": true}

type userKey struct{}

// WithUser returns a context that carries the authenticated user.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the user stored by the middleware.
func CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(userKey{}).(User)
	if !ok || u == nil {
		return nil, newError(http.StatusUnauthorized, "Not authenticated")
	}
	return u, nil
}

// TokenValidator checks an Authorization header value.
type TokenValidator interface {
	ValidateToken(ctx context.Context, authorization string) (User, error)
}

// Middleware returns a router middleware that admits requests carrying a
// valid admin API key or a token accepted by v.
func Middleware(v TokenValidator, apiKeys []string) router.Middleware {
	return func(c *router.Context, next router.Handler) {
		ctx := c.Request.Context()

		if publicPaths[c.Request.URL.Path] {
			next(c)
			return
		}

		if key := c.Request.Header.Get(APIKeyHeader); key != "" && matchesKey(key, apiKeys) {
			metrics.AuthTick.Add(ctx, 1, "api_key")
			c.Request = c.Request.WithContext(WithUser(ctx, ServiceUser))
			next(c)
			return
		}

		header := c.Request.Header.Get("Authorization")
		if header == "" {
			metrics.AuthTick.Add(ctx, 1, "missing")
			WriteError(ctx, c.Writer, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		user, err := v.ValidateToken(ctx, header)
		if err != nil {
			status, detail := http.StatusInternalServerError, "Internal server error: "+err.Error()
			if e, ok := err.(*Error); ok {
				status, detail = e.Status, e.Detail
			}
			metrics.AuthTick.Add(ctx, 1, http.StatusText(status))
			WriteError(ctx, c.Writer, status, detail)
			return
		}

		metrics.AuthTick.Add(ctx, 1, "token")
		logging.Debugf(ctx, "Middleware: authenticated user %q", user.ID())
		c.Request = c.Request.WithContext(WithUser(ctx, user))
		next(c)
	}
}

// matchesKey compares key against every configured key in constant time.
func matchesKey(key string, apiKeys []string) bool {
	found := false
	for _, k := range apiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
			found = true
		}
	}
	return found
}

// WriteError writes a {"detail": ...} JSON error response.
func WriteError(ctx context.Context, w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": detail}); err != nil {
		logging.Errorf(ctx, "WriteError: failed to write response: %s", err)
	}
}
