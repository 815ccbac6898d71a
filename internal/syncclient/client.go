// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package syncclient calls the stock API sync endpoint as an admin.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"

	"github.com/tim-polodev/stock-api/internal/auth"
)

const (
	// DefaultBaseURL is the API the client talks to when none is set.
	DefaultBaseURL = "http://localhost:8000"

	syncPath       = "/stocks/sync"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// HTTPError is returned for a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sync request failed with status %d: %s", e.StatusCode, e.Body)
}

// Client posts sync requests for single symbols.
type Client struct {
	BaseURL string
	APIKey  string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// New returns a Client for baseURL authenticating with apiKey.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

type syncResponse struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

// SyncStock asks the API to sync symbol over period and returns the reported
// status.
func (c *Client) SyncStock(ctx context.Context, symbol, period string) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	payload, err := json.Marshal(map[string]string{"symbol": symbol, "period": period})
	if err != nil {
		return "", errors.Annotate(err, "SyncStock: marshal request").Err()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+syncPath, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Annotate(err, "SyncStock: build request").Err()
	}
	req.Header.Set(auth.APIKeyHeader, c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	logging.Debugf(ctx, "SyncStock: POST %s for %s", req.URL, symbol)
	rsp, err := client.Do(req)
	if err != nil {
		return "", errors.Annotate(err, "SyncStock: %s", symbol).Err()
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		body, err := io.ReadAll(io.LimitReader(rsp.Body, maxErrorBody))
		if err != nil {
			logging.Warningf(ctx, "SyncStock: failed to read error body: %s", err)
			body = append(body, fmt.Sprintf(" (body read failed: %s)", err)...)
		}
		return "", &HTTPError{StatusCode: rsp.StatusCode, Body: string(body)}
	}

	var out syncResponse
	if err := json.NewDecoder(rsp.Body).Decode(&out); err != nil {
		return "", errors.Annotate(err, "SyncStock: decode response").Err()
	}
	return out.Status, nil
}
