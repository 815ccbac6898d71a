// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/common/retry"
	"go.chromium.org/luci/common/retry/transient"
)

const (
	// DefaultYahooURL is the public Yahoo Finance API host.
	DefaultYahooURL = "https://query1.finance.yahoo.com"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "stock-api/1.0"
	notFoundCode     = "Not Found"
	maxErrorBody     = 512
)

// defaultRetryIterator retries transient provider failures three times.
var defaultRetryIterator = retry.ExponentialBackoff{
	Limited: retry.Limited{
		Delay:   500 * time.Millisecond,
		Retries: 3,
	},
	Multiplier: 2,
}

func defaultRetry() retry.Iterator {
	it := defaultRetryIterator
	return &it
}

// YahooClient fetches daily bars from the Yahoo Finance chart API.
type YahooClient struct {
	// BaseURL defaults to DefaultYahooURL.
	BaseURL string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// Retry defaults to three exponential retries on transient errors.
	Retry retry.Factory
}

// Prove that YahooClient implements Fetcher.
var _ Fetcher = (*YahooClient)(nil)

// NewYahooClient returns a client for the given base URL. An empty URL uses
// DefaultYahooURL.
func NewYahooClient(baseURL string) *YahooClient {
	return &YahooClient{BaseURL: baseURL}
}

// chartResponse mirrors the subset of the v8 chart payload that is used.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Fetch downloads the daily bars of symbol over period.
func (c *YahooClient) Fetch(ctx context.Context, symbol, period string) ([]Bar, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if !ValidPeriod(period) {
		return nil, errors.Annotate(ErrInvalidPeriod, "Fetch: %q", period).Err()
	}

	factory := c.Retry
	if factory == nil {
		factory = defaultRetry
	}

	var bars []Bar
	err := retry.Retry(ctx, transient.Only(factory), func() error {
		var err error
		bars, err = c.fetchOnce(ctx, symbol, period)
		return err
	}, retry.LogCallback(ctx, "quotes.Fetch "+symbol))
	if err != nil {
		return nil, err
	}
	logging.Debugf(ctx, "Fetch: got %d bars for %s over %s", len(bars), symbol, period)
	return bars, nil
}

func (c *YahooClient) chartURL(symbol, period string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultYahooURL
	}
	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", "1d")
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", strings.TrimRight(base, "/"), url.PathEscape(symbol), q.Encode())
}

func (c *YahooClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

// fetchOnce performs a single request. Errors worth retrying are tagged
// transient.
func (c *YahooClient) fetchOnce(ctx context.Context, symbol, period string) ([]Bar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.chartURL(symbol, period), nil)
	if err != nil {
		return nil, errors.Annotate(err, "fetchOnce: build request").Err()
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")

	rsp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Annotate(err, "fetchOnce: %s", symbol).Err()
		}
		return nil, errors.Annotate(err, "fetchOnce: %s", symbol).Tag(transient.Tag).Err()
	}
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, errors.Annotate(err, "fetchOnce: read body").Tag(transient.Tag).Err()
	}

	switch {
	case rsp.StatusCode == http.StatusNotFound:
		return nil, nil
	case rsp.StatusCode == http.StatusTooManyRequests || rsp.StatusCode >= 500:
		return nil, errors.Reason("fetchOnce: %s: provider returned %d", symbol, rsp.StatusCode).Tag(transient.Tag).Err()
	case rsp.StatusCode < 200 || rsp.StatusCode > 299:
		return nil, errors.Reason("fetchOnce: %s: provider returned %d: %s", symbol, rsp.StatusCode, truncate(body)).Err()
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, errors.Annotate(err, "fetchOnce: decode chart for %s", symbol).Err()
	}
	return parseChart(symbol, chart)
}

// parseChart converts a chart payload into bars, skipping incomplete days.
func parseChart(symbol string, chart chartResponse) ([]Bar, error) {
	if e := chart.Chart.Error; e != nil {
		if e.Code == notFoundCode {
			return nil, nil
		}
		return nil, errors.Reason("parseChart: %s: %s: %s", symbol, e.Code, e.Description).Err()
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	res := chart.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := res.Indicators.Quote[0]
	loc := time.FixedZone("exchange", res.Meta.GMTOffset)

	var bars []Bar
	for i, ts := range res.Timestamp {
		open, ok1 := at(q.Open, i)
		high, ok2 := at(q.High, i)
		low, ok3 := at(q.Low, i)
		closing, ok4 := at(q.Close, i)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue
		}
		volume, _ := at(q.Volume, i)
		bars = append(bars, Bar{
			Date:   time.Unix(ts, 0).In(loc).Format(time.DateOnly),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closing,
			Volume: int64(volume),
		})
	}
	return bars, nil
}

// at returns the i-th value of a nullable series.
func at(series []*float64, i int) (float64, bool) {
	if i >= len(series) || series[i] == nil {
		return 0, false
	}
	return *series[i], true
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
