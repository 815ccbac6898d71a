// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package quotes downloads daily price bars for a ticker symbol from a market
// data provider.
package quotes

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidPeriod is returned for a period the provider does not know.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidSymbol is returned for an empty ticker symbol.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// validPeriods are the lookback ranges accepted by the chart API.
var validPeriods = map[string]bool{
	"1d":  true,
	"5d":  true,
	"1mo": true,
	"3mo": true,
	"6mo": true,
	"1y":  true,
	"2y":  true,
	"5y":  true,
	"10y": true,
	"ytd": true,
	"max": true,
}

// Bar is one trading day of a symbol.
type Bar struct {
	Date   string // YYYY-MM-DD in the exchange's local calendar.
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Fetcher downloads daily bars. An unknown symbol yields no bars and no
// error.
type Fetcher interface {
	Fetch(ctx context.Context, symbol, period string) ([]Bar, error)
}

// ValidPeriod reports whether period is an accepted lookback range.
func ValidPeriod(period string) bool {
	return validPeriods[period]
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
