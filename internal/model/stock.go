// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package model

import (
	"context"
	"database/sql"
	"time"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
)

// StockQuote contains a single row from the Stocks table in the database.
type StockQuote struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`

	LastUpdatedTime time.Time `json:"last_updated_time,omitempty"`
}

// UpsertStockQuote inserts a quote or overwrites the existing row with the
// same symbol and date.
func UpsertStockQuote(ctx context.Context, tx *sql.Tx, q StockQuote) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO "Stocks"
			(
				symbol,
				date,
				open,
				high,
				low,
				close,
				volume,
				last_updated_time
			)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, date)
		DO UPDATE SET
			open=EXCLUDED.open,
			high=EXCLUDED.high,
			low=EXCLUDED.low,
			close=EXCLUDED.close,
			volume=EXCLUDED.volume,
			last_updated_time=EXCLUDED.last_updated_time;`,
		q.Symbol,
		q.Date,
		q.Open,
		q.High,
		q.Low,
		q.Close,
		q.Volume,
		q.LastUpdatedTime,
	)
	if err != nil {
		logging.Errorf(ctx, "UpsertStockQuote: failed to upsert %s on %s: %s", q.Symbol, q.Date, err)
		return err
	}
	return nil
}

// ListSymbols returns every distinct symbol stored in the Stocks table.
func ListSymbols(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT symbol
		FROM "Stocks"
		ORDER BY symbol;`)
	if err != nil {
		logging.Errorf(ctx, "ListSymbols: failed to query symbols: %s", err)
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			logging.Errorf(ctx, "ListSymbols: failed to scan row: %s", err)
			return nil, err
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return symbols, nil
}

// ListStockQuotes returns the newest quotes for a symbol, newest first.
func ListStockQuotes(ctx context.Context, db *sql.DB, symbol string, limit int) ([]StockQuote, error) {
	if limit <= 0 {
		return nil, errors.Reason("ListStockQuotes: invalid limit").Err()
	}

	rows, err := db.QueryContext(ctx, `
		SELECT
			symbol,
			date,
			open,
			high,
			low,
			close,
			volume,
			last_updated_time
		FROM "Stocks"
		WHERE symbol=$1
		ORDER BY date DESC
		LIMIT $2;`, symbol, limit)
	if err != nil {
		logging.Errorf(ctx, "ListStockQuotes: failed to query %s: %s", symbol, err)
		return nil, err
	}
	defer rows.Close()

	var results []StockQuote
	for rows.Next() {
		var (
			q               StockQuote
			lastUpdatedTime sql.NullTime
		)
		err := rows.Scan(
			&q.Symbol,
			&q.Date,
			&q.Open,
			&q.High,
			&q.Low,
			&q.Close,
			&q.Volume,
			&lastUpdatedTime,
		)
		if err != nil {
			logging.Errorf(ctx, "ListStockQuotes: failed to scan row: %s", err)
			return nil, err
		}

		// Handle possible null times
		if lastUpdatedTime.Valid {
			q.LastUpdatedTime = lastUpdatedTime.Time
		}
		results = append(results, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
