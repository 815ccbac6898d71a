// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package database

import (
	"context"
	"database/sql"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
)

// stocksSchema holds one daily bar per (symbol, date). Dates are stored as
// YYYY-MM-DD text in the exchange's local calendar.
const stocksSchema = `
	CREATE TABLE IF NOT EXISTS "Stocks" (
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		open DOUBLE PRECISION NOT NULL,
		high DOUBLE PRECISION NOT NULL,
		low DOUBLE PRECISION NOT NULL,
		close DOUBLE PRECISION NOT NULL,
		volume BIGINT NOT NULL,
		last_updated_time TIMESTAMPTZ,
		PRIMARY KEY (symbol, date)
	);`

// EnsureSchema creates the tables used by the service if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, stocksSchema); err != nil {
		logging.Errorf(ctx, "EnsureSchema: failed to create Stocks table: %s", err)
		return errors.Annotate(err, "EnsureSchema").Err()
	}
	logging.Debugf(ctx, "EnsureSchema: Stocks table ready")
	return nil
}
