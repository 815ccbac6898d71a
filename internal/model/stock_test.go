// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package model

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	. "go.chromium.org/luci/common/testing/assertions"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

func TestUpsertStockQuote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	Convey("UpsertStockQuote", t, func() {
		db, mock := newMock(t)
		defer db.Close()

		timeNow := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
		q := StockQuote{
			Symbol:          "AAPL",
			Date:            "2026-10-13",
			Open:            150.17,
			High:            152.83,
			Low:             149.37,
			Close:           152.57,
			Volume:          76033200,
			LastUpdatedTime: timeNow,
		}

		Convey("UpsertStockQuote: valid upsert", func() {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "Stocks"`)).
				WithArgs("AAPL", "2026-10-13", 150.17, 152.83, 149.37, 152.57, int64(76033200), timeNow).
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectCommit()

			tx, err := db.BeginTx(ctx, nil)
			So(err, ShouldBeNil)
			So(UpsertStockQuote(ctx, tx, q), ShouldBeNil)
			So(tx.Commit(), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
		Convey("UpsertStockQuote: conflicting key updates in place", func() {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (symbol, date) DO UPDATE SET`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			tx, err := db.BeginTx(ctx, nil)
			So(err, ShouldBeNil)
			So(UpsertStockQuote(ctx, tx, q), ShouldBeNil)
			So(tx.Commit(), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
		Convey("UpsertStockQuote: failed exec", func() {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "Stocks"`)).
				WillReturnError(fmt.Errorf("disk full"))
			mock.ExpectRollback()

			tx, err := db.BeginTx(ctx, nil)
			So(err, ShouldBeNil)
			So(UpsertStockQuote(ctx, tx, q), ShouldErrLike, "disk full")
			So(tx.Rollback(), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestListSymbols(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	Convey("ListSymbols", t, func() {
		db, mock := newMock(t)
		defer db.Close()

		Convey("ListSymbols: symbols found", func() {
			rows := sqlmock.NewRows([]string{"symbol"}).
				AddRow("AAPL").
				AddRow("GOOGL").
				AddRow("TSLA")
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT symbol FROM "Stocks" ORDER BY symbol;`)).
				WillReturnRows(rows)

			symbols, err := ListSymbols(ctx, db)
			So(err, ShouldBeNil)
			So(symbols, ShouldResemble, []string{"AAPL", "GOOGL", "TSLA"})
		})
		Convey("ListSymbols: no symbols", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT symbol`)).
				WillReturnRows(sqlmock.NewRows([]string{"symbol"}))

			symbols, err := ListSymbols(ctx, db)
			So(err, ShouldBeNil)
			So(symbols, ShouldBeEmpty)
		})
		Convey("ListSymbols: query error", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT symbol`)).
				WillReturnError(fmt.Errorf("Connection Error"))

			symbols, err := ListSymbols(ctx, db)
			So(err, ShouldErrLike, "Connection Error")
			So(symbols, ShouldBeNil)
		})
	})
}

func TestListStockQuotes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	Convey("ListStockQuotes", t, func() {
		db, mock := newMock(t)
		defer db.Close()

		Convey("ListStockQuotes: newest first", func() {
			timeNow := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
			rows := sqlmock.NewRows([]string{
				"symbol",
				"date",
				"open",
				"high",
				"low",
				"close",
				"volume",
				"last_updated_time"}).
				AddRow("AAPL", "2026-10-13", 2.0, 3.0, 1.0, 2.5, int64(200), timeNow).
				AddRow("AAPL", "2026-10-10", 1.0, 2.0, 0.5, 1.5, int64(100), nil)
			mock.ExpectQuery(regexp.QuoteMeta(`WHERE symbol=$1 ORDER BY date DESC LIMIT $2;`)).
				WithArgs("AAPL", 2).
				WillReturnRows(rows)

			quotes, err := ListStockQuotes(ctx, db, "AAPL", 2)
			So(err, ShouldBeNil)
			So(quotes, ShouldResemble, []StockQuote{
				{Symbol: "AAPL", Date: "2026-10-13", Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 200, LastUpdatedTime: timeNow},
				{Symbol: "AAPL", Date: "2026-10-10", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
			})
		})
		Convey("ListStockQuotes: invalid limit", func() {
			_, err := ListStockQuotes(ctx, db, "AAPL", 0)
			So(err, ShouldErrLike, "invalid limit")
		})
		Convey("ListStockQuotes: query error", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`FROM "Stocks"`)).
				WillReturnError(fmt.Errorf("timeout"))

			_, err := ListStockQuotes(ctx, db, "AAPL", 10)
			So(err, ShouldErrLike, "timeout")
		})
	})
}
