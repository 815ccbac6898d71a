// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package jobs

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	. "go.chromium.org/luci/common/testing/assertions"

	"github.com/tim-polodev/stock-api/internal/frontend"
	"github.com/tim-polodev/stock-api/internal/quotes"
)

// symbolFetcher fails for the symbols in fail and records every call.
type symbolFetcher struct {
	mu      sync.Mutex
	fail    map[string]bool
	fetched []string
	periods []string
}

func (f *symbolFetcher) Fetch(ctx context.Context, symbol, period string) ([]quotes.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, symbol)
	f.periods = append(f.periods, period)
	if f.fail[symbol] {
		return nil, fmt.Errorf("no data for %s", symbol)
	}
	return []quotes.Bar{{Date: "2026-10-13", Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}}, nil
}

func expectUpsert(mock sqlmock.Sqlmock, symbol string) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "Stocks"`)).
		WithArgs(symbol, "2026-10-13", 1.0, 1.0, 1.0, 1.0, int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func TestSyncAllStocks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	opts := SyncOptions{Concurrency: 1, RatePerSecond: 1000}

	Convey("SyncAllStocks", t, func() {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
		}
		defer db.Close()

		listSymbols := mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT symbol FROM "Stocks"`))

		Convey("SyncAllStocks: syncs every stored symbol", func() {
			listSymbols.WillReturnRows(sqlmock.NewRows([]string{"symbol"}).AddRow("AAPL").AddRow("TSLA"))
			expectUpsert(mock, "AAPL")
			expectUpsert(mock, "TSLA")

			fetcher := &symbolFetcher{}
			summary, err := SyncAllStocks(ctx, frontend.ServiceClients{DB: db, Fetcher: fetcher}, opts)
			So(err, ShouldBeNil)
			So(summary, ShouldResemble, SyncSummary{Symbols: 2, Synced: 2})
			So(fetcher.fetched, ShouldResemble, []string{"AAPL", "TSLA"})
			So(fetcher.periods, ShouldResemble, []string{"5d", "5d"})
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
		Convey("SyncAllStocks: one failure does not stop the rest", func() {
			listSymbols.WillReturnRows(sqlmock.NewRows([]string{"symbol"}).AddRow("AAPL").AddRow("GONE").AddRow("TSLA"))
			expectUpsert(mock, "AAPL")
			expectUpsert(mock, "TSLA")

			fetcher := &symbolFetcher{fail: map[string]bool{"GONE": true}}
			summary, err := SyncAllStocks(ctx, frontend.ServiceClients{DB: db, Fetcher: fetcher}, opts)
			So(err, ShouldBeNil)
			So(summary, ShouldResemble, SyncSummary{Symbols: 3, Synced: 2, Failed: 1})
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
		Convey("SyncAllStocks: custom period", func() {
			listSymbols.WillReturnRows(sqlmock.NewRows([]string{"symbol"}).AddRow("AAPL"))
			expectUpsert(mock, "AAPL")

			fetcher := &symbolFetcher{}
			_, err := SyncAllStocks(ctx, frontend.ServiceClients{DB: db, Fetcher: fetcher}, SyncOptions{Period: "1mo", Concurrency: 1, RatePerSecond: 1000})
			So(err, ShouldBeNil)
			So(fetcher.periods, ShouldResemble, []string{"1mo"})
		})
		Convey("SyncAllStocks: nothing to sync", func() {
			listSymbols.WillReturnRows(sqlmock.NewRows([]string{"symbol"}))

			fetcher := &symbolFetcher{}
			summary, err := SyncAllStocks(ctx, frontend.ServiceClients{DB: db, Fetcher: fetcher}, opts)
			So(err, ShouldBeNil)
			So(summary, ShouldResemble, SyncSummary{})
			So(fetcher.fetched, ShouldBeEmpty)
		})
		Convey("SyncAllStocks: listing failure is returned", func() {
			listSymbols.WillReturnError(fmt.Errorf("database is down"))

			_, err := SyncAllStocks(ctx, frontend.ServiceClients{DB: db, Fetcher: &symbolFetcher{}}, opts)
			So(err, ShouldErrLike, "database is down")
		})
	})
}

func TestSyncOptionsDefaults(t *testing.T) {
	t.Parallel()

	Convey("withDefaults", t, func() {
		So(SyncOptions{}.withDefaults(), ShouldResemble, SyncOptions{Period: "5d", Concurrency: 4, RatePerSecond: 2})
		So(SyncOptions{Period: "1y", Concurrency: 8, RatePerSecond: 5}.withDefaults(), ShouldResemble,
			SyncOptions{Period: "1y", Concurrency: 8, RatePerSecond: 5})
	})
}
