// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	. "go.chromium.org/luci/common/testing/assertions"
)

type fakeSyncer struct {
	fail   map[string]bool
	synced []string
}

func (f *fakeSyncer) SyncStock(ctx context.Context, symbol, period string) (string, error) {
	if f.fail[symbol] {
		return "", fmt.Errorf("status 404")
	}
	f.synced = append(f.synced, symbol+"/"+period)
	return "syncing", nil
}

func TestCollectSymbols(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	Convey("collectSymbols", t, func() {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
		}
		defer db.Close()

		path := filepath.Join(t.TempDir(), "watchlist.yaml")
		So(os.WriteFile(path, []byte("symbols: [tsla, MSFT]\n"), 0o600), ShouldBeNil)

		Convey("collectSymbols: merges database and watchlist", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT symbol`)).
				WillReturnRows(sqlmock.NewRows([]string{"symbol"}).AddRow("TSLA").AddRow("AAPL"))
			got, err := collectSymbols(ctx, db, path)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []string{"AAPL", "MSFT", "TSLA"})
		})
		Convey("collectSymbols: database errors are ignored", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT symbol`)).
				WillReturnError(fmt.Errorf("connection reset"))
			got, err := collectSymbols(ctx, db, path)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []string{"MSFT", "TSLA"})
		})
		Convey("collectSymbols: no database and no watchlist", func() {
			got, err := collectSymbols(ctx, nil, "")
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})
		Convey("collectSymbols: unreadable watchlist", func() {
			_, err := collectSymbols(ctx, nil, filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldErrLike, "load watchlist")
		})
	})
}

func TestSyncSymbols(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	Convey("syncSymbols", t, func() {
		Convey("syncSymbols: all succeed", func() {
			s := &fakeSyncer{}
			So(syncSymbols(ctx, s, []string{"AAPL", "TSLA"}, "5d"), ShouldBeNil)
			So(s.synced, ShouldResemble, []string{"AAPL/5d", "TSLA/5d"})
		})
		Convey("syncSymbols: failures keep going and are reported", func() {
			s := &fakeSyncer{fail: map[string]bool{"AAPL": true}}
			err := syncSymbols(ctx, s, []string{"AAPL", "TSLA"}, "5d")
			So(err, ShouldErrLike, "sync AAPL")
			So(s.synced, ShouldResemble, []string{"TSLA/5d"})
		})
	})
}

func TestSyncCommand(t *testing.T) {
	t.Parallel()

	Convey("sync without an API key fails", t, func() {
		c := &syncCommand{symbols: symbolFlags{skipDB: true}}
		So(c.innerRun(context.Background()), ShouldErrLike, "no admin API key")
	})
	Convey("sync with nothing to do succeeds", t, func() {
		c := &syncCommand{apiKey: "admin-key", period: "5d", symbols: symbolFlags{skipDB: true}}
		So(c.innerRun(context.Background()), ShouldBeNil)
	})
}
