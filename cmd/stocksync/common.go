// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/logging"

	"github.com/tim-polodev/stock-api/internal/config"
	"github.com/tim-polodev/stock-api/internal/database"
	"github.com/tim-polodev/stock-api/internal/model"
	"github.com/tim-polodev/stock-api/internal/watchlist"
)

// symbolFlags select where the symbols to sync come from.
type symbolFlags struct {
	db        database.DatabaseConfig
	watchlist string
	skipDB    bool
}

func (f *symbolFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.db.DBHost, "db-host", config.EnvOrDefault("DB_HOST", "localhost"), "Postgres host.")
	fs.StringVar(&f.db.DBPort, "db-port", config.EnvOrDefault("DB_PORT", "5432"), "Postgres port.")
	fs.StringVar(&f.db.DBName, "db-name", config.EnvOrDefault("DB_NAME", "stockapi"), "Postgres database name.")
	fs.StringVar(&f.db.DBUser, "db-user", config.EnvOrDefault("DB_USER", "postgres"), "Postgres user.")
	fs.StringVar(&f.db.DBPassword, "db-password", config.EnvOrDefault("DB_PASSWORD", ""), "Postgres password.")
	fs.StringVar(&f.watchlist, "watchlist", config.EnvOrDefault("WATCHLIST_FILE", ""), "YAML file with extra symbols to sync.")
	fs.BoolVar(&f.skipDB, "skip-db", false, "Only sync the symbols of the watchlist file.")
}

// openDB connects to the database unless it was disabled. A connection
// failure is logged and reported as a nil DB.
func (f *symbolFlags) openDB(ctx context.Context) *sql.DB {
	if f.skipDB {
		return nil
	}
	db, err := database.ConnectDB(ctx, f.db)
	if err != nil {
		logging.Warningf(ctx, "openDB: continuing without database symbols: %s", err)
		return nil
	}
	return db
}

// collectSymbols merges the symbols stored in db with those of the watchlist
// file. db may be nil. Database errors leave only the watchlist symbols.
func collectSymbols(ctx context.Context, db *sql.DB, watchlistPath string) ([]string, error) {
	wl, err := watchlist.Load(watchlistPath)
	if err != nil {
		return nil, err
	}

	var stored []string
	if db != nil {
		stored, err = model.ListSymbols(ctx, db)
		if err != nil {
			logging.Warningf(ctx, "collectSymbols: ignoring database symbols: %s", err)
			stored = nil
		}
	}
	return watchlist.Merge(stored, wl.Symbols), nil
}

func printError(a subcommands.Application, err error) {
	fmt.Fprintf(a.GetErr(), "%s: %s\n", a.GetName(), err)
}
