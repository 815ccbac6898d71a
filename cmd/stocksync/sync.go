// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"

	"github.com/tim-polodev/stock-api/internal/config"
	"github.com/tim-polodev/stock-api/internal/syncclient"
)

// SyncCommand syncs every tracked symbol through the API.
var SyncCommand *subcommands.Command = &subcommands.Command{
	UsageLine: "sync [options...]",
	ShortDesc: "sync all tracked symbols",
	LongDesc: `Sync all tracked symbols.

Symbols are the distinct symbols stored in the database plus those of the
watchlist file. Each one is posted to the API sync endpoint with the admin
API key.`,
	CommandRun: func() subcommands.CommandRun {
		c := &syncCommand{}
		c.Flags.StringVar(&c.apiBaseURL, "api-base-url", config.EnvOrDefault("API_BASE_URL", syncclient.DefaultBaseURL), "Base URL of the stock API.")
		c.Flags.StringVar(&c.apiKey, "api-key", firstAPIKey(), "Admin API key. Defaults to the first of ADMIN_API_KEYS.")
		c.Flags.StringVar(&c.period, "period", config.EnvOrDefault("SYNC_PERIOD", "5d"), "Period to sync.")
		c.symbols.Register(&c.Flags)
		return c
	},
}

type syncCommand struct {
	subcommands.CommandRunBase
	apiBaseURL string
	apiKey     string
	period     string
	symbols    symbolFlags
}

// Run is the main entrypoint to sync.
func (c *syncCommand) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	if err := c.innerRun(ctx); err != nil {
		printError(a, err)
		return 1
	}
	return 0
}

func (c *syncCommand) innerRun(ctx context.Context) error {
	if c.apiKey == "" {
		return errors.Reason("no admin API key: set -api-key or ADMIN_API_KEYS").Err()
	}

	db := c.symbols.openDB(ctx)
	if db != nil {
		defer db.Close()
	}
	symbols, err := collectSymbols(ctx, db, c.symbols.watchlist)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		logging.Infof(ctx, "No symbols found in any watchlist. Nothing to sync.")
		return nil
	}

	return syncSymbols(ctx, syncclient.New(c.apiBaseURL, c.apiKey), symbols, c.period)
}

type stockSyncer interface {
	SyncStock(ctx context.Context, symbol, period string) (string, error)
}

// syncSymbols syncs the symbols one after the other. Every failure is logged
// and the failures are returned together.
func syncSymbols(ctx context.Context, s stockSyncer, symbols []string, period string) error {
	logging.Infof(ctx, "syncSymbols: found %d unique symbols to sync", len(symbols))

	var errs errors.MultiError
	for _, symbol := range symbols {
		status, err := s.SyncStock(ctx, symbol, period)
		if err != nil {
			logging.Errorf(ctx, "syncSymbols: failed to sync %s: %s", symbol, err)
			errs = append(errs, errors.Annotate(err, "sync %s", symbol).Err())
			continue
		}
		logging.Infof(ctx, "syncSymbols: synced %s: %s", symbol, status)
	}
	if len(errs) > 0 {
		logging.Errorf(ctx, "syncSymbols: %d of %d symbols failed", len(errs), len(symbols))
		return errs
	}
	logging.Infof(ctx, "syncSymbols: synced all %d symbols", len(symbols))
	return nil
}

func firstAPIKey() string {
	if keys := config.ParseAPIKeys(config.EnvOrDefault("ADMIN_API_KEYS", "")); len(keys) > 0 {
		return keys[0]
	}
	return ""
}
