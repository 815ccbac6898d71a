// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package jobs

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"

	"github.com/tim-polodev/stock-api/internal/controller"
	"github.com/tim-polodev/stock-api/internal/frontend"
	"github.com/tim-polodev/stock-api/internal/model"
)

const (
	defaultSyncPeriod      = "5d"
	defaultSyncConcurrency = 4
	defaultSyncRate        = 2
)

// SyncOptions tunes SyncAllStocks. Zero values take the defaults.
type SyncOptions struct {
	Period      string
	Concurrency int
	// RatePerSecond caps how many syncs start per second across all workers.
	RatePerSecond float64
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.Period == "" {
		o.Period = defaultSyncPeriod
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultSyncConcurrency
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = defaultSyncRate
	}
	return o
}

// SyncSummary counts the outcome of a SyncAllStocks run.
type SyncSummary struct {
	Symbols int
	Synced  int
	Failed  int
}

// SyncAllStocks refreshes every symbol already stored in the database.
//
// A failure on one symbol is logged and does not stop the others. Only a
// failure to list the symbols is returned.
func SyncAllStocks(ctx context.Context, serviceClients frontend.ServiceClients, opts SyncOptions) (SyncSummary, error) {
	opts = opts.withDefaults()

	symbols, err := model.ListSymbols(ctx, serviceClients.DB)
	if err != nil {
		return SyncSummary{}, errors.Annotate(err, "SyncAllStocks: list symbols").Err()
	}
	if len(symbols) == 0 {
		logging.Infof(ctx, "SyncAllStocks: nothing to sync")
		return SyncSummary{}, nil
	}
	logging.Debugf(ctx, "SyncAllStocks: syncing %d symbols over %s", len(symbols), opts.Period)

	limiter := rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	var synced, failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				// Only a cancelled context ends up here.
				failed.Add(1)
				return err
			}
			req := controller.SyncRequest{Symbol: symbol, Period: opts.Period}
			if _, err := controller.SyncStock(gctx, serviceClients.DB, serviceClients.Fetcher, serviceClients.Publisher, req, "cron"); err != nil {
				logging.Errorf(gctx, "SyncAllStocks: failed to sync %s: %s", symbol, err)
				failed.Add(1)
				return nil
			}
			synced.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Warningf(ctx, "SyncAllStocks: run interrupted: %s", err)
	}

	summary := SyncSummary{
		Symbols: len(symbols),
		Synced:  int(synced.Load()),
		Failed:  int(failed.Load()),
	}
	logging.Infof(ctx, "SyncAllStocks: synced %d of %d symbols, %d failed", summary.Synced, summary.Symbols, summary.Failed)
	return summary, nil
}
