// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package controller

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"go.chromium.org/luci/common/clock"
	lucierrors "go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"

	"github.com/tim-polodev/stock-api/internal/metrics"
	"github.com/tim-polodev/stock-api/internal/model"
	"github.com/tim-polodev/stock-api/internal/quotes"
)

// SyncStatus is reported to callers once the bars have been stored.
const SyncStatus = "syncing"

// ErrStockNotFound is returned when the data source has no bars for a symbol.
var ErrStockNotFound = errors.New("Stock data not found")

// SyncRequest asks for the bars of Symbol over Period to be stored.
type SyncRequest struct {
	Symbol string `json:"symbol"`
	Period string `json:"period"`
}

// SyncResult is the outcome of a successful sync.
type SyncResult struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
	Bars   int    `json:"-"`
}

// SyncEvent is published after a sync has been committed.
type SyncEvent struct {
	EventID   string    `json:"event_id"`
	Symbol    string    `json:"symbol"`
	Period    string    `json:"period"`
	Bars      int       `json:"bars"`
	FirstDate string    `json:"first_date"`
	LastDate  string    `json:"last_date"`
	EventTime time.Time `json:"event_time"`
}

// EventPublisher sends sync events. *external.Publisher implements it.
type EventPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

// Validate normalizes the symbol and checks the request fields.
func (r *SyncRequest) Validate() error {
	r.Symbol = quotes.NormalizeSymbol(r.Symbol)
	if r.Symbol == "" {
		return lucierrors.Annotate(quotes.ErrInvalidSymbol, "symbol is required").Err()
	}
	if r.Period == "" {
		return lucierrors.Annotate(quotes.ErrInvalidPeriod, "period is required").Err()
	}
	if !quotes.ValidPeriod(r.Period) {
		return lucierrors.Annotate(quotes.ErrInvalidPeriod, "unsupported period %q", r.Period).Err()
	}
	return nil
}

// IsInvalidRequest reports whether err was caused by bad request input.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, quotes.ErrInvalidSymbol) || errors.Is(err, quotes.ErrInvalidPeriod)
}

// SyncStock downloads the daily bars of a symbol and upserts them in one
// transaction. publisher may be nil.
func SyncStock(ctx context.Context, db *sql.DB, fetcher quotes.Fetcher, publisher EventPublisher, req SyncRequest, source string) (res SyncResult, err error) {
	defer func() {
		metrics.SyncTick.Add(ctx, 1, err == nil, source)
	}()

	if err := req.Validate(); err != nil {
		return SyncResult{}, err
	}

	bars, err := fetcher.Fetch(ctx, req.Symbol, req.Period)
	if err != nil {
		logging.Errorf(ctx, "SyncStock: failed to fetch %s: %s", req.Symbol, err)
		return SyncResult{}, err
	}
	if len(bars) == 0 {
		return SyncResult{}, ErrStockNotFound
	}

	if err := upsertBars(ctx, db, req.Symbol, bars); err != nil {
		return SyncResult{}, err
	}
	metrics.QuotesUpserted.Add(ctx, int64(len(bars)))
	logging.Infof(ctx, "SyncStock: upserted %d bars for %s over %s", len(bars), req.Symbol, req.Period)

	if publisher != nil {
		if err := PublishSyncEvent(ctx, publisher, req, bars); err != nil {
			logging.Warningf(ctx, "SyncStock: failed to publish sync event for %s: %s", req.Symbol, err)
		}
	}

	return SyncResult{Symbol: req.Symbol, Status: SyncStatus, Bars: len(bars)}, nil
}

// upsertBars writes every bar in a single transaction.
func upsertBars(ctx context.Context, db *sql.DB, symbol string, bars []quotes.Bar) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return lucierrors.Annotate(err, "upsertBars: begin transaction").Err()
	}

	now := clock.Now(ctx).UTC()
	for _, b := range bars {
		err := model.UpsertStockQuote(ctx, tx, model.StockQuote{
			Symbol:          symbol,
			Date:            b.Date,
			Open:            b.Open,
			High:            b.High,
			Low:             b.Low,
			Close:           b.Close,
			Volume:          b.Volume,
			LastUpdatedTime: now,
		})
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Errorf(ctx, "upsertBars: rollback failed: %s", rbErr)
			}
			return lucierrors.Annotate(err, "upsertBars: %s on %s", symbol, b.Date).Err()
		}
	}

	if err := tx.Commit(); err != nil {
		return lucierrors.Annotate(err, "upsertBars: commit").Err()
	}
	return nil
}

// PublishSyncEvent builds a SyncEvent from the stored bars and publishes it.
func PublishSyncEvent(ctx context.Context, publisher EventPublisher, req SyncRequest, bars []quotes.Bar) error {
	first, last := bars[0].Date, bars[0].Date
	for _, b := range bars[1:] {
		if b.Date < first {
			first = b.Date
		}
		if b.Date > last {
			last = b.Date
		}
	}

	ev := SyncEvent{
		EventID:   uuid.NewString(),
		Symbol:    req.Symbol,
		Period:    req.Period,
		Bars:      len(bars),
		FirstDate: first,
		LastDate:  last,
		EventTime: clock.Now(ctx).UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return lucierrors.Annotate(err, "PublishSyncEvent: marshal").Err()
	}
	return publisher.Publish(ctx, data, map[string]string{"symbol": req.Symbol})
}
