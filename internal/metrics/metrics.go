// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package metrics holds the tsmon metrics reported by the stock API.
package metrics

import (
	"go.chromium.org/luci/common/tsmon/field"
	"go.chromium.org/luci/common/tsmon/metric"
)

var (
	// SyncTick counts stock sync attempts.
	SyncTick = metric.NewCounter(
		"stockapi/sync/attempts",
		"stock sync attempt",
		nil,
		field.Bool("success"),  // If the attempt succeed
		field.String("source"), // "api" or "cron"
	)
	// QuotesUpserted counts daily bars written to the database.
	QuotesUpserted = metric.NewCounter(
		"stockapi/sync/quotes_upserted",
		"daily bars upserted",
		nil,
	)
	// AuthTick counts token validations by outcome.
	AuthTick = metric.NewCounter(
		"stockapi/auth/validations",
		"token validation attempt",
		nil,
		field.String("result"),
	)
)
