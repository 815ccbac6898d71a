// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/server"
	"go.chromium.org/luci/server/cron"
	"go.chromium.org/luci/server/module"
	"go.chromium.org/luci/server/router"
	"go.chromium.org/luci/server/secrets"

	"github.com/tim-polodev/stock-api/internal/auth"
	"github.com/tim-polodev/stock-api/internal/config"
	"github.com/tim-polodev/stock-api/internal/database"
	"github.com/tim-polodev/stock-api/internal/external"
	"github.com/tim-polodev/stock-api/internal/frontend"
	"github.com/tim-polodev/stock-api/internal/jobs"
	"github.com/tim-polodev/stock-api/internal/quotes"
)

const defaultHTTPAddr = "0.0.0.0:8000"

func main() {
	// Flag defaults below are read from the environment.
	if err := config.LoadDotEnv(config.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	modules := []module.Module{
		cron.NewModuleFromFlags(),
		secrets.NewModuleFromFlags(),
	}

	dbHost := flag.String(
		"db-host",
		config.EnvOrDefault("DB_HOST", "stockapi_db"),
		"The DB host location to connect to.",
	)

	dbPort := flag.String(
		"db-port",
		config.EnvOrDefault("DB_PORT", "5432"),
		"The DB port number to connect to.",
	)

	dbName := flag.String(
		"db-name",
		config.EnvOrDefault("DB_NAME", "stockapi"),
		"The DB name to connect to.",
	)

	dbUser := flag.String(
		"db-user",
		config.EnvOrDefault("DB_USER", "postgres"),
		"The DB user to connect as.",
	)

	dbPasswordSecret := flag.String(
		"db-password-secret",
		config.EnvOrDefault("DB_PASSWORD_SECRET", "devsecret-text://password"),
		"The DB password location for Secret Store to use.",
	)

	authAPIURL := flag.String(
		"auth-api-url",
		config.EnvOrDefault("AUTH_API_URL", auth.DefaultAuthURL),
		"The authentication service that validates bearer tokens.",
	)

	adminAPIKeys := flag.String(
		"admin-api-keys",
		config.EnvOrDefault("ADMIN_API_KEYS", ""),
		"Comma separated API keys accepted in the x-api-key header.",
	)

	quotesAPIURL := flag.String(
		"quotes-api-url",
		config.EnvOrDefault("QUOTES_API_URL", quotes.DefaultYahooURL),
		"The market data API to fetch daily bars from.",
	)

	syncEventsTopic := flag.String(
		"sync-events-topic",
		config.EnvOrDefault("SYNC_EVENTS_TOPIC", external.DefaultSyncEventsTopic),
		"The PubSub topic sync events go to. Empty disables publishing.",
	)

	syncPeriod := flag.String(
		"sync-period",
		config.EnvOrDefault("SYNC_PERIOD", "5d"),
		"The period the sync-stocks cron job refreshes.",
	)

	syncConcurrency := flag.Int(
		"sync-concurrency",
		envInt("SYNC_CONCURRENCY", 4),
		"How many symbols the sync-stocks cron job syncs at once.",
	)

	options := server.Options{
		HTTPAddr: defaultHTTPAddr,
	}

	server.Main(&options, modules, func(srv *server.Server) error {
		logging.Debugf(srv.Context, "main: initializing server")

		dbConfig := database.DatabaseConfig{
			DBHost:           *dbHost,
			DBPort:           *dbPort,
			DBName:           *dbName,
			DBUser:           *dbUser,
			DBPasswordSecret: *dbPasswordSecret,
			DBPassword:       os.Getenv("DB_PASSWORD"),
		}
		db, err := database.ConnectDB(srv.Context, dbConfig)
		if err != nil {
			return err
		}
		srv.RegisterCleanup(func(ctx context.Context) {
			logging.Infof(ctx, "main: closing database connection")
			db.Close()
		})
		if err := database.EnsureSchema(srv.Context, db); err != nil {
			return err
		}

		clients := frontend.ServiceClients{
			DB:      db,
			Fetcher: quotes.NewYahooClient(*quotesAPIURL),
		}

		if project := srv.Options.CloudProject; project != "" && *syncEventsTopic != "" {
			psClient, err := external.NewAsSelfPubSubClient(srv.Context, project)
			if err != nil {
				return err
			}
			srv.RegisterCleanup(func(ctx context.Context) {
				psClient.Close()
			})
			clients.Publisher = &external.Publisher{Client: psClient, Topic: *syncEventsTopic}
		} else {
			logging.Infof(srv.Context, "main: sync events disabled")
		}

		logging.Debugf(srv.Context, "main: installing handlers")

		apiKeys := config.ParseAPIKeys(*adminAPIKeys)
		mc := router.NewMiddlewareChain(auth.Middleware(auth.NewValidator(*authAPIURL), apiKeys))
		frontend.InstallHandlers(frontend.NewServer(clients), srv.Routes, mc)

		syncOpts := jobs.SyncOptions{Period: *syncPeriod, Concurrency: *syncConcurrency}
		cron.RegisterHandler("sync-stocks", func(ctx context.Context) error {
			_, err := jobs.SyncAllStocks(ctx, clients, syncOpts)
			return err
		})

		logging.Debugf(srv.Context, "main: initialization finished")

		return nil
	})
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(config.EnvOrDefault(k, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return n
}
