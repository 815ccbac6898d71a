// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command stocksync asks a running stock API to refresh every tracked symbol.
// It is meant to run from an external scheduler such as crontab.
package main

import (
	"context"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/logging/gologger"

	"github.com/tim-polodev/stock-api/internal/config"
)

// getApplication returns the stocksync command line application.
func getApplication() *cli.Application {
	return &cli.Application{
		Name:  "stocksync",
		Title: "stock API sync tool",
		Context: func(ctx context.Context) context.Context {
			return gologger.StdConfig.Use(ctx)
		},
		Commands: []*subcommands.Command{
			subcommands.CmdHelp,
			SyncCommand,
			SymbolsCommand,
		},
	}
}

func main() {
	// Flag defaults are read from the environment, so the .env file goes first.
	if err := config.LoadDotEnv(config.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(subcommands.Run(getApplication(), nil))
}
