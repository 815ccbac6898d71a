// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
)

// SymbolsCommand prints the symbols sync would process.
var SymbolsCommand *subcommands.Command = &subcommands.Command{
	UsageLine: "symbols [options...]",
	ShortDesc: "print the tracked symbols",
	LongDesc:  "Print the tracked symbols, one per line, without syncing them.",
	CommandRun: func() subcommands.CommandRun {
		c := &symbolsCommand{}
		c.symbols.Register(&c.Flags)
		return c
	},
}

type symbolsCommand struct {
	subcommands.CommandRunBase
	symbols symbolFlags
}

// Run is the main entrypoint to symbols.
func (c *symbolsCommand) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)

	db := c.symbols.openDB(ctx)
	if db != nil {
		defer db.Close()
	}
	symbols, err := collectSymbols(ctx, db, c.symbols.watchlist)
	if err != nil {
		printError(a, err)
		return 1
	}
	for _, s := range symbols {
		fmt.Fprintln(a.GetOut(), s)
	}
	return 0
}
