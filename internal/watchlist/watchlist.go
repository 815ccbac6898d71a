// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package watchlist reads the symbols a user wants kept in sync.
//
// A watchlist file is YAML of the form:
//
//	symbols:
//	  - AAPL
//	  - TSLA
package watchlist

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"go.chromium.org/luci/common/errors"

	"github.com/tim-polodev/stock-api/internal/quotes"
)

// Watchlist is the decoded form of a watchlist file.
type Watchlist struct {
	Symbols []string `yaml:"symbols"`
}

// Parse decodes a watchlist document.
func Parse(data []byte) (*Watchlist, error) {
	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, errors.Annotate(err, "parse watchlist").Err()
	}
	return &wl, nil
}

// Load reads and decodes the watchlist at path. An empty path is an empty
// watchlist.
func Load(path string) (*Watchlist, error) {
	if path == "" {
		return &Watchlist{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "load watchlist %s", path).Err()
	}
	return Parse(data)
}

// Merge returns the normalized union of all lists, sorted and without
// duplicates or blanks.
func Merge(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, l := range lists {
		for _, s := range l {
			s = quotes.NormalizeSymbol(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
