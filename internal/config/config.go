// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config resolves the runtime settings of the stock API: environment
// variables, .env files, API keys and stored secrets.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/server/secrets"
)

// GetSecret gets the active secret using the LUCI Secrets package.
//
// secretLoc is a secret URL understood by the secrets module, for example
// "devsecret-text://password" locally or "sm://db-password" in prod.
func GetSecret(ctx context.Context, secretLoc string) (string, error) {
	if secretLoc == "" {
		return "", errors.Reason("GetSecret: empty secret location").Err()
	}
	secret, err := secrets.StoredSecret(ctx, secretLoc)
	if err != nil {
		logging.Errorf(ctx, "GetSecret: failed to get secret %s: %s", secretLoc, err)
		return "", err
	}
	return string(secret.Active), nil
}

// GetEnvVar tries to get the corresponding environment variable for a string.
func GetEnvVar(ctx context.Context, k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", fmt.Errorf("GetEnvVar: %s environment variable not set", k)
	}
	return v, nil
}

// EnvOrDefault returns the environment variable k, or def when it is unset or
// empty. It is used to seed flag defaults.
func EnvOrDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// LoadDotEnv loads variables from a .env file into the process environment.
//
// Variables already present in the environment win. A missing file is not an
// error, since containers usually get their settings from the runtime.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Annotate(err, "LoadDotEnv: stat %s", path).Err()
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Annotate(err, "LoadDotEnv: load %s", path).Err()
	}
	return nil
}

// ParseAPIKeys splits a comma separated list of admin API keys.
func ParseAPIKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
