// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"

	"github.com/tim-polodev/stock-api/internal/config"
)

const (
	connMaxLifetime time.Duration = 0
	maxIdleConns    int           = 50
	maxOpenConns    int           = 50

	pingTimeout = 5 * time.Second
)

type DatabaseConfig struct {
	DBHost string
	DBPort string
	DBName string
	DBUser string

	// Not the actual password but just the secret string used by SecretStore.
	DBPasswordSecret string

	// DBPassword is a plain password, used by command line tools that run
	// without the server secrets module. It takes precedence over
	// DBPasswordSecret. When both are empty the connection is made without a
	// password.
	DBPassword string
}

// DSN returns the pgx connection string for the config and password.
func (c DatabaseConfig) DSN(password string) string {
	return fmt.Sprintf("host=%s user=%s password=%s port=%s database=%s",
		c.DBHost, c.DBUser, password, c.DBPort, c.DBName)
}

// ConnectDB creates a connection pool to the database using a TCP socket and
// verifies it with a ping.
func ConnectDB(ctx context.Context, dbConfig DatabaseConfig) (*sql.DB, error) {
	db, err := connectTCPSocket(ctx, dbConfig)
	if err != nil {
		logging.Errorf(ctx, "ConnectDB: unable to connect: %s", err)
		return nil, err
	}

	if err := Ping(ctx, db); err != nil {
		db.Close()
		logging.Errorf(ctx, "ConnectDB: could not reach database %s at %s:%s: %s",
			dbConfig.DBName, dbConfig.DBHost, dbConfig.DBPort, err)
		return nil, err
	}
	logging.Infof(ctx, "ConnectDB: connected to database %s at %s:%s",
		dbConfig.DBName, dbConfig.DBHost, dbConfig.DBPort)
	return db, nil
}

// Ping checks that the database answers within a short deadline.
func Ping(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.Reason("Ping: database is not connected").Err()
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return errors.Annotate(err, "Ping").Err()
	}
	return nil
}

// connectTCPSocket initializes a TCP connection pool for a Postgres server.
func connectTCPSocket(ctx context.Context, dbConfig DatabaseConfig) (*sql.DB, error) {
	dbPwd := dbConfig.DBPassword
	if dbPwd == "" && dbConfig.DBPasswordSecret != "" {
		var err error
		dbPwd, err = config.GetSecret(ctx, dbConfig.DBPasswordSecret)
		if err != nil {
			return nil, err
		}
	}

	logging.Debugf(ctx, "connectTCPSocket: connecting as user=%s to host=%s:%s database=%s",
		dbConfig.DBUser, dbConfig.DBHost, dbConfig.DBPort, dbConfig.DBName)

	// dbPool is the pool of database connections.
	dbPool, err := sql.Open("pgx", dbConfig.DSN(dbPwd))
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	dbPool.SetConnMaxLifetime(connMaxLifetime)
	dbPool.SetMaxIdleConns(maxIdleConns)
	dbPool.SetMaxOpenConns(maxOpenConns)

	return dbPool, nil
}
