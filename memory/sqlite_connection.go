// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ConnectionMode selects how a SQLiteSessionMemory manages its connections.
type ConnectionMode int

const (
	// ConnectionModeAuto uses a shared connection for in-memory databases and
	// a pool for file-backed ones.
	ConnectionModeAuto ConnectionMode = iota

	// ConnectionModeShared serializes every operation on a single connection.
	// In-memory databases must use it: each new connection would otherwise
	// see a fresh, empty database.
	ConnectionModeShared

	// ConnectionModePooled opens up to MaxConnections connections to a
	// file-backed database.
	ConnectionModePooled
)

func (m ConnectionMode) String() string {
	switch m {
	case ConnectionModeAuto:
		return "auto"
	case ConnectionModeShared:
		return "shared"
	case ConnectionModePooled:
		return "pooled"
	default:
		return fmt.Sprintf("ConnectionMode(%d)", int(m))
	}
}

const defaultMaxConnections = 4

// connectionProvider hands out the database handle used by a SQLite store.
type connectionProvider interface {
	DB() *sql.DB
	Mode() ConnectionMode
	Close() error
}

func newConnectionProvider(ctx context.Context, dsn string, mode ConnectionMode, maxConns int) (connectionProvider, error) {
	if mode == ConnectionModeAuto {
		mode = ConnectionModePooled
		if isInMemoryDSN(dsn) {
			mode = ConnectionModeShared
		}
	}
	switch mode {
	case ConnectionModeShared:
		return newSharedConnection(ctx, dsn)
	case ConnectionModePooled:
		if isInMemoryDSN(dsn) {
			return nil, fmt.Errorf("pooled connections require a file-backed database, got %q", dsn)
		}
		return newPooledConnections(ctx, dsn, maxConns)
	default:
		return nil, fmt.Errorf("unknown connection mode %s", mode)
	}
}

// sharedConnection keeps exactly one connection open for the lifetime of
// the store.
type sharedConnection struct {
	db *sql.DB
}

func newSharedConnection(ctx context.Context, dsn string) (_ *sharedConnection, err error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, db.Close())
		}
	}()

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err = enableWAL(ctx, db); err != nil {
		return nil, err
	}
	return &sharedConnection{db: db}, nil
}

func (c *sharedConnection) DB() *sql.DB          { return c.db }
func (c *sharedConnection) Mode() ConnectionMode { return ConnectionModeShared }
func (c *sharedConnection) Close() error         { return c.db.Close() }

// pooledConnections lets concurrent callers use their own connection; the
// journal mode and busy timeout are set on every connection through the DSN.
type pooledConnections struct {
	db *sql.DB
}

func newPooledConnections(ctx context.Context, dsn string, maxConns int) (_ *pooledConnections, err error) {
	if maxConns <= 0 {
		maxConns = defaultMaxConnections
	}
	db, err := sql.Open("sqlite3", withDSNParams(dsn, "_journal_mode=WAL", "_busy_timeout=5000", "_txlock=immediate"))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, db.Close())
		}
	}()

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err = enableWAL(ctx, db); err != nil {
		return nil, err
	}
	return &pooledConnections{db: db}, nil
}

func (c *pooledConnections) DB() *sql.DB          { return c.db }
func (c *pooledConnections) Mode() ConnectionMode { return ConnectionModePooled }
func (c *pooledConnections) Close() error         { return c.db.Close() }

func enableWAL(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to set journal mode: %w", err)
	}
	return nil
}

func isInMemoryDSN(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func withDSNParams(dsn string, params ...string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
