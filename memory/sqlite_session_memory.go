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
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/denggeng/realtime-agents-go/agents"
)

// SQLiteSessionMemory is a SQLite-based SessionMemory.
type SQLiteSessionMemory struct {
	conn            connectionProvider
	sessionTable    string
	messagesTable   string
	sessionSettings SessionSettings
}

type SQLiteSessionMemoryParams struct {
	// Optional database data source name. Defaults to `:memory:`.
	DBDataSourceName string

	// How connections are managed. Defaults to ConnectionModeAuto.
	ConnectionMode ConnectionMode

	// Maximum number of open connections in pooled mode. Defaults to 4.
	MaxConnections int

	// Optional name of the table to store session metadata. Defaults to `sessions`.
	SessionTable string

	// Optional name of the table to store message data. Defaults to `messages`.
	MessagesTable string

	// Optional session settings (e.g., default history limit).
	SessionSettings SessionSettings
}

// NewSQLiteSessionMemory opens the database and creates the schema if needed.
func NewSQLiteSessionMemory(ctx context.Context, params SQLiteSessionMemoryParams) (_ *SQLiteSessionMemory, err error) {
	dsn := cmp.Or(params.DBDataSourceName, ":memory:")
	conn, err := newConnectionProvider(ctx, dsn, params.ConnectionMode, params.MaxConnections)
	if err != nil {
		return nil, err
	}

	s := &SQLiteSessionMemory{
		conn:            conn,
		sessionTable:    cmp.Or(params.SessionTable, "sessions"),
		messagesTable:   cmp.Or(params.MessagesTable, "messages"),
		sessionSettings: params.SessionSettings,
	}
	defer func() {
		if err != nil {
			if e := s.Close(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}()

	if err = s.initDB(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ConnectionMode reports the connection strategy in use.
func (s *SQLiteSessionMemory) ConnectionMode() ConnectionMode {
	return s.conn.Mode()
}

func (s *SQLiteSessionMemory) GetMessages(ctx context.Context, sessionID string, limit int) (_ []TResponseInputItem, err error) {
	limit = ResolveSessionLimit(limit, s.sessionSettings)
	db := s.conn.DB()

	var rows *sql.Rows
	if limit <= 0 {
		rows, err = db.QueryContext(ctx, fmt.Sprintf(`
			SELECT message_data FROM "%s"
			WHERE session_id = ?
			ORDER BY created_at ASC, id ASC
		`, s.messagesTable), sessionID)
	} else {
		rows, err = db.QueryContext(ctx, fmt.Sprintf(`
			SELECT message_data FROM "%s"
			WHERE session_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, s.messagesTable), sessionID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying session messages: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("error closing sql.Rows: %w", e))
		}
	}()

	var items []TResponseInputItem
	for rows.Next() {
		var messageData string
		if err = rows.Scan(&messageData); err != nil {
			return nil, fmt.Errorf("sql rows scan error: %w", err)
		}
		item, err := unmarshalMessageData(messageData)
		if err != nil {
			agents.Logger().Debug("Skipping malformed session message",
				slog.String("session_id", sessionID), slog.String("error", err.Error()))
			continue
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sql rows scan error: %w", err)
	}

	if limit > 0 {
		slices.Reverse(items)
	}
	return items, nil
}

func (s *SQLiteSessionMemory) AddMessages(ctx context.Context, sessionID string, messages []TResponseInputItem) (err error) {
	if len(messages) == 0 {
		return nil
	}

	payloads := make([]string, len(messages))
	for i, message := range messages {
		if payloads[i], err = marshalMessageData(message); err != nil {
			return fmt.Errorf("error JSON marshaling message: %w", err)
		}
	}

	tx, err := s.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if e := tx.Rollback(); e != nil && !errors.Is(e, sql.ErrTxDone) {
				err = errors.Join(err, e)
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR IGNORE INTO "%s" (session_id) VALUES (?)`, s.sessionTable),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("error inserting session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO "%s" (session_id, message_data) VALUES (?, ?)`, s.messagesTable),
	)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer func() {
		if e := stmt.Close(); e != nil {
			err = errors.Join(err, e)
		}
	}()
	for _, payload := range payloads {
		if _, err = stmt.ExecContext(ctx, sessionID, payload); err != nil {
			return fmt.Errorf("error inserting message: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE "%s" SET updated_at = CURRENT_TIMESTAMP WHERE session_id = ?`, s.sessionTable),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("error updating session timestamp: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing messages: %w", err)
	}
	return nil
}

func (s *SQLiteSessionMemory) PopMessage(ctx context.Context, sessionID string) (TResponseInputItem, error) {
	var messageData string
	err := s.conn.DB().QueryRowContext(ctx, fmt.Sprintf(`
		DELETE FROM "%s"
		WHERE id = (
			SELECT id FROM "%s"
			WHERE session_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		RETURNING message_data
	`, s.messagesTable, s.messagesTable), sessionID).Scan(&messageData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sql delete error: %w", err)
	}

	item, err := unmarshalMessageData(messageData)
	if err != nil {
		// The malformed record has been removed anyway.
		agents.Logger().Debug("Dropped malformed session message",
			slog.String("session_id", sessionID), slog.String("error", err.Error()))
		return nil, nil
	}
	return item, nil
}

func (s *SQLiteSessionMemory) ClearSession(ctx context.Context, sessionID string) (err error) {
	tx, err := s.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if e := tx.Rollback(); e != nil && !errors.Is(e, sql.ErrTxDone) {
				err = errors.Join(err, e)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM "%s" WHERE session_id = ?`, s.messagesTable,
	), sessionID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM "%s" WHERE session_id = ?`, s.sessionTable,
	), sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// Close the database connections.
func (s *SQLiteSessionMemory) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *SQLiteSessionMemory) initDB(ctx context.Context) error {
	db := s.conn.DB()

	_, err := db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS "%s" (
			session_id TEXT PRIMARY KEY,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, s.sessionTable,
	))
	if err != nil {
		return fmt.Errorf("error creating session table: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS "%s" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			message_data TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES "%s" (session_id) ON DELETE CASCADE
		)`, s.messagesTable, s.sessionTable,
	))
	if err != nil {
		return fmt.Errorf("error creating messages table: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS "idx_%s_session_id" ON "%s" (session_id, created_at)`,
		s.messagesTable, s.messagesTable,
	))
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}
	return nil
}

var _ SessionMemory = (*SQLiteSessionMemory)(nil)
