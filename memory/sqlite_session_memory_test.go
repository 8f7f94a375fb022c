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
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/openai/openai-go/v3/packages/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileSQLiteMemory(t *testing.T, name string) *SQLiteSessionMemory {
	t.Helper()
	mem, err := NewSQLiteSessionMemory(t.Context(), SQLiteSessionMemoryParams{
		DBDataSourceName: filepath.Join(t.TempDir(), name),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mem.Close()) })
	return mem
}

func TestSQLiteSessionMemoryFileBacked(t *testing.T) {
	mem := newFileSQLiteMemory(t, "file_backed.db")
	assert.Equal(t, ConnectionModePooled, mem.ConnectionMode())
	runSessionMemoryBehavior(t, mem)
}

func TestSQLiteSessionMemoryInMemory(t *testing.T) {
	mem, err := NewSQLiteSessionMemory(t.Context(), SQLiteSessionMemoryParams{})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mem.Close()) })

	assert.Equal(t, ConnectionModeShared, mem.ConnectionMode())
	runSessionMemoryBehavior(t, mem)
}

func TestSQLiteSessionMemoryPooledRejectsInMemory(t *testing.T) {
	_, err := NewSQLiteSessionMemory(t.Context(), SQLiteSessionMemoryParams{
		DBDataSourceName: ":memory:",
		ConnectionMode:   ConnectionModePooled,
	})
	require.Error(t, err)
}

func TestSQLiteSessionMemorySharedFileBacked(t *testing.T) {
	mem, err := NewSQLiteSessionMemory(t.Context(), SQLiteSessionMemoryParams{
		DBDataSourceName: filepath.Join(t.TempDir(), "shared.db"),
		ConnectionMode:   ConnectionModeShared,
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mem.Close()) })

	assert.Equal(t, ConnectionModeShared, mem.ConnectionMode())
	runSessionMemoryBehavior(t, mem)
}

func TestSQLiteSessionMemoryPersistsAcrossReopen(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "reopen.db")

	mem, err := NewSQLiteSessionMemory(ctx, SQLiteSessionMemoryParams{DBDataSourceName: path})
	require.NoError(t, err)
	require.NoError(t, mem.AddMessages(ctx, "reopen", []TResponseInputItem{makeMessage("user", "kept")}))
	require.NoError(t, mem.Close())

	mem, err = NewSQLiteSessionMemory(ctx, SQLiteSessionMemoryParams{DBDataSourceName: path})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mem.Close()) })

	items, err := mem.GetMessages(ctx, "reopen", 0)
	require.NoError(t, err)
	assert.Equal(t, []TResponseInputItem{makeMessage("user", "kept")}, items)
}

func TestSQLiteSessionMemorySkipsMalformedRows(t *testing.T) {
	ctx := t.Context()
	mem := newFileSQLiteMemory(t, "malformed.db")

	require.NoError(t, mem.AddMessages(ctx, "bad", []TResponseInputItem{makeMessage("user", "valid")}))
	_, err := mem.conn.DB().ExecContext(ctx,
		`INSERT INTO "messages" (session_id, message_data) VALUES (?, ?)`, "bad", "{not json")
	require.NoError(t, err)

	items, err := mem.GetMessages(ctx, "bad", 0)
	require.NoError(t, err)
	assert.Equal(t, []TResponseInputItem{makeMessage("user", "valid")}, items)

	// Pop removes the malformed row and reports nothing.
	popped, err := mem.PopMessage(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, popped)

	popped, err = mem.PopMessage(ctx, "bad")
	require.NoError(t, err)
	assert.Equal(t, makeMessage("user", "valid"), popped)
}

func TestSQLiteSessionMemoryDefaultLimitFromSettings(t *testing.T) {
	ctx := t.Context()
	mem, err := NewSQLiteSessionMemory(ctx, SQLiteSessionMemoryParams{
		DBDataSourceName: filepath.Join(t.TempDir(), "settings.db"),
		SessionSettings:  SessionSettings{Limit: param.NewOpt(2)},
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mem.Close()) })

	var items []TResponseInputItem
	for i := range 4 {
		items = append(items, makeMessage("user", fmt.Sprint(i)))
	}
	require.NoError(t, mem.AddMessages(ctx, "settings", items))

	latest, err := mem.GetMessages(ctx, "settings", 0)
	require.NoError(t, err)
	assert.Equal(t, items[2:], latest)

	explicit, err := mem.GetMessages(ctx, "settings", 3)
	require.NoError(t, err)
	assert.Equal(t, items[1:], explicit)
}

func TestSQLiteSessionMemoryConcurrentWriters(t *testing.T) {
	ctx := t.Context()
	mem := newFileSQLiteMemory(t, "concurrent.db")

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 10 {
				err := mem.AddMessages(ctx, "concurrent", []TResponseInputItem{
					makeMessage("user", fmt.Sprintf("%d-%d", w, i)),
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	items, err := mem.GetMessages(ctx, "concurrent", 0)
	require.NoError(t, err)
	assert.Len(t, items, 40)
}

func TestConnectionModeString(t *testing.T) {
	assert.Equal(t, "auto", ConnectionModeAuto.String())
	assert.Equal(t, "shared", ConnectionModeShared.String())
	assert.Equal(t, "pooled", ConnectionModePooled.String())
}

func TestWithDSNParams(t *testing.T) {
	assert.Equal(t, "a.db?x=1&y=2", withDSNParams("a.db", "x=1", "y=2"))
	assert.Equal(t, "file:a.db?cache=shared&x=1", withDSNParams("file:a.db?cache=shared", "x=1"))
}
